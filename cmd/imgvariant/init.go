package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lewtec/imgvariant/variant"
)

var initCmd = &cobra.Command{
	Use:   "init [folder]",
	Short: "Initialize a new project folder",
	Long: `Initialize a project folder by creating a sample configuration file
(config.yaml) and an "originals" folder to drop source images into.

Example:
  imgvariant init ./site-images`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		configFile := filepath.Join(dir, variant.ConfigFileName)
		out := cmd.OutOrStdout()

		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			fmt.Fprintf(out, "Creating sample configuration file: %s\n", configFile)
			if err := createSampleConfig(configFile); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
		} else {
			fmt.Fprintf(out, "Configuration file already exists: %s\n", configFile)
		}
		if _, err := variant.LoadConfig(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		originals := filepath.Join(dir, "originals")
		if err := os.MkdirAll(originals, 0o755); err != nil {
			return err
		}

		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "  1. Review and customize your config file:", configFile)
		fmt.Fprintln(out, "  2. Put source images below", originals)
		fmt.Fprintf(out, "  3. imgvariant run %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func createSampleConfig(filename string) error {
	sampleConfig := `# imgvariant configuration file
# Every subfolder next to this file is a source folder.

# Number of source images processed at the same time
parallel_img_max: 4

# Edge length in pixels of every variant
resize:
  original: 2500
  xl: 1200
  lg: 600
  md: 300
  sm: 150
  xs: 75

# Variant the shapes are cut from (none disables shapes)
transform_variant: md

# adler32 or sha256
checksum: adler32

jpeg_quality: 85

import:
  include: []
  exclude: []

export:
  # Folder (and key prefix) the variants are written to
  prefix: export
  filesystem: true
  s3: false
  create_bucket: true

# s3:
#   endpoint: localhost:9000
#   region: us-east-1
#   bucket: images
#   use_ssl: false
#   # or S3_ACCESS_KEY / S3_SECRET_KEY, also read from .env
#   access_key: ""
#   secret_key: ""

server:
  host: 127.0.0.1
  port: 8080

ledger:
  path: .imgvariant.db
  disabled: false
`

	return os.WriteFile(filename, []byte(sampleConfig), 0644)
}
