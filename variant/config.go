package variant

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lewtec/imgvariant/internal/domain"
)

const ConfigFileName = "config.yaml"

type Config struct {
	// Dir is the directory holding the config file; sources are read from its subdirectories.
	Dir  string `yaml:"-"`
	Path string `yaml:"-"`

	ParallelImgMax   int          `yaml:"parallel_img_max"`
	Resize           ConfigResize `yaml:"resize"`
	TransformVariant string       `yaml:"transform_variant"`
	Checksum         string       `yaml:"checksum"`
	JPEGQuality      int          `yaml:"jpeg_quality"`

	ImportSection *ConfigImport `yaml:"import"`
	ExportSection *ConfigExport `yaml:"export"`
	S3Section     *ConfigS3     `yaml:"s3"`
	ServerSection *ConfigServer `yaml:"server"`
	Ledger        ConfigLedger  `yaml:"ledger"`
}

type ConfigResize struct {
	Original int `yaml:"original"`
	Xl       int `yaml:"xl"`
	Lg       int `yaml:"lg"`
	Md       int `yaml:"md"`
	Sm       int `yaml:"sm"`
	Xs       int `yaml:"xs"`
}

type ConfigImport struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

type ConfigExport struct {
	Prefix         string `yaml:"prefix"`
	FilesystemPath string `yaml:"filesystem_path"`
	Filesystem     bool   `yaml:"filesystem"`
	S3             bool   `yaml:"s3"`
	CreateBucket   *bool  `yaml:"create_bucket"`
}

type ConfigS3 struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type ConfigServer struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ConfigLedger struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// LoadConfig reads a config file, or the config.yaml inside a directory,
// applies defaults and validates it.
func LoadConfig(filename string) (*Config, error) {
	if stat, err := os.Stat(filename); err == nil && stat.IsDir() {
		filename = filepath.Join(filename, ConfigFileName)
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("while reading %s: %w", filename, err)
	}
	return ParseConfig(data, filename)
}

// ParseConfig parses config data as if it was read from filename.
func ParseConfig(data []byte, filename string) (*Config, error) {
	var ret Config
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("%w: while parsing %s: %v", domain.ErrConfiguration, filename, err)
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	ret.Path = abs
	ret.Dir = filepath.Dir(abs)

	loadEnv(ret.Dir)
	if ret.S3Section != nil {
		if ret.S3Section.AccessKey == "" {
			ret.S3Section.AccessKey = os.Getenv("S3_ACCESS_KEY")
		}
		if ret.S3Section.SecretKey == "" {
			ret.S3Section.SecretKey = os.Getenv("S3_SECRET_KEY")
		}
	}

	if ret.ParallelImgMax == 0 {
		ret.ParallelImgMax = 4
	}
	if ret.TransformVariant == "" {
		ret.TransformVariant = "md"
	}
	if ret.Checksum == "" {
		ret.Checksum = string(Adler32)
	}
	if ret.JPEGQuality == 0 {
		ret.JPEGQuality = 85
	}
	if ret.Ledger.Path == "" {
		ret.Ledger.Path = filepath.Join(ret.Dir, ".imgvariant.db")
	} else if !filepath.IsAbs(ret.Ledger.Path) {
		ret.Ledger.Path = filepath.Join(ret.Dir, ret.Ledger.Path)
	}

	if err := ret.validate(); err != nil {
		return nil, err
	}
	return &ret, nil
}

// loadEnv reads .env files from the config directory and the working
// directory. Variables already present in the environment win.
func loadEnv(dir string) {
	for _, f := range []string{filepath.Join(dir, ".env"), ".env"} {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

func (c *Config) validate() error {
	if c.ParallelImgMax < 1 {
		return fmt.Errorf("%w: parallel_img_max must be at least 1", domain.ErrConfiguration)
	}
	edges := map[string]int{
		"original": c.Resize.Original, "xl": c.Resize.Xl, "lg": c.Resize.Lg,
		"md": c.Resize.Md, "sm": c.Resize.Sm, "xs": c.Resize.Xs,
	}
	for name, edge := range edges {
		if edge < 0 {
			return fmt.Errorf("%w: resize.%s must not be negative", domain.ErrConfiguration, name)
		}
	}
	if _, _, err := c.transform(); err != nil {
		return err
	}
	if _, err := ParseChecksumAlgorithm(c.Checksum); err != nil {
		return err
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg_quality must be between 1 and 100", domain.ErrConfiguration)
	}
	if c.ExportSection != nil && c.ExportSection.S3 && c.S3Section == nil {
		return fmt.Errorf("%w: export.s3 is enabled but the s3 section is missing", domain.ErrConfiguration)
	}
	return nil
}

func (c *Config) transform() (domain.TargetSize, bool, error) {
	v := strings.ToLower(strings.TrimSpace(c.TransformVariant))
	if v == "none" {
		return 0, false, nil
	}
	size, err := domain.ParseTargetSize(v)
	if err != nil {
		return 0, false, fmt.Errorf("transform_variant: %w", err)
	}
	return size, true, nil
}

// Import returns the import section or an empty one.
func (c *Config) Import() ConfigImport {
	if c.ImportSection == nil {
		return ConfigImport{}
	}
	return *c.ImportSection
}

// Export returns the export section. It is required for runs.
func (c *Config) Export() (ConfigExport, error) {
	if c.ExportSection == nil {
		return ConfigExport{}, fmt.Errorf("%w: export section is missing", domain.ErrConfiguration)
	}
	e := *c.ExportSection
	if !e.Filesystem && !e.S3 {
		return ConfigExport{}, fmt.Errorf("%w: export needs filesystem or s3 enabled", domain.ErrConfiguration)
	}
	if e.FilesystemPath != "" && !filepath.IsAbs(e.FilesystemPath) {
		e.FilesystemPath = filepath.Join(c.Dir, e.FilesystemPath)
	}
	return e, nil
}

// CreateBucketEnabled reports whether runs may create a missing bucket.
func (e ConfigExport) CreateBucketEnabled() bool {
	return e.CreateBucket == nil || *e.CreateBucket
}

// FilesystemRoot is the directory the filesystem sink writes into.
func (c *Config) FilesystemRoot(e ConfigExport) string {
	if e.FilesystemPath != "" {
		return e.FilesystemPath
	}
	return c.Dir
}

// S3 returns the object store section.
func (c *Config) S3() (ConfigS3, error) {
	if c.S3Section == nil {
		return ConfigS3{}, fmt.Errorf("%w: s3 section is missing", domain.ErrConfiguration)
	}
	s := *c.S3Section
	var missing []string
	if s.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if s.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if s.AccessKey == "" {
		missing = append(missing, "access_key (or S3_ACCESS_KEY)")
	}
	if s.SecretKey == "" {
		missing = append(missing, "secret_key (or S3_SECRET_KEY)")
	}
	if len(missing) > 0 {
		return ConfigS3{}, fmt.Errorf("%w: s3 section lacks %s", domain.ErrConfiguration, strings.Join(missing, ", "))
	}
	return s, nil
}

// Server returns the read service section with defaults applied.
func (c *Config) Server() ConfigServer {
	s := ConfigServer{Host: "127.0.0.1", Port: 8080}
	if c.ServerSection != nil {
		if c.ServerSection.Host != "" {
			s.Host = c.ServerSection.Host
		}
		if c.ServerSection.Port != 0 {
			s.Port = c.ServerSection.Port
		}
	}
	return s
}

func (s ConfigServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Options is the immutable per run context handed to every pipeline call.
type Options struct {
	Sizes            domain.Sizes
	ChunkSize        int
	JPEGQuality      int
	Checksum         ChecksumAlgorithm
	Transform        domain.TargetSize
	TransformEnabled bool
}

func DefaultOptions() Options {
	return Options{
		Sizes:            domain.DefaultSizes(),
		ChunkSize:        4,
		JPEGQuality:      85,
		Checksum:         Adler32,
		Transform:        domain.Md,
		TransformEnabled: true,
	}
}

// Options derives the run options from the config.
func (c *Config) Options() (Options, error) {
	o := DefaultOptions()
	o.ChunkSize = c.ParallelImgMax
	o.JPEGQuality = c.JPEGQuality
	alg, err := ParseChecksumAlgorithm(c.Checksum)
	if err != nil {
		return Options{}, err
	}
	o.Checksum = alg
	o.Transform, o.TransformEnabled, err = c.transform()
	if err != nil {
		return Options{}, err
	}
	overrides := []struct {
		size domain.TargetSize
		edge int
	}{
		{domain.Original, c.Resize.Original},
		{domain.Xl, c.Resize.Xl},
		{domain.Lg, c.Resize.Lg},
		{domain.Md, c.Resize.Md},
		{domain.Sm, c.Resize.Sm},
		{domain.Xs, c.Resize.Xs},
	}
	for _, ov := range overrides {
		if ov.edge > 0 {
			o.Sizes = o.Sizes.With(ov.size, ov.edge)
		}
	}
	return o, nil
}
