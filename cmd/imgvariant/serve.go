package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lewtec/imgvariant/browse"
	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/sink"
	"github.com/lewtec/imgvariant/variant"
)

var serveCmd = &cobra.Command{
	Use:   "serve [folder|config.yaml]",
	Short: "Serve the stored variants from the object store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := loggerFor(cmd)
		cfg, err := loadConfig(logger, args)
		if err != nil {
			return err
		}
		export, err := cfg.Export()
		if err != nil {
			return err
		}
		if !export.S3 {
			return fmt.Errorf("%w: the server only reads from the object store, enable export.s3", domain.ErrConfiguration)
		}
		s3, err := cfg.S3()
		if err != nil {
			return err
		}
		client, err := variant.OpenObjectClient(s3)
		if err != nil {
			return err
		}
		if err := sink.EnsureBucket(cmd.Context(), client, s3.Bucket, false); err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server().Addr()
		}
		server := &browse.Server{Client: client, Bucket: s3.Bucket, Logger: logger}
		httpServer := &http.Server{Addr: addr, Handler: server.Handler()}

		go func() {
			<-cmd.Context().Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(ctx)
		}()

		logger.Info().Str("bucket", s3.Bucket).Msgf("Listening on http://%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to bind the webserver (defaults to server.host:server.port)")
}
