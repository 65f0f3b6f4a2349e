package main

import (
	"context"
	"fmt"
	"log/slog"

	"gymtrack/internal/api"
	"gymtrack/internal/cloudinary"
	"gymtrack/internal/config"
	"gymtrack/internal/logging"
	"gymtrack/internal/metrics"
	"gymtrack/internal/store"
)

// run loads configuration, opens the database, and serves until ctx ends.
func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	uploader, err := photoUploader(cfg, logger)
	if err != nil {
		return err
	}

	server, err := api.New(api.Options{
		Config:   cfg,
		Store:    st,
		Metrics:  metrics.New(metrics.WithRuntimeCollectors()),
		Uploader: uploader,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	server.Stop()
	logger.Info("gymtrackd shutting down")
	return nil
}

// photoUploader returns a Cloudinary client when credentials are configured.
// Without them uploads stay on local disk.
func photoUploader(cfg *config.Config, logger *slog.Logger) (api.PhotoUploader, error) {
	if !cfg.CloudinaryConfigured() {
		logger.Info("cloudinary credentials not set; photos stay on local disk",
			logging.String("uploads_dir", cfg.Storage.UploadsDir),
		)
		return nil, nil
	}
	client, err := cloudinary.New(cloudinary.Config{
		CloudName: cfg.Cloudinary.CloudName,
		APIKey:    cfg.Cloudinary.APIKey,
		APISecret: cfg.Cloudinary.APISecret,
		BaseURL:   cfg.Cloudinary.BaseURL,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return client, nil
}
