package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"gymtrack/internal/cloudinary"
	"gymtrack/internal/config"
	"gymtrack/internal/imagesync"
	"gymtrack/internal/logging"
	"gymtrack/internal/metrics"
	"gymtrack/internal/store"
)

type commandContext struct {
	configFlag *string
	levelFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, levelFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.levelFlag != nil && strings.TrimSpace(*c.levelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.levelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// imageJob bundles what one image maintenance command needs.
type imageJob struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	metrics *metrics.Registry
	driver  *imagesync.Driver
	lock    *flock.Flock
}

func (j *imageJob) close() {
	if j.store != nil {
		j.store.Close()
	}
	if j.lock != nil {
		_ = j.lock.Unlock()
	}
}

// openImageJob validates configuration, takes the job lock, opens the
// database, and builds a driver. needsCloudinary selects whether credentials
// are required; export-ids and clear never contact Cloudinary.
func (c *commandContext) openImageJob(cmd *cobra.Command, needsCloudinary bool) (*imageJob, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if needsCloudinary {
		if err := cfg.ValidateImageJobs(); err != nil {
			return nil, err
		}
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	lock := flock.New(cfg.SyncLockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire image job lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another image job is running (lock " + cfg.SyncLockPath() + ")")
	}
	job := &imageJob{cfg: cfg, logger: logger, lock: lock, metrics: metrics.New()}

	st, err := store.Open(cfg)
	if err != nil {
		job.close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	job.store = st

	var lister cloudinary.Lister
	if needsCloudinary {
		client, err := cloudinary.New(cloudinary.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
			BaseURL:   cfg.Cloudinary.BaseURL,
			Logger:    logger,
		})
		if err != nil {
			job.close()
			return nil, err
		}
		lister = client
	}

	job.driver = imagesync.NewDriver(
		imagesync.SettingsFromConfig(cfg),
		lister,
		st,
		imagesync.WithLogger(logger),
		imagesync.WithMetrics(job.metrics),
	)
	return job, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func cloudinaryFolders(cfg *config.Config) []string {
	return imagesync.SettingsFromConfig(cfg).Folders()
}
