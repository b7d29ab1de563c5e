package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/vortechron/go-dynamic-image/config"
	"github.com/vortechron/go-dynamic-image/conversion"
	"github.com/vortechron/go-dynamic-image/dynamicimage"
	"github.com/vortechron/go-dynamic-image/medialibrary"
	"github.com/vortechron/go-dynamic-image/repository"
	"github.com/vortechron/go-dynamic-image/shortcode"
	"github.com/vortechron/go-dynamic-image/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// app holds everything a command needs, built from the config.
type app struct {
	cfg        *config.Config
	logger     *medialibrary.DefaultLogger
	lib        *medialibrary.DefaultMediaLibrary
	shortcodes *shortcode.Registry
	migrate    func(ctx context.Context) error
	closers    []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.logger = medialibrary.NewLogger(medialibrary.LoggerConfig{
		Level:      medialibrary.ParseLogLevel(cfg.Log.Level),
		Console:    os.Stderr,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	a.closers = append(a.closers, a.logger.Sync)

	repo, err := a.openRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	disks, err := openDisks(ctx, cfg.Disks)
	if err != nil {
		a.Close()
		return nil, err
	}

	transformer := conversion.NewImagingTransformer()
	if len(cfg.Library.Sizes) == 0 {
		transformer.DefaultSizes()
	}
	for _, size := range cfg.Library.Sizes {
		transformer.RegisterSize(size.Name, size.Width, size.Height, size.Crop)
	}

	a.lib = medialibrary.NewDefaultMediaLibrary(disks, transformer, repo,
		medialibrary.WithLogger(a.logger),
		medialibrary.WithDefaultDisk(cfg.Disks.Default),
		medialibrary.WithPathGeneratorPrefix(cfg.Library.PathPrefix),
		medialibrary.WithUploadBaseURL(cfg.Library.UploadBaseURL),
		medialibrary.WithQuality(cfg.Library.Quality),
	)

	a.shortcodes = shortcode.NewRegistry()
	if err := dynamicimage.Register(a.shortcodes, a.lib, a.imageOptions(false)...); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) imageOptions(debug bool) []dynamicimage.Option {
	return []dynamicimage.Option{
		dynamicimage.WithDebug(debug || a.cfg.Image.Debug),
		dynamicimage.WithCrop(!a.cfg.Image.Fit),
	}
}

// openRepository connects the configured database and sets a.migrate.
func (a *app) openRepository(ctx context.Context) (medialibrary.MediaRepository, error) {
	db := a.cfg.Database

	switch db.Driver {
	case "postgres":
		gdb, err := gorm.Open(postgres.Open(db.DSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if sqlDB, err := gdb.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}

		repo := repository.NewGormMediaRepository(gdb)
		a.migrate = func(context.Context) error { return repo.AutoMigrate() }
		return repo, nil

	case "mysql":
		sqlDB, err := sql.Open("mysql", db.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open mysql: %w", err)
		}
		a.closers = append(a.closers, sqlDB.Close)

		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to mysql: %w", err)
		}

		repo := repository.NewSQLMediaRepository(sqlDB)
		a.migrate = repo.CreateTablesIfNotExist
		return repo, nil

	default:
		a.logger.Warning("Using the in-memory repository, nothing is persisted")
		a.migrate = func(context.Context) error { return nil }
		return repository.NewMemoryMediaRepository(), nil
	}
}

func openDisks(ctx context.Context, cfg config.DisksConfig) (*storage.DiskManager, error) {
	disks := storage.NewDiskManager()

	local, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.Local.BasePath,
		BaseURL:  cfg.Local.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local disk: %w", err)
	}
	disks.AddDisk("local", local)

	if cfg.S3.Enabled {
		s3Disk, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			BaseURL:      cfg.S3.BaseURL,
			PublicURLs:   cfg.S3.PublicURLs,
			AccessKey:    cfg.S3.AccessKeyID,
			SecretKey:    cfg.S3.SecretAccessKey,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 disk: %w", err)
		}
		disks.AddDisk("s3", s3Disk)
	}

	return disks, nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
