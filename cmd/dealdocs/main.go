package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/dealroom/internal/buildinfo"
	"github.com/dmitrijs2005/dealroom/internal/client/accessgate"
	"github.com/dmitrijs2005/dealroom/internal/client/changefeed"
	"github.com/dmitrijs2005/dealroom/internal/client/cli"
	"github.com/dmitrijs2005/dealroom/internal/client/config"
	"github.com/dmitrijs2005/dealroom/internal/client/models"
	"github.com/dmitrijs2005/dealroom/internal/client/objectstore"
	"github.com/dmitrijs2005/dealroom/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/dealroom/internal/client/services"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stderr, slog.LevelInfo)

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	if _, err := models.ParseSurface(cfg.Surface); err != nil {
		return err
	}

	db, repo, err := repomanager.OpenMetadata(ctx, cfg.DatabaseDSN, cfg.RunMigrations)
	if err != nil {
		return err
	}
	defer db.Close()

	journalDB, journal, err := repomanager.OpenJournal(ctx, cfg.JournalDSN)
	if err != nil {
		return err
	}
	defer journalDB.Close()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	feed, err := openFeed(cfg, logger)
	if err != nil {
		return err
	}

	var gate accessgate.Gate
	if cfg.AccessToken != "" {
		if gate, err = accessgate.FromToken(cfg.AccessToken, nil); err != nil {
			return err
		}
	}

	app := cli.NewApp(cfg, services.Deps{
		Repo:    repo,
		Store:   store,
		Journal: journal,
		Feed:    feed,
		Gate:    gate,
		Log:     logger,
	}, logger)
	return app.Run(ctx)
}

func openStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	switch cfg.ObjectBackend {
	case "s3":
		return objectstore.NewS3Store(ctx, objectstore.S3Config{
			User:     cfg.S3User,
			Password: cfg.S3Password,
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	case "minio":
		s, err := objectstore.NewMinioStore(objectstore.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3User,
			SecretKey: cfg.S3Password,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown object backend %q", cfg.ObjectBackend)
	}
}

func openFeed(cfg *config.Config, logger logging.Logger) (changefeed.Feed, error) {
	switch cfg.ChangeFeed {
	case "postgres":
		return changefeed.NewPostgresFeed(cfg.DatabaseDSN, cfg.NotifyChannel, logger), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka change feed needs at least one broker")
		}
		return changefeed.NewKafkaFeed(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown change feed %q", cfg.ChangeFeed)
	}
}
