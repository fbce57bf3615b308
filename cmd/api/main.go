package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/cloud"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/config"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/database"
	httpHandlers "github.com/dbatlle-23/alfred-dashboard-sub000/internal/http"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/repository"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	store, err := buildStore()
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}

	flagStore := config.NewFlagStore(config.FeatureFlagsFile())
	svcs := service.New(store, flagStore)

	if config.UseCloudServices() {
		if arn := config.SNSTopicArn(); arn != "" {
			notifier, err := cloud.NewSNSClient(config.AWSRegion(), arn)
			if err != nil {
				log.Fatal().Err(err).Msg("sns init failed")
			}
			svcs.Notifier = notifier
		}
		storage, err := cloud.NewS3Client(config.AWSRegion(), config.S3Bucket())
		if err != nil {
			log.Fatal().Err(err).Msg("s3 init failed")
		}
		svcs.Reports.SetStorage(storage)
	}

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	httpHandlers.Register(app, svcs, flagStore)

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	log.Fatal().Err(app.Listen(addr)).Msg("server exit")
}

// buildStore picks the storage backend: Postgres when a DSN is configured,
// CSV/JSON files otherwise, with anomaly records moved to DynamoDB when
// cloud services are on.
func buildStore() (repository.Store, error) {
	var store repository.Store
	if dsn := config.DBDSN(); dsn != "" {
		db, err := database.Connect()
		if err != nil {
			return nil, err
		}
		store = repository.NewPostgresStore(db)
	} else {
		fileStore, err := repository.NewFileStore(config.DataDir())
		if err != nil {
			return nil, err
		}
		store = fileStore
	}

	if config.UseCloudServices() {
		anomalies, err := cloud.NewDynamoAnomalyStore(config.AWSRegion())
		if err != nil {
			return nil, err
		}
		store = repository.SplitStore{ReadingStore: store, AnomalyStore: anomalies}
	}
	return store, nil
}
