package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	app "reefing/src/app"
	cfg "reefing/src/configuration"
	"reefing/src/logger"
	db "reefing/src/repository"
	server "reefing/src/server"
)

func newBlobStore(ctx context.Context, config cfg.S3Properties) (app.BlobStore, error) {
	if config.Driver == "minio" {
		return app.NewMinioS3Client(config.Endpoint, config.AccessKey, config.SecretKey, config.Region, config.Bucket, config.UseSSL)
	}
	return app.NewAWSS3Client(ctx, config.Region, config.Bucket, config.AccessKey, config.SecretKey, "")
}

func main() {
	log := logger.Default()
	config, err := cfg.ReadProperties()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := logger.InitLogger(config.LogLevel, config.LogFormat); err != nil {
		log.WithError(err).Fatal("invalid log level")
	}
	if config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, config.DB)
	if err != nil {
		log.WithError(err).Fatal("database not responding")
	}
	defer db.Close(database)

	blobs, err := newBlobStore(ctx, config.S3)
	if err != nil {
		log.WithError(err).Fatal("could not create blob store")
	}

	handler := server.NewHandler(config, database, blobs)
	auth := server.NewAuthHandler(server.NewVerifier(ctx, config.Auth), handler.Users(), config.Auth)
	if err := server.RunServer(ctx, config, handler, auth); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
