package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	app "plantserv/src/app"
	cfg "plantserv/src/configuration"
	"plantserv/src/repository"
	server "plantserv/src/server"
)

func main() {
	config := cfg.ReadProperties()

	logger, err := buildLogger(config.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var store repository.KVStore
	if config.DB.Path == "" {
		logger.Warn("DB_PATH is empty, key-value store is in-memory only")
		store = repository.NewMemoryKV()
	} else {
		sqliteStore, err := repository.NewSQLiteKV(config.DB.Path)
		if err != nil {
			logger.Fatal("could not open key-value store", zap.Error(err))
		}
		store = sqliteStore
	}

	clientS3, err := app.NewMinioS3Client(
		config.S3.Host,
		config.S3.AccessKey,
		config.S3.SecretKey,
		config.S3.Bucket,
		config.S3.UseSSL)
	if err != nil {
		logger.Fatal("could not create minio client", zap.Error(err))
	}

	ctx := context.Background()
	if err := clientS3.EnsureBucket(ctx); err != nil {
		logger.Fatal("could not ensure bucket", zap.Error(err))
	}

	catalog := app.NewCatalog(store, logger)
	if err := catalog.Seed(ctx); err != nil {
		logger.Fatal("could not seed disease catalog", zap.Error(err))
	}

	identity, err := buildIdentityProvider(config, store, logger)
	if err != nil {
		logger.Fatal("could not create identity provider", zap.Error(err))
	}

	classifier := app.NewRandomClassifier(rand.NewSource(time.Now().UnixNano()))
	service := app.NewService(store, clientS3, identity, classifier, catalog, config.S3.URLExpiry, logger)

	if err := server.RunServer(config, service, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	if level == "DEBUG" {
		return zap.NewDevelopment()
	}
	config := zap.NewProductionConfig()
	if parsed, err := zap.ParseAtomicLevel(level); err == nil {
		config.Level = parsed
	}
	return config.Build()
}

func buildIdentityProvider(config *cfg.Properties, store repository.KVStore, logger *zap.Logger) (app.IdentityProvider, error) {
	switch config.Auth.Mode {
	case "local":
		return app.NewLocalIdentityProvider(store, config.Auth.JWTSecret, config.Auth.TokenTTL, logger), nil
	case "oidc":
		return app.NewOIDCIdentityProvider(config.Auth.OIDCHost, config.Auth.OIDCID)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", config.Auth.Mode)
	}
}
