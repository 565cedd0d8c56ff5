package main

import (
	"context"

	"farmisian/internal/config"
	"farmisian/internal/db"
	"farmisian/internal/logging"
	categoryrepo "farmisian/internal/repository/category"
	customerrepo "farmisian/internal/repository/customer"
	productrepo "farmisian/internal/repository/product"
	tokenrepo "farmisian/internal/repository/token"
	"farmisian/internal/seed"
	customersvc "farmisian/internal/service/customer"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	base, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = base.Sync() }()
	logger := base.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	catalog, err := seed.Default()
	if err != nil {
		logger.Fatal("load catalog", zap.Error(err))
	}
	if err := seed.Apply(ctx, catalog, categoryrepo.NewPostgres(pool), productrepo.NewPostgres(pool, logger), logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	if cfg.AdminEmail != "" {
		customers := customersvc.New(customerrepo.NewPostgres(pool, logger), tokenrepo.NewPostgres(pool), logger)
		admin, err := customers.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Fatal("ensure admin", zap.Error(err))
		}
		logger.Info("admin ready", zap.String("email", admin.Email))
	}

	logger.Info("seed applied")
}
