package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"villagefund/internal/config"
	"villagefund/internal/database"
	"villagefund/internal/fund"
	"villagefund/internal/insight"
	"villagefund/internal/logger"
	"villagefund/internal/router"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatal().Err(err).Msg("create data dir")
	}
	if err := ensureDir(cfg.Backup.Dir); err != nil {
		log.Fatal().Err(err).Msg("create backup dir")
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("init database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	seedSatang := int64(cfg.Fund.SeedBalanceBaht * 100)
	if err := database.Seed(db, seedSatang, os.Getenv("VWF_ADMIN_PASSWORD")); err != nil {
		log.Fatal().Err(err).Msg("seed database")
	}

	fundSvc := fund.NewService(db, log.With().Str("component", "fund").Logger())

	var insightSvc *insight.Service
	if cfg.AI.Enabled {
		insightSvc, err = insight.New(context.Background(),
			cfg.AI.TextModel, cfg.AI.VisionModel, cfg.AI.Timeout(),
			log.With().Str("component", "insight").Logger())
		if err != nil {
			// The fund must keep working without the model.
			log.Warn().Err(err).Msg("insight service disabled")
			insightSvc = nil
		}
	}

	r := router.SetupRouter(cfg, db, fundSvc, insightSvc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("run server")
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
