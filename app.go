package main

import (
	"fmt"
	"os"
	"strings"

	"StoryForge-server/compiler"
	"StoryForge-server/config"
	"StoryForge-server/llm"
	"StoryForge-server/logger"
	"StoryForge-server/models"
	"StoryForge-server/secrets"
)

// app holds the resources every command needs. Close releases them.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *models.Database
	store    *models.Store
	secrets  *secrets.Store
	compiler *compiler.Compiler
}

func configPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv("STORYFORGE_CONFIG"))
}

// openApp loads config, opens and migrates the database and wires the
// compiler.
func openApp(configFlag string) (*app, error) {
	cfg, err := config.Load(configPath(configFlag))
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := models.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	model, err := llm.New(cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store := models.NewStore(db.Gorm, log)
	creds := secrets.NewStore(db.Gorm, log)
	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		store:    store,
		secrets:  creds,
		compiler: compiler.New(store, creds, model, cfg.LLM.APIKeyName, log),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("close database", "error", err)
	}
	a.log.Sync()
}
