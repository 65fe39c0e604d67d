package main

import (
	"log"
	"net/http"

	"github.com/cardlab/overdraw/internal/api"
	"github.com/cardlab/overdraw/internal/config"
	"github.com/cardlab/overdraw/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var db store.DB
	if cfg.DBPath != "" {
		sqlite, err := store.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer sqlite.Close()
		if err := sqlite.Migrate(); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		db = sqlite
	}

	server := api.NewServer(db)
	log.Printf("listening on %s (persistence: %v)", cfg.Addr, db != nil)
	if err := http.ListenAndServe(cfg.Addr, server.Routes()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
