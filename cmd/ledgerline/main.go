package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ledgerline/internal/api"
	"github.com/jask/ledgerline/internal/cache"
	"github.com/jask/ledgerline/internal/config"
	"github.com/jask/ledgerline/internal/database"
	"github.com/jask/ledgerline/internal/insight"
	"github.com/jask/ledgerline/internal/ledger"
	"github.com/jask/ledgerline/internal/lifecycle"
	"github.com/jask/ledgerline/internal/notify"
	"github.com/jask/ledgerline/internal/selection"
	"github.com/jask/ledgerline/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	if err := database.RunMigrations(cfg.Database.Path, "internal/database/migrations"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	client, err := api.New(cfg.API.BaseURL, resolveToken(cfg), time.Duration(cfg.API.TimeoutSeconds)*time.Second)
	if err != nil {
		log.Fatalf("api client: %v", err)
	}

	notices := notify.NewQueue()
	resources := cache.NewStore(db)
	loader := &ledger.Loader{API: client, Cache: resources}
	mutator := lifecycle.NewMutator(client, resources, notices)

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		log.Printf("warn: using local timezone due to load failure: %v", err)
		loc = time.Local
	}

	p := tea.NewProgram(tui.New(ctx, cfg, tui.Deps{
		Selection: selection.NewStore(),
		Loader:    loader,
		Mutator:   mutator,
		Insight:   insightProvider(cfg.Insight),
		Notices:   notices,
	}, loc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func insightProvider(cfg config.InsightConfig) insight.Provider {
	if strings.ToLower(strings.TrimSpace(cfg.Provider)) == "http" && cfg.BaseURL != "" {
		return insight.NewHTTPProvider(cfg.BaseURL)
	}
	return insight.NewHeuristicProvider()
}

func resolveToken(cfg config.Config) string {
	if v := os.Getenv("LEDGERLINE_API_TOKEN"); v != "" {
		return v
	}
	return strings.TrimSpace(cfg.API.Token)
}
