package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"coindeck/api"
	"coindeck/config"
	"coindeck/logging"
	"coindeck/models"
	"coindeck/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	dir, err := config.Dir()
	if err != nil {
		fmt.Printf("Error resolving config directory: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(filepath.Join(dir, "logs", "coindeck.log"))
	slog.Info("starting", "currency", cfg.Currency, "theme", cfg.Theme)

	storePath := store.DefaultPath(dir)
	openStore := func(password string) (models.Store, error) {
		return store.Open(storePath, password)
	}
	newSource := func(currency, apiKey string) models.MarketSource {
		return api.NewClient(currency, apiKey)
	}

	model := models.NewAppModel(cfg, store.Exists(storePath), openStore, newSource)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	if model.Session != nil {
		model.Session.Close()
	}
}
