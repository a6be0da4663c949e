package main

import (
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/anomdash/anomdash/internal/app"
	"github.com/anomdash/anomdash/internal/config"
	"github.com/anomdash/anomdash/internal/domain"
	"github.com/anomdash/anomdash/internal/infrastructure/api"
	"github.com/anomdash/anomdash/internal/infrastructure/mock"
	"github.com/anomdash/anomdash/internal/logging"
)

func main() {
	var useMock bool
	var cfgPath string
	flag.BoolVar(&useMock, "mock", false, "use generated demo data instead of the backend")
	flag.StringVar(&cfgPath, "config", "", "path to yaml config (env ANOMDASH_* overrides)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var repo domain.AnalyticsRepo
	if useMock {
		repo = mock.New()
	} else {
		repo = api.New(cfg.BaseURL, logger)
	}
	logger.Info("starting dashboard",
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("mock", useMock),
		zap.String("trend_variant", cfg.TrendVariant))

	m := app.New(cfg, repo, logger)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
