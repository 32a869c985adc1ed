package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mkwiatek/mailfan/internal/api"
	"github.com/mkwiatek/mailfan/internal/api/mail"
	"github.com/mkwiatek/mailfan/internal/config"
	mailfactory "github.com/mkwiatek/mailfan/internal/mailservice/factory"
	mailservice "github.com/mkwiatek/mailfan/internal/mailservice/mail"
	"github.com/mkwiatek/mailfan/internal/session"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	if lvl, err := log.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(lvl)
	}

	log.Info("starting mailfan",
		"backend", cfg.Server.BackendEndpoint,
		"frontend", cfg.Server.FrontendEndpoint,
	)

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  fmt.Sprintf("%s/auth/google/callback", cfg.Server.BackendEndpoint),
		Scopes: []string{
			"https://www.googleapis.com/auth/gmail.send",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	reportSender, err := mailfactory.NewEmailService(context.Background(), cfg.Report)
	if err != nil {
		log.Fatal("failed to init report sender", "error", err)
	}
	notifier := mail.NewMailNotifier(reportSender, cfg.Report.Sender)

	backendConfig := config.BackendConfig{
		ListenPort:             cfg.Server.Listen,
		BackendEndpoint:        cfg.Server.BackendEndpoint,
		FrontendEndpoint:       cfg.Server.FrontendEndpoint,
		UploadDir:              cfg.Send.UploadDir,
		MaxUploadSize:          cfg.Send.MaxUploadSize,
		SendPacing:             time.Duration(cfg.Send.PacingInterval),
		HTMLSanitizationPolicy: bluemonday.UGCPolicy(),
	}

	s := api.NewAPIServer(
		backendConfig,
		mailservice.NewGmailSender(oauthConfig),
		session.NewMemoryStore(cfg.Send.SessionCapacity),
		notifier,
		oauthConfig,
	)

	s.Start()
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
