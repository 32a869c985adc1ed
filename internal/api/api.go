package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/oauth2"

	"github.com/mkwiatek/mailfan/internal/api/mail"
	"github.com/mkwiatek/mailfan/internal/config"
	"github.com/mkwiatek/mailfan/internal/dispatch"
	mailtypes "github.com/mkwiatek/mailfan/internal/mailservice/types"
	"github.com/mkwiatek/mailfan/internal/middleware"
	"github.com/mkwiatek/mailfan/internal/session"
)

type APIServer struct {
	backendConfig config.BackendConfig
	sessions      session.Store
	dispatcher    *dispatch.Dispatcher
	notifier      mail.Notifier
	OAuthConfig   *oauth2.Config
}

func NewAPIServer(backendConfig config.BackendConfig, rawSender mailtypes.RawSender, sessions session.Store, notifier mail.Notifier, oauth2conf *oauth2.Config) *APIServer {
	return &APIServer{
		backendConfig: backendConfig,
		sessions:      sessions,
		dispatcher:    dispatch.New(rawSender, backendConfig.SendPacing),
		notifier:      notifier,
		OAuthConfig:   oauth2conf,
	}
}

func (s *APIServer) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.LogRequests)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{s.backendConfig.FrontendEndpoint},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	// auth
	r.Handle("/auth/google", http.HandlerFunc(s.oauthHandler))
	r.Handle("/auth/google/callback", http.HandlerFunc(s.authCallback))
	r.Handle("/api/user", http.HandlerFunc(s.userHandler))
	r.Handle("/api/logout", http.HandlerFunc(s.logout))

	// functionality
	r.Handle("/upload-and-send", s.authMiddleware(http.HandlerFunc(s.uploadAndSend)))

	return r
}

func (s *APIServer) Start() {
	log.Info("listening", "port", s.backendConfig.ListenPort)
	if err := http.ListenAndServe("0.0.0.0"+s.backendConfig.ListenPort, s.Router()); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
