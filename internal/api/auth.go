package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/mkwiatek/mailfan/internal/userdata"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func (s *APIServer) oauthHandler(w http.ResponseWriter, r *http.Request) {
	url := s.OAuthConfig.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (s *APIServer) authCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	t, err := s.OAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Error("oauth code exchange failed", "error", err)
		http.Redirect(w, r, s.backendConfig.FrontendEndpoint+"/?login=error", http.StatusTemporaryRedirect)
		return
	}

	userInfo, err := s.fetchUserInfo(r.Context(), t)
	if err != nil {
		log.Error("failed to fetch user info", "error", err)
		http.Redirect(w, r, s.backendConfig.FrontendEndpoint+"/?login=error", http.StatusTemporaryRedirect)
		return
	}

	token, err := s.sessions.Create(userInfo.Email, userInfo.Name, t)
	if err != nil {
		log.Error("failed to create session", "error", err)
		http.Redirect(w, r, s.backendConfig.FrontendEndpoint+"/?login=error", http.StatusTemporaryRedirect)
		return
	}

	log.Info("user authenticated", "email", userInfo.Email)

	// the frontend stores the token and sends it back as a bearer header
	http.Redirect(w, r, fmt.Sprintf("%s/?token=%s", s.backendConfig.FrontendEndpoint, token), http.StatusTemporaryRedirect)
}

func (s *APIServer) fetchUserInfo(ctx context.Context, t *oauth2.Token) (*userdata.AuthorizedUserInfo, error) {
	client := s.OAuthConfig.Client(ctx, t)

	resp, err := client.Get(userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed: status=%d", resp.StatusCode)
	}

	var userInfo userdata.AuthorizedUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}

// bearerToken extracts the opaque session token from the Authorization header.
func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (s *APIServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			JSON(w, map[string]any{"error": "Not authenticated"})
			return
		}

		sess, ok := s.sessions.Lookup(token)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			JSON(w, map[string]any{"error": "Not authenticated"})
			return
		}

		ctx := context.WithValue(r.Context(), userdata.SessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *APIServer) userHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusBadRequest)
		JSON(w, map[string]any{"error": "bad_request"})
		return
	}

	sess, ok := s.sessions.Lookup(bearerToken(r))
	if !ok {
		JSON(w, map[string]any{"authenticated": false})
		return
	}

	JSON(w, map[string]any{
		"authenticated": true,
		"email":         sess.Email,
		"name":          sess.Name,
	})
}

func (s *APIServer) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusBadRequest)
		JSON(w, map[string]any{"error": "bad_request"})
		return
	}

	if token := bearerToken(r); token != "" {
		s.sessions.Delete(token)
	}

	JSON(w, map[string]any{"success": true})
}

func JSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Error encoding JSON", http.StatusInternalServerError)
		return
	}
}
