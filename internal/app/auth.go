// internal/app/auth.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
)

// Auth gates the staff dashboard with bearer tokens issued by TokenManager.
type Auth struct {
	enabled       bool
	tokens        *TokenManager
	tokenHeader   string
	allowedEmails []string
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false}, nil
	}

	client, err := connectRedis(config.Auth.RedisURL)
	if err != nil {
		return nil, err
	}

	return newAuthWithClient(client, config), nil
}

// NewStaffTokens opens the token store on its own, for issuing and revoking
// tokens outside the server.
func NewStaffTokens(config *Config) (*TokenManager, error) {
	if config.Auth.RedisURL == "" {
		return nil, fmt.Errorf("auth.redis_url is not set")
	}

	client, err := connectRedis(config.Auth.RedisURL)
	if err != nil {
		return nil, err
	}
	return NewTokenManager(client, config.Auth.TokenKeyTemplate), nil
}

func connectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func newAuthWithClient(client *redis.Client, config *Config) *Auth {
	return &Auth{
		enabled:       true,
		tokens:        NewTokenManager(client, config.Auth.TokenKeyTemplate),
		tokenHeader:   config.Auth.TokenHeader,
		allowedEmails: normalizeEmails(config.Auth.AllowedEmails),
	}
}

func (a *Auth) Enabled() bool {
	return a.enabled
}

func (a *Auth) Close() error {
	if a.tokens != nil {
		return a.tokens.Close()
	}
	return nil
}

// Authorize returns the staff email behind the request. With auth disabled it
// lets everyone through with an empty email.
func (a *Auth) Authorize(r *http.Request) (string, error) {
	if !a.enabled {
		return "", nil
	}

	authHeader := r.Header.Get(a.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", apperror.Forbidden("Invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", apperror.Forbidden("Invalid authorization header format")
	}

	staff, err := a.tokens.LookupStaffToken(r.Context(), token)
	if err != nil {
		logger.Debug.Printf("Staff token lookup failed: %v", err)
		return "", err
	}
	email := staff.Email

	if !EmailAllowed(a.allowedEmails, email) {
		logger.Info.Printf("Rejected staff login for %s", email)
		return "", apperror.Forbidden("This account is not allowed to view submissions.")
	}
	return email, nil
}

// EmailAllowed matches case-insensitively after trimming. An empty allow-list
// admits any signed-in staff member.
func EmailAllowed(allowed []string, email string) bool {
	list := normalizeEmails(allowed)
	if len(list) == 0 {
		return true
	}
	e := strings.ToLower(strings.TrimSpace(email))
	for _, a := range list {
		if a == e {
			return true
		}
	}
	return false
}

func normalizeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}
