package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
)

const (
	timeFormat  = "2006-01-02 15:04:05"
	tokenPrefix = "sk-scrdrp-"
)

// TokenManager issues and resolves staff tokens. Each token is a redis hash
// stored under keyTemplate with {token} replaced.
type TokenManager struct {
	redis       *redis.Client
	keyTemplate string
}

func NewTokenManager(redis *redis.Client, keyTemplate string) *TokenManager {
	return &TokenManager{redis: redis, keyTemplate: keyTemplate}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

func (tm *TokenManager) key(token string) string {
	return strings.NewReplacer("{token}", token).Replace(tm.keyTemplate)
}

func (tm *TokenManager) IssueStaffToken(ctx context.Context, email string) (*models.StaffToken, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "staff email is required")
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now().UTC()
	err = tm.redis.HSet(ctx, tm.key(token), map[string]interface{}{
		"email":                 email,
		"request_count":         0,
		"last_request_dttm_utc": "",
		"created_dttm_utc":      now.Format(timeFormat),
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &models.StaffToken{
		Token:       token,
		Email:       email,
		CreatedTime: now.Truncate(time.Second),
	}, nil
}

// LookupStaffToken resolves a token and records the request against it.
func (tm *TokenManager) LookupStaffToken(ctx context.Context, token string) (*models.StaffToken, error) {
	key := tm.key(token)

	values, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token info: %w", err)
	}
	if strings.TrimSpace(values["email"]) == "" {
		return nil, apperror.Forbidden("token not found")
	}

	now := time.Now().UTC()
	pipe := tm.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update token stats: %w", err)
	}

	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &models.StaffToken{
		Token:           token,
		Email:           strings.TrimSpace(values["email"]),
		RequestCount:    reqCount + 1,
		LastRequestTime: now.Truncate(time.Second),
		CreatedTime:     createdTime,
	}, nil
}

func (tm *TokenManager) RevokeStaffToken(ctx context.Context, token string) error {
	n, err := tm.redis.Del(ctx, tm.key(token)).Result()
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("staff token", token)
	}
	return nil
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}
