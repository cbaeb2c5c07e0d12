package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoTokenSecret = errors.New("OPS_JWT_SECRET is not configured")

// TokenService issues HS256 access tokens for the ops HTTP API. The subject
// is the admin's chat id.
type TokenService struct {
	cfg *config.Config
	now Clock
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{cfg: cfg, now: time.Now}
}

func (s *TokenService) Issue(userID int64, ttl time.Duration) (string, error) {
	if s.cfg.OpsJWTSecret == "" {
		return "", ErrNoTokenSecret
	}
	if ttl <= 0 {
		ttl = s.cfg.OpsTokenTTL
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.OpsJWTSecret))
}
