// Package linktoken issues and verifies the signed deep-link tokens that tie
// a web account to a telegram chat. Tokens are EdDSA-signed JWTs carried in
// the bot's /start payload.
package linktoken

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
)

// DefaultTTL bounds how long a generated deep link stays valid.
const DefaultTTL = 24 * time.Hour

type tokenEnv struct {
	Issuer     string        `env:"FORGEWATCH_LINK_TOKEN_ISSUER" envDefault:"forgewatch"`
	Audience   string        `env:"FORGEWATCH_LINK_TOKEN_AUDIENCE" envDefault:"forgewatch-bot"`
	PrivateKey string        `env:"FORGEWATCH_LINK_TOKEN_PRIVATE_KEY"`
	PublicKey  string        `env:"FORGEWATCH_LINK_TOKEN_PUBLIC_KEY"`
	TTL        time.Duration `env:"FORGEWATCH_LINK_TOKEN_TTL" envDefault:"24h"`
}

// Config defines how link tokens are signed and verified. Private may be nil
// on verify-only deployments (the bot); Public may be nil on sign-only ones.
type Config struct {
	Issuer   string
	Audience string
	Private  ed25519.PrivateKey
	Public   ed25519.PublicKey
	TTL      time.Duration
	Now      func() time.Time
}

type linkClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// LoadConfigFromEnv reads link token configuration from the environment.
// Keys are base64-encoded raw ed25519 key bytes; either side may be absent.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse link token env: %w", err)
	}
	cfg := Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		TTL:      raw.TTL,
		Now:      now,
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	if key := strings.TrimSpace(raw.PrivateKey); key != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			return Config{}, fmt.Errorf("decode link token private key: %w", err)
		}
		if len(keyBytes) != ed25519.PrivateKeySize {
			return Config{}, fmt.Errorf("link token private key must be %d bytes", ed25519.PrivateKeySize)
		}
		cfg.Private = ed25519.PrivateKey(keyBytes)
	}
	if key := strings.TrimSpace(raw.PublicKey); key != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			return Config{}, fmt.Errorf("decode link token public key: %w", err)
		}
		if len(keyBytes) != ed25519.PublicKeySize {
			return Config{}, fmt.Errorf("link token public key must be %d bytes", ed25519.PublicKeySize)
		}
		cfg.Public = ed25519.PublicKey(keyBytes)
	}
	if cfg.Private != nil && cfg.Public == nil {
		cfg.Public = cfg.Private.Public().(ed25519.PublicKey)
	}
	return cfg, nil
}

// Issue signs a link token for a user id.
func (c Config) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if len(c.Private) != ed25519.PrivateKeySize {
		return "", errors.New("link token signer is not configured")
	}
	now := c.now()()
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claims := linkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Audience:  jwt.ClaimStrings{c.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(c.Private)
	if err != nil {
		return "", fmt.Errorf("sign link token: %w", err)
	}
	return signed, nil
}

// Verify validates a link token and returns the user id it was issued for.
func (c Config) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.New(apperrors.CodeLinkTokenInvalid, "link token is required")
	}
	if len(c.Public) != ed25519.PublicKeySize {
		return "", errors.New("link token verifier is not configured")
	}

	var parsed linkClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return c.Public, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithTimeFunc(c.now()),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperrors.Wrap(apperrors.CodeLinkTokenExpired, "link token expired", err)
		}
		return "", apperrors.Wrap(apperrors.CodeLinkTokenInvalid, "link token is invalid", err)
	}

	if c.Issuer != "" && parsed.Issuer != c.Issuer {
		return "", apperrors.New(apperrors.CodeLinkTokenMismatch, "link token issuer mismatch")
	}
	if c.Audience != "" && !containsAudience(parsed.Audience, c.Audience) {
		return "", apperrors.New(apperrors.CodeLinkTokenMismatch, "link token audience mismatch")
	}
	userID := strings.TrimSpace(parsed.UserID)
	if userID == "" {
		return "", apperrors.New(apperrors.CodeLinkTokenInvalid, "link token has no user")
	}
	return userID, nil
}

func (c Config) now() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

func containsAudience(audience jwt.ClaimStrings, expected string) bool {
	for _, value := range audience {
		if value == expected {
			return true
		}
	}
	return false
}

// GenerateKeys creates a fresh ed25519 keypair, base64-encoded for env use.
func GenerateKeys() (publicKey, privateKey string, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", "", fmt.Errorf("generate link token keys: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub), base64.StdEncoding.EncodeToString(priv), nil
}
