package linktoken

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	apperrors "github.com/forgewatch/forgewatch/internal/platform/errors"
)

func testConfig(t *testing.T, now time.Time) Config {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	return Config{
		Issuer:   "forgewatch",
		Audience: "forgewatch-bot",
		Private:  priv,
		Public:   pub,
		TTL:      time.Hour,
		Now:      func() time.Time { return now },
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	cfg := testConfig(t, now)

	token, err := cfg.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := cfg.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("user id = %q, want user-1", userID)
	}
}

func TestVerifyRejectsExpiredTokens(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	cfg := testConfig(t, now)

	token, err := cfg.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cfg.Now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = cfg.Verify(token)
	if apperrors.CodeOf(err) != apperrors.CodeLinkTokenExpired {
		t.Fatalf("err = %v, want code %s", err, apperrors.CodeLinkTokenExpired)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	signer := testConfig(t, now)
	verifier := testConfig(t, now)

	token, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = verifier.Verify(token)
	if apperrors.CodeOf(err) != apperrors.CodeLinkTokenInvalid {
		t.Fatalf("err = %v, want code %s", err, apperrors.CodeLinkTokenInvalid)
	}
}

func TestVerifyRejectsAudienceMismatch(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	cfg := testConfig(t, now)

	token, err := cfg.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cfg.Audience = "another-bot"
	_, err = cfg.Verify(token)
	if apperrors.CodeOf(err) != apperrors.CodeLinkTokenMismatch {
		t.Fatalf("err = %v, want code %s", err, apperrors.CodeLinkTokenMismatch)
	}
}

func TestIssueRequiresSigner(t *testing.T) {
	cfg := Config{Issuer: "forgewatch", Audience: "forgewatch-bot"}
	if _, err := cfg.Issue("user-1"); err == nil {
		t.Fatal("expected error without a private key")
	}
	if _, err := cfg.Issue(" "); err == nil {
		t.Fatal("expected error for blank user id")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	t.Setenv("FORGEWATCH_LINK_TOKEN_ISSUER", "issuer")
	t.Setenv("FORGEWATCH_LINK_TOKEN_AUDIENCE", "audience")
	t.Setenv("FORGEWATCH_LINK_TOKEN_PRIVATE_KEY", base64.StdEncoding.EncodeToString(priv))
	t.Setenv("FORGEWATCH_LINK_TOKEN_PUBLIC_KEY", base64.StdEncoding.EncodeToString(pub))
	t.Setenv("FORGEWATCH_LINK_TOKEN_TTL", "30m")

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Issuer != "issuer" || cfg.Audience != "audience" {
		t.Fatalf("identity = %q/%q", cfg.Issuer, cfg.Audience)
	}
	if cfg.TTL != 30*time.Minute {
		t.Fatalf("ttl = %v, want 30m", cfg.TTL)
	}

	token, err := cfg.Issue("user-9")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := cfg.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-9" {
		t.Fatalf("user id = %q", userID)
	}
}

func TestLoadConfigDerivesPublicFromPrivate(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	t.Setenv("FORGEWATCH_LINK_TOKEN_PRIVATE_KEY", base64.StdEncoding.EncodeToString(priv))
	t.Setenv("FORGEWATCH_LINK_TOKEN_PUBLIC_KEY", "")

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Public) != ed25519.PublicKeySize {
		t.Fatalf("public key len = %d", len(cfg.Public))
	}
}

func TestLoadConfigRejectsBadKeyMaterial(t *testing.T) {
	t.Setenv("FORGEWATCH_LINK_TOKEN_PRIVATE_KEY", "not-base64!!!")
	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected error for undecodable key")
	}

	t.Setenv("FORGEWATCH_LINK_TOKEN_PRIVATE_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected error for wrong-sized key")
	}
}

func TestGenerateKeysRoundTrip(t *testing.T) {
	pub, priv, err := GenerateKeys()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	t.Setenv("FORGEWATCH_LINK_TOKEN_PRIVATE_KEY", priv)
	t.Setenv("FORGEWATCH_LINK_TOKEN_PUBLIC_KEY", pub)

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	token, err := cfg.Issue("user-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := cfg.Verify(token); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
