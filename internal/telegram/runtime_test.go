package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/forgewatch/forgewatch/internal/linktoken"
)

func TestRunRuntimeRequiresToken(t *testing.T) {
	err := RunRuntime(context.Background(), RuntimeConfig{})
	if err == nil || !strings.Contains(err.Error(), "token is required") {
		t.Fatalf("err = %v, want token requirement", err)
	}
}

func TestRunRuntimeRequiresLinkTokenKeys(t *testing.T) {
	err := RunRuntime(context.Background(), RuntimeConfig{Token: "bot-token"})
	if err == nil || !strings.Contains(err.Error(), "link token keys") {
		t.Fatalf("err = %v, want link token key requirement", err)
	}
}

func TestRunRuntimeRejectsUnknownLanguage(t *testing.T) {
	_, private, err := linktoken.GenerateKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	t.Setenv("FORGEWATCH_LINK_TOKEN_PRIVATE_KEY", private)
	tokens, err := linktoken.LoadConfigFromEnv(time.Now)
	if err != nil {
		t.Fatalf("load link token config: %v", err)
	}

	err = RunRuntime(context.Background(), RuntimeConfig{
		Token:      "bot-token",
		DBPath:     t.TempDir() + "/tracker.db",
		Language:   "not-a-language",
		LinkTokens: tokens,
	})
	if err == nil || !strings.Contains(err.Error(), "parse bot language") {
		t.Fatalf("err = %v, want language parse failure", err)
	}
}
