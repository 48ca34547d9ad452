package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeRepositoryNameEmpty, "repository name is required")

	if !errors.Is(err, New(CodeRepositoryNameEmpty, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if errors.Is(err, New(CodeRepositoryAuthorEmpty, "repository name is required")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeRepositoryLinkInvalid, "verify repository link", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "verify repository link" {
		t.Fatalf("message = %q, want %q", err.Error(), "verify repository link")
	}
}

func TestCodeOfWalksChains(t *testing.T) {
	inner := New(CodeLinkTokenExpired, "token expired")
	outer := fmt.Errorf("verify deep link: %w", inner)

	if got := CodeOf(outer); got != CodeLinkTokenExpired {
		t.Fatalf("code = %q, want %q", got, CodeLinkTokenExpired)
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}

func TestWithMetadataCarriesContext(t *testing.T) {
	err := WithMetadata(CodeRepositoryLinkMismatch, "name not in link", map[string]string{
		"name": "tracker",
		"link": "https://github.com/acme/other",
	})
	if err.Metadata["name"] != "tracker" {
		t.Fatalf("metadata name = %q, want %q", err.Metadata["name"], "tracker")
	}
}
