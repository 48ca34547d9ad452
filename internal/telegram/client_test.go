package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestAPIClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", server.Client())
}

func TestGetUpdatesSendsOffsetAndDecodes(t *testing.T) {
	client := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/getUpdates" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["offset"] != float64(42) {
			t.Fatalf("offset = %v, want 42", body["offset"])
		}
		if body["timeout"] != float64(10) {
			t.Fatalf("timeout = %v, want 10", body["timeout"])
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":43,"message":{"message_id":1,"chat":{"id":7},"text":"/start"}}]}`))
	})

	updates, err := client.GetUpdates(context.Background(), 42, 10*time.Second)
	if err != nil {
		t.Fatalf("get updates: %v", err)
	}
	if len(updates) != 1 || updates[0].UpdateID != 43 {
		t.Fatalf("updates = %+v", updates)
	}
	if updates[0].Message == nil || updates[0].Message.Chat.ID != 7 {
		t.Fatalf("message = %+v", updates[0].Message)
	}
}

func TestSendMessageDefaultsToHTML(t *testing.T) {
	client := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["parse_mode"] != "HTML" {
			t.Fatalf("parse_mode = %v, want HTML", body["parse_mode"])
		}
		if body["chat_id"] != "7" {
			t.Fatalf("chat_id = %v", body["chat_id"])
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	err := client.SendMessage(context.Background(), OutgoingMessage{ChatID: "7", Text: "hello"})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
}

func TestCallSurfacesAPIDescription(t *testing.T) {
	client := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})

	err := client.SendMessage(context.Background(), OutgoingMessage{ChatID: "0", Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v, want API description", err)
	}
}

func TestGetMeDecodesAccount(t *testing.T) {
	client := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/getMe" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"username":"forgewatch_bot"}}`))
	})

	account, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("get me: %v", err)
	}
	if account.Username != "forgewatch_bot" {
		t.Fatalf("username = %q", account.Username)
	}
}

func TestMentionHTMLPrefersFirstName(t *testing.T) {
	mention := MentionHTML(Account{ID: 9, FirstName: "Ana", Username: "ana_dev"})
	if mention != `<a href="tg://user?id=9">Ana</a>` {
		t.Fatalf("mention = %q", mention)
	}

	fallback := MentionHTML(Account{ID: 9})
	if !strings.Contains(fallback, "there") {
		t.Fatalf("fallback mention = %q", fallback)
	}
}

func TestDeepLinkStripsAtSign(t *testing.T) {
	link := DeepLink("@forgewatch_bot", "token123")
	if link != "https://t.me/forgewatch_bot?start=token123" {
		t.Fatalf("link = %q", link)
	}
}
