package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     "test-key",
		model:      "gpt-4o-mini",
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

func TestGenerateRules(t *testing.T) {
	srv := chatServer(t, `[{"field":"totalSpend","operator":">","value":"5000"}]`)
	c := testClient(srv.URL)

	rules, err := c.GenerateRules(context.Background(), "big spenders")
	if err != nil {
		t.Fatalf("GenerateRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Field != "totalSpend" || rules[0].Value != "5000" {
		t.Errorf("rules = %+v", rules)
	}
}

func TestGenerateRulesStripsMarkdownFence(t *testing.T) {
	srv := chatServer(t, "```json\n[{\"field\":\"visits\",\"operator\":\"<\",\"value\":\"3\"}]\n```")
	c := testClient(srv.URL)

	rules, err := c.GenerateRules(context.Background(), "rare visitors")
	if err != nil {
		t.Fatalf("GenerateRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Field != "visits" {
		t.Errorf("rules = %+v", rules)
	}
}

func TestGenerateMessages(t *testing.T) {
	srv := chatServer(t, `["Hi {name}, welcome back!","Hey {name}, we miss you."]`)
	c := testClient(srv.URL)

	messages, err := c.GenerateMessages(context.Background(), "win back inactive users")
	if err != nil {
		t.Fatalf("GenerateMessages: %v", err)
	}
	if len(messages) != 2 || messages[0] != "Hi {name}, welcome back!" {
		t.Errorf("messages = %v", messages)
	}
}

func TestDisabledWithoutKey(t *testing.T) {
	c := &Client{httpClient: http.DefaultClient}
	if c.Enabled() {
		t.Error("client with no key reports enabled")
	}
	if _, err := c.GenerateRules(context.Background(), "anything"); err != ErrDisabled {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestUpstreamErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model overloaded", "type": "server_error"},
		})
	}))
	t.Cleanup(srv.Close)
	c := testClient(srv.URL)

	if _, err := c.GenerateRules(context.Background(), "x"); err == nil {
		t.Error("expected error from upstream failure")
	}
}
