package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"watchdog/internal/config"
)

func TestTelegramRequest(t *testing.T) {
	tg := NewTelegram("tg-ops", "chat-42", "secret-token")

	req, err := tg.BuildRequest(context.Background(), "Network DOWN on region region-north")
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != http.MethodGet {
		t.Errorf("method = %s", req.Method)
	}
	if got := req.URL.Path; got != "/botsecret-token/sendMessage" {
		t.Errorf("path = %q", got)
	}

	query := req.URL.Query()
	if got := query.Get("chat_id"); got != "chat-42" {
		t.Errorf("chat_id = %q", got)
	}
	if got := query.Get("parse_mode"); got != "MarkdownV2" {
		t.Errorf("parse_mode = %q", got)
	}
	// Dashes must arrive escaped for MarkdownV2.
	if got := query.Get("text"); got != `Network DOWN on region region\-north` {
		t.Errorf("text = %q", got)
	}
}

func TestSpryngRequest(t *testing.T) {
	sp := NewSpryng("sms-ops", "api-key", []string{"31600000001", "31600000002"})

	req, err := sp.BuildRequest(context.Background(), "Network DOWN on group r1.g1")
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != http.MethodPost {
		t.Errorf("method = %s", req.Method)
	}
	if got := req.URL.String(); got != "https://rest.spryngsms.com/v1/messages" {
		t.Errorf("url = %q", got)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer api-key" {
		t.Errorf("authorization = %q", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("content-type = %q", got)
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"body":       "Network DOWN on group r1.g1",
		"encoding":   "auto",
		"originator": "watchdog",
		"recipients": []any{"31600000001", "31600000002"},
		"route":      "business",
	}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("body = %v, want %v", body, want)
	}
}

func TestManagerAlertByID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	tg := NewTelegram("tg", "chat", "token")
	tg.baseURL = srv.URL
	m := NewManager(tg)

	if err := m.Alert(context.Background(), "tg", "hello"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/bottoken/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestManagerAlertUnknownMedium(t *testing.T) {
	m := NewManager()
	if err := m.Alert(context.Background(), "nope", "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestManagerAlertNoMediumConfigured(t *testing.T) {
	m := NewManager()
	if err := m.Alert(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestManagerAlertNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram("tg", "chat", "token")
	tg.baseURL = srv.URL
	m := NewManager(tg)

	if err := m.Alert(context.Background(), "tg", "hello"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestTriggerAllTestAlerts(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if got := r.URL.Query().Get("text"); got != `This is a watchdog monitoring test message` {
			t.Errorf("text = %q", got)
		}
	}))
	defer srv.Close()

	first := NewTelegram("tg-a", "chat-a", "token-a")
	first.baseURL = srv.URL
	second := NewTelegram("tg-b", "chat-b", "token-b")
	second.baseURL = srv.URL
	m := NewManager(first, second)

	if err := m.TriggerAllTestAlerts(context.Background()); err != nil {
		t.Fatal(err)
	}
	if hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
}

func TestFromConfigTelegram(t *testing.T) {
	t.Setenv("TG_CHAT", "chat-1")
	t.Setenv("TG_TOKEN", "token-1")

	m, err := FromConfig([]config.AlertEntry{{
		Name:     "tg-ops",
		Medium:   "telegram",
		ChatEnv:  "TG_CHAT",
		TokenEnv: "TG_TOKEN",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.mediums["tg-ops"]; !ok {
		t.Error("telegram medium not registered")
	}
}

func TestFromConfigSpryng(t *testing.T) {
	t.Setenv("SMS_TOKEN", "key-1")
	t.Setenv("SMS_TO", "31600000001, 31600000002")

	m, err := FromConfig([]config.AlertEntry{{
		Name:          "sms-ops",
		Medium:        "spryng",
		TokenEnv:      "SMS_TOKEN",
		RecipientsEnv: "SMS_TO",
	}})
	if err != nil {
		t.Fatal(err)
	}
	sp, ok := m.mediums["sms-ops"].(*Spryng)
	if !ok {
		t.Fatal("spryng medium not registered")
	}
	want := []string{"31600000001", "31600000002"}
	if !reflect.DeepEqual(sp.recipients, want) {
		t.Errorf("recipients = %v, want %v", sp.recipients, want)
	}
}

func TestFromConfigMissingEnv(t *testing.T) {
	_, err := FromConfig([]config.AlertEntry{{
		Name:     "tg-ops",
		Medium:   "telegram",
		ChatEnv:  "WATCHDOG_TEST_UNSET_CHAT_ENV",
		TokenEnv: "WATCHDOG_TEST_UNSET_TOKEN_ENV",
	}})
	if err == nil {
		t.Fatal("expected error for unset environment variable")
	}
}

func TestFromConfigUnknownMedium(t *testing.T) {
	_, err := FromConfig([]config.AlertEntry{{Name: "x", Medium: "pigeon"}})
	if err == nil {
		t.Fatal("expected error for unknown medium")
	}
}
