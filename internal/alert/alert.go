// Package alert fans incident notifications out to configured mediums.
// A medium only builds an unsent HTTP request; the manager owns the client,
// sends the request and checks the status, so transport concerns never leak
// into the individual mediums.
package alert

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"watchdog/internal/config"
)

const testMessage = "This is a watchdog monitoring test message"

// Medium is one outbound alert channel.
type Medium interface {
	ID() string
	BuildRequest(ctx context.Context, message string) (*http.Request, error)
}

// Manager holds the medium registry and dispatches alerts.
type Manager struct {
	mediums map[string]Medium
	client  *http.Client
}

// NewManager creates a manager over the given mediums.
func NewManager(mediums ...Medium) *Manager {
	m := &Manager{
		mediums: make(map[string]Medium),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, medium := range mediums {
		m.Add(medium)
	}
	return m
}

// Add registers a medium under its id.
func (m *Manager) Add(medium Medium) {
	m.mediums[medium.ID()] = medium
}

// FromConfig builds the registry from alert config entries. A declared
// medium with a missing secret is a fatal configuration error.
func FromConfig(entries []config.AlertEntry) (*Manager, error) {
	manager := NewManager()

	for _, entry := range entries {
		switch entry.Medium {
		case "telegram":
			chat, err := requireEnv(entry, entry.ChatEnv, "chat_env")
			if err != nil {
				return nil, err
			}
			token, err := requireEnv(entry, entry.TokenEnv, "token_env")
			if err != nil {
				return nil, err
			}
			manager.Add(NewTelegram(entry.Name, chat, token))

		case "spryng":
			recipients, err := requireEnv(entry, entry.RecipientsEnv, "recipients_env")
			if err != nil {
				return nil, err
			}
			token, err := requireEnv(entry, entry.TokenEnv, "token_env")
			if err != nil {
				return nil, err
			}
			var trimmed []string
			for _, recipient := range strings.Split(recipients, ",") {
				trimmed = append(trimmed, strings.TrimSpace(recipient))
			}
			manager.Add(NewSpryng(entry.Name, token, trimmed))

		default:
			return nil, fmt.Errorf("unknown alert medium %q in entry %q", entry.Medium, entry.Name)
		}
	}
	return manager, nil
}

func requireEnv(entry config.AlertEntry, envName, field string) (string, error) {
	if envName == "" {
		return "", fmt.Errorf("alert entry %q: %s is required for medium %q", entry.Name, field, entry.Medium)
	}
	value, ok := os.LookupEnv(envName)
	if !ok || value == "" {
		return "", fmt.Errorf("alert entry %q: environment variable %s is not set", entry.Name, envName)
	}
	return value, nil
}

// Alert sends a message through the named medium, or through any registered
// medium when mediumID is empty. A non-2xx response surfaces as an error.
func (m *Manager) Alert(ctx context.Context, mediumID, message string) error {
	var medium Medium
	if mediumID != "" {
		found, ok := m.mediums[mediumID]
		if !ok {
			return fmt.Errorf("alert medium %q not found", mediumID)
		}
		medium = found
	} else {
		for _, any := range m.mediums {
			medium = any
			break
		}
		if medium == nil {
			return fmt.Errorf("no alert medium configured")
		}
	}

	req, err := medium.BuildRequest(ctx, message)
	if err != nil {
		return fmt.Errorf("build alert request for medium %s: %w", medium.ID(), err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send alert to medium %s: %w", medium.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("expected HTTP OK, received %d from medium %s", resp.StatusCode, medium.ID())
	}
	return nil
}

// TriggerAllTestAlerts sends a canned test message to every medium.
func (m *Manager) TriggerAllTestAlerts(ctx context.Context) error {
	for id := range m.mediums {
		if err := m.Alert(ctx, id, testMessage); err != nil {
			return err
		}
	}
	return nil
}
