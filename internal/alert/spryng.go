package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const spryngAPI = "https://rest.spryngsms.com"

// Spryng sends alerts as SMS through the Spryng REST API.
type Spryng struct {
	id         string
	token      string
	recipients []string
	baseURL    string
}

func NewSpryng(id, token string, recipients []string) *Spryng {
	return &Spryng{id: id, token: token, recipients: recipients, baseURL: spryngAPI}
}

func (s *Spryng) ID() string {
	return s.id
}

func (s *Spryng) BuildRequest(ctx context.Context, message string) (*http.Request, error) {
	body, err := json.Marshal(map[string]any{
		"body":       message,
		"encoding":   "auto",
		"originator": "watchdog",
		"recipients": s.recipients,
		"route":      "business",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal spryng body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
