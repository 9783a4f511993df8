// Package discord delivers embed payloads to a single webhook URL.
package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type Footer struct {
	Text string `json:"text"`
}

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Webhook struct {
	url  string
	http *retryablehttp.Client
}

func NewWebhook(url string) *Webhook {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &Webhook{url: url, http: client}
}

// Send posts one embed. Transient failures are retried by the client;
// a final failure is returned to the caller to log.
func (w *Webhook) Send(embed Embed) error {
	body, err := json.Marshal(map[string]any{"embeds": []Embed{embed}})
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post: status %d", resp.StatusCode)
	}
	return nil
}
