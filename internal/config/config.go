// Package config is the single immutable configuration value built
// once at startup and passed explicitly into every constructor.
package config

import (
	"errors"
	"strings"
	"time"
)

// DefaultRelays is the JP relay set the bot lives on.
var DefaultRelays = []string{
	"wss://relay-jp.nostr.wirednet.jp",
	"wss://r.kojira.io",
	"wss://yabu.me",
	"wss://relay-jp.shino3.net",
}

type Config struct {
	// identity
	PrivateKey  string
	OjisanKey   string
	PassportKey string

	Relays   []string
	TestMode bool

	// probabilistic extractor / persona generator
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// monitor watch-lists
	MonitorKeywords     []string
	MonitorNpubs        []string
	MonitorMentionNpubs []string
	DiscordWebhookURL   string

	// room status source
	InfluxURL     string
	InfluxToken   string
	InfluxOrg     string
	InfluxBucket  string
	MyRoomAuthors []string

	// passport schedule; zero disables it
	PassportTarget   string
	PassportInterval time.Duration

	MetricsAddr  string
	RestartAfter time.Duration
}

func (c *Config) Validate() error {
	if c.PrivateKey == "" {
		return errors.New("private key is required")
	}
	if len(c.Relays) == 0 {
		c.Relays = DefaultRelays
	}
	return nil
}

// SplitList parses a comma-separated env value into trimmed entries.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
