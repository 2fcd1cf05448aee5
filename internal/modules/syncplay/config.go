package syncplay

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds the syncplay module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE"            envDefault:"false"`

	// ServerURL is the base URL of the media server hosting the groups.
	ServerURL string `env:"SYNCPLAY_SERVER_URL,notEmpty"`
	Token     string `env:"SYNCPLAY_TOKEN,notEmpty"`
	ServerID  string `env:"SYNCPLAY_SERVER_ID"`

	CatalogPath  string        `env:"SYNCPLAY_CATALOG_PATH"  envDefault:"syncbot.db"`
	CatalogTTL   time.Duration `env:"SYNCPLAY_CATALOG_TTL"   envDefault:"24h"`
	ReadyTimeout time.Duration `env:"SYNCPLAY_READY_TIMEOUT" envDefault:"15s"`
	EventBuffer  int           `env:"SYNCPLAY_EVENT_BUFFER"  envDefault:"100"`
}

// SocketURL derives the websocket endpoint from ServerURL.
func (c *Config) SocketURL() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("invalid SYNCPLAY_SERVER_URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported SYNCPLAY_SERVER_URL scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/socket"
	return u.String(), nil
}
