package wynn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	wynnBaseURL   = "https://api.wynncraft.com/public_api.php"
	mojangBaseURL = "https://api.mojang.com"
)

// Client is a Wynncraft/Mojang API client with rate limiting
type Client struct {
	httpClient *http.Client

	// Simple rate limiter
	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewClient creates a new API client
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		minInterval: 200 * time.Millisecond,
	}
}

// RequestInfo is the metadata attached to every Wynncraft response.
type RequestInfo struct {
	Timestamp int64 `json:"timestamp"`
	Version   int   `json:"version"`
}

// GuildMember is one row of the in-game guild roster.
type GuildMember struct {
	Name        string `json:"name"`
	UUID        string `json:"uuid"`
	Rank        string `json:"rank"`
	Contributed int64  `json:"contributed"`
	Joined      string `json:"joined"`
}

// Guild is the guild stats response.
type Guild struct {
	Name        string        `json:"name"`
	Prefix      string        `json:"prefix"`
	Members     []GuildMember `json:"members"`
	XP          float64       `json:"xp"`
	Level       int           `json:"level"`
	Territories int           `json:"territories"`
	Request     RequestInfo   `json:"request"`
}

// ServerList is the online players response: worlds with their
// players, plus the request metadata.
type ServerList struct {
	Worlds  map[string][]string
	Request RequestInfo
}

// doRequest performs an HTTP request with rate limiting
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.minInterval {
		time.Sleep(c.minInterval - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Handle rate limiting (429)
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		time.Sleep(1 * time.Second)
		return c.httpClient.Do(req)
	}

	return resp, nil
}

// get performs a GET request and decodes the JSON response
func (c *Client) get(ctx context.Context, url string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetGuildStats retrieves the guild's current stats and roster
func (c *Client) GetGuildStats(ctx context.Context, guildName string) (*Guild, error) {
	endpoint := fmt.Sprintf("%s?action=guildStats&command=%s",
		wynnBaseURL, url.QueryEscape(guildName))

	var guild Guild
	if err := c.get(ctx, endpoint, &guild); err != nil {
		return nil, fmt.Errorf("failed to get guild stats: %w", err)
	}

	return &guild, nil
}

// GetOnlinePlayers retrieves the current list of online players per
// world. Lobby servers are filtered out.
func (c *Client) GetOnlinePlayers(ctx context.Context) (*ServerList, error) {
	endpoint := wynnBaseURL + "?action=onlinePlayers"

	var raw map[string]json.RawMessage
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("failed to get online players: %w", err)
	}

	list := &ServerList{Worlds: make(map[string][]string)}
	for key, value := range raw {
		if key == "request" {
			if err := json.Unmarshal(value, &list.Request); err != nil {
				return nil, fmt.Errorf("failed to decode server list metadata: %w", err)
			}
			continue
		}
		// Only game worlds carry player lists worth tracking.
		if !strings.HasPrefix(key, "WC") {
			continue
		}
		var players []string
		if err := json.Unmarshal(value, &players); err != nil {
			continue
		}
		list.Worlds[key] = players
	}

	if list.Request.Timestamp == 0 {
		return nil, fmt.Errorf("server list response has no request metadata")
	}

	return list, nil
}

type mojangProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetIgnID resolves an ign to its minecraft id (dashed form) via the
// Mojang API.
func (c *Client) GetIgnID(ctx context.Context, ign string) (string, error) {
	if !IsValidIgn(ign) {
		return "", fmt.Errorf("invalid ign: %q", ign)
	}

	endpoint := fmt.Sprintf("%s/users/profiles/minecraft/%s", mojangBaseURL, url.PathEscape(ign))

	var profile mojangProfile
	if err := c.get(ctx, endpoint, &profile); err != nil {
		return "", fmt.Errorf("failed to get ign id: %w", err)
	}

	id, ok := IDDashed(profile.ID)
	if !ok {
		return "", fmt.Errorf("malformed minecraft id in response: %q", profile.ID)
	}
	return id, nil
}

// IsValidIgn reports whether a string is a well-formed minecraft ign:
// 3 to 16 characters, alphanumerics and underscore only.
func IsValidIgn(ign string) bool {
	if len(ign) < 3 || len(ign) > 16 {
		return false
	}
	for _, ch := range ign {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '_':
		default:
			return false
		}
	}
	return true
}

// IDDashed converts a 32 character minecraft id into its dashed form.
func IDDashed(id string) (string, bool) {
	if len(id) != 32 {
		return "", false
	}
	return strings.Join([]string{
		id[0:8], id[8:12], id[12:16], id[16:20], id[20:32],
	}, "-"), true
}
