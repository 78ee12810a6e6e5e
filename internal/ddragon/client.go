package ddragon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultVersionsURL    = "https://ddragon.leagueoflegends.com/api/versions.json"
	DefaultCDNBase        = "https://ddragon.leagueoflegends.com/cdn"
	DefaultTeamplannerURL = "https://raw.communitydragon.org/latest/plugins/rcp-be-lol-game-data/global/default/v1/tftchampions-teamplanner.json"
	DefaultMetaTFTBase    = "https://cdn.metatft.com/file/metatft/champions/"

	userAgent = "metagrid/1.0"
)

// Options configures upstream endpoints and timeouts
type Options struct {
	VersionsURL    string
	CDNBase        string
	TeamplannerURL string
	MetaTFTBase    string
	Locale         string

	Timeout            time.Duration
	TeamplannerTimeout time.Duration
}

// DefaultOptions returns the public Data Dragon / CommunityDragon endpoints
func DefaultOptions() Options {
	return Options{
		VersionsURL:        DefaultVersionsURL,
		CDNBase:            DefaultCDNBase,
		TeamplannerURL:     DefaultTeamplannerURL,
		MetaTFTBase:        DefaultMetaTFTBase,
		Locale:             "en_US",
		Timeout:            30 * time.Second,
		TeamplannerTimeout: 45 * time.Second,
	}
}

// Client talks to Data Dragon and CommunityDragon
type Client struct {
	client  *http.Client
	planner *http.Client
	opts    Options
}

// NewClient creates a new upstream client. Zero fields of opts fall back to defaults.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.VersionsURL == "" {
		opts.VersionsURL = def.VersionsURL
	}
	if opts.CDNBase == "" {
		opts.CDNBase = def.CDNBase
	}
	if opts.TeamplannerURL == "" {
		opts.TeamplannerURL = def.TeamplannerURL
	}
	if opts.MetaTFTBase == "" {
		opts.MetaTFTBase = def.MetaTFTBase
	}
	if opts.Locale == "" {
		opts.Locale = def.Locale
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.TeamplannerTimeout <= 0 {
		opts.TeamplannerTimeout = def.TeamplannerTimeout
	}
	opts.CDNBase = strings.TrimRight(opts.CDNBase, "/")

	return &Client{
		client:  &http.Client{Timeout: opts.Timeout},
		planner: &http.Client{Timeout: opts.TeamplannerTimeout},
		opts:    opts,
	}
}

// LatestVersion fetches the newest Data Dragon version
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	var versions []string
	if err := c.getJSON(ctx, c.client, c.opts.VersionsURL, &versions); err != nil {
		return "", fmt.Errorf("failed to fetch versions: %w", err)
	}

	if len(versions) == 0 || strings.TrimSpace(versions[0]) == "" {
		return "", fmt.Errorf("no versions available")
	}
	return versions[0], nil
}

func (c *Client) dataURL(version, file string) string {
	return fmt.Sprintf("%s/%s/data/%s/%s", c.opts.CDNBase, version, c.opts.Locale, file)
}

func (c *Client) imageURL(version, dir, file string) string {
	return fmt.Sprintf("%s/%s/img/%s/%s", c.opts.CDNBase, version, dir, file)
}

func (c *Client) getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, url, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return nil
}
