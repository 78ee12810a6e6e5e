package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"metagrid/internal/grid"
	"metagrid/internal/tier"
)

// ErrInvalidConfig is returned when a configuration fails validation
var ErrInvalidConfig = errors.New("invalid config")

// Store kinds
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StoreLibSQL   = "libsql"
	StorePostgres = "postgres"
)

type Config struct {
	Cache    CacheConfig     `yaml:"cache"`
	Upstream UpstreamConfig  `yaml:"upstream"`
	Resolve  ResolveConfig   `yaml:"resolve"`
	Tiers    tier.Thresholds `yaml:"tiers"`
	Layout   LayoutConfig    `yaml:"layout"`
	Output   OutputConfig    `yaml:"output"`
}

type CacheConfig struct {
	Dir   string `yaml:"dir"`
	Store string `yaml:"store"`
	// DSN is a file path for sqlite, a database URL for libsql and postgres
	DSN           string        `yaml:"dsn"`
	AuthToken     string        `yaml:"auth_token"`
	VersionMaxAge time.Duration `yaml:"version_max_age"`
	PruneAfter    time.Duration `yaml:"prune_after"`
}

type UpstreamConfig struct {
	VersionsURL        string        `yaml:"versions_url"`
	CDNBase            string        `yaml:"cdn_base"`
	TeamplannerURL     string        `yaml:"teamplanner_url"`
	MetaTFTBase        string        `yaml:"metatft_base"`
	Locale             string        `yaml:"locale"`
	SetKey             string        `yaml:"set_key"`
	Timeout            time.Duration `yaml:"timeout"`
	TeamplannerTimeout time.Duration `yaml:"teamplanner_timeout"`
}

type ResolveConfig struct {
	Threshold float64 `yaml:"threshold"`
	// Aliases maps catalog kind (items, traits, characters) to literal -> target name
	Aliases map[string]map[string]string `yaml:"aliases"`
}

type LayoutConfig struct {
	MinChampionColumns int         `yaml:"min_champion_columns"`
	ItemsPerChampion   int         `yaml:"items_per_champion"`
	Header             grid.Header `yaml:"header"`
	PortraitSize       int         `yaml:"portrait_size"`
	ItemSize           int         `yaml:"item_size"`
	SynergySize        int         `yaml:"synergy_size"`
	KeepSynergyRows    bool        `yaml:"keep_synergy_rows"`
}

type OutputConfig struct {
	SpreadsheetID string        `yaml:"spreadsheet_id"`
	SheetName     string        `yaml:"sheet_name"`
	SheetID       int64         `yaml:"sheet_id"`
	WebSocketURL  string        `yaml:"websocket_url"`
	AckTimeout    time.Duration `yaml:"ack_timeout"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir:           defaultCacheDir(),
			Store:         StoreFile,
			VersionMaxAge: 24 * time.Hour,
			PruneAfter:    30 * 24 * time.Hour,
		},
		Upstream: UpstreamConfig{
			VersionsURL:        "https://ddragon.leagueoflegends.com/api/versions.json",
			CDNBase:            "https://ddragon.leagueoflegends.com/cdn",
			TeamplannerURL:     "https://raw.communitydragon.org/latest/plugins/rcp-be-lol-game-data/global/default/v1/tftchampions-teamplanner.json",
			MetaTFTBase:        "https://cdn.metatft.com/file/metatft/champions/",
			Locale:             "en_US",
			Timeout:            30 * time.Second,
			TeamplannerTimeout: 45 * time.Second,
		},
		Resolve: ResolveConfig{Threshold: 0.88},
		Tiers:   tier.DefaultThresholds(),
		Layout: LayoutConfig{
			MinChampionColumns: 1,
			ItemsPerChampion:   3,
			Header:             grid.DefaultHeader(),
		},
		Output: OutputConfig{
			SheetName:  "Meta TFT",
			AckTimeout: 30 * time.Second,
		},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "metagrid")
	}
	return filepath.Join(".cache", "metagrid")
}

// Load reads the YAML file at path over the defaults, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("loading config: %w: %w", ErrInvalidConfig, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads the first .env file found among paths and returns it
func LoadDotEnv(paths ...string) (string, bool) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// ApplyEnv overrides settings from environment variables read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := strings.TrimSpace(getenv(key)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Cache.Dir, "METAGRID_CACHE_DIR")
	set(&c.Cache.Store, "METAGRID_STORE")
	set(&c.Cache.DSN, "METAGRID_DSN")
	set(&c.Cache.AuthToken, "METAGRID_AUTH_TOKEN", "TURSO_AUTH_TOKEN")
	set(&c.Upstream.SetKey, "TFT_SET_KEY")
	set(&c.Output.SpreadsheetID, "METAGRID_SPREADSHEET_ID")
	set(&c.Output.SheetName, "METAGRID_SHEET_NAME")
	set(&c.Output.WebSocketURL, "METAGRID_WS_URL")

	c.Cache.Store = strings.ToLower(c.Cache.Store)
}

// StoreDSN returns the DSN to open the configured store with. A sqlite store without a
// DSN lives in the cache directory.
func (c *Config) StoreDSN() string {
	if c.Cache.Store == StoreSQLite && c.Cache.DSN == "" {
		return filepath.Join(c.Cache.Dir, "catalogs.db")
	}
	return c.Cache.DSN
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	switch c.Cache.Store {
	case StoreMemory, StoreFile, StoreSQLite:
	case StoreLibSQL, StorePostgres:
		if strings.TrimSpace(c.Cache.DSN) == "" {
			return fmt.Errorf("%w: store %q requires a dsn", ErrInvalidConfig, c.Cache.Store)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Cache.Store)
	}
	if c.Cache.Store != StoreMemory && strings.TrimSpace(c.Cache.Dir) == "" {
		return fmt.Errorf("%w: cache dir is required", ErrInvalidConfig)
	}
	if c.Cache.VersionMaxAge < 0 {
		return fmt.Errorf("%w: version_max_age must not be negative", ErrInvalidConfig)
	}
	if c.Upstream.Timeout <= 0 || c.Upstream.TeamplannerTimeout <= 0 {
		return fmt.Errorf("%w: upstream timeouts must be positive", ErrInvalidConfig)
	}
	if c.Resolve.Threshold <= 0 || c.Resolve.Threshold > 1 {
		return fmt.Errorf("%w: resolve threshold must be in (0, 1], got %v", ErrInvalidConfig, c.Resolve.Threshold)
	}
	for kind := range c.Resolve.Aliases {
		switch kind {
		case "items", "traits", "characters", "champions":
		default:
			return fmt.Errorf("%w: aliases for unknown kind %q", ErrInvalidConfig, kind)
		}
	}
	if err := c.Tiers.Validate(); err != nil {
		return fmt.Errorf("%w: tiers: %w", ErrInvalidConfig, err)
	}
	if c.Layout.MinChampionColumns < 1 {
		return fmt.Errorf("%w: min_champion_columns must be at least 1", ErrInvalidConfig)
	}
	if c.Layout.ItemsPerChampion < 1 {
		return fmt.Errorf("%w: items_per_champion must be at least 1", ErrInvalidConfig)
	}
	if c.Layout.PortraitSize < 0 || c.Layout.ItemSize < 0 || c.Layout.SynergySize < 0 {
		return fmt.Errorf("%w: image sizes must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Output.SheetName) == "" {
		return fmt.Errorf("%w: sheet name is required", ErrInvalidConfig)
	}
	if u := c.Output.WebSocketURL; u != "" && !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
		return fmt.Errorf("%w: websocket url must start with ws:// or wss://", ErrInvalidConfig)
	}
	return nil
}
