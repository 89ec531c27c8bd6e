package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Game holds the asset catalog and game settings loaded once at startup.
// A missing or malformed game config is fatal: the simulation cannot run
// without an asset catalog.
type Game struct {
	GameSettings GameSettings `json:"game_settings"`
	Colors       []Color      `json:"colors"`
}

type GameSettings struct {
	StartingCash int64 `json:"starting_cash"`
	MaxTrades    int   `json:"max_trades"`
}

type Color struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

type APIConfig struct {
	Addr        string
	ConfigPath  string
	DataDir     string
	DatabaseURL string
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() APIConfig {
	_ = godotenv.Load()

	addr := strings.TrimSpace(os.Getenv("PORT"))
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("COLORX_API_ADDR", ":8080")
	}

	return APIConfig{
		Addr:        addr,
		ConfigPath:  envDefault("COLORX_CONFIG", "config.json"),
		DataDir:     envDefault("COLORX_DATA_DIR", "database"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}
}

func LoadCLIFromEnv() CLIConfig {
	_ = godotenv.Load()
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("CLX_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

// LoadGame reads and validates the game config file.
func LoadGame(path string) (Game, error) {
	var g Game
	raw, err := os.ReadFile(path)
	if err != nil {
		return g, fmt.Errorf("read game config: %w", err)
	}
	if err := json.Unmarshal(raw, &g); err != nil {
		return g, fmt.Errorf("parse game config: %w", err)
	}
	if err := g.Validate(); err != nil {
		return g, fmt.Errorf("invalid game config: %w", err)
	}
	return g, nil
}

func (g Game) Validate() error {
	if g.GameSettings.StartingCash <= 0 {
		return fmt.Errorf("starting_cash must be > 0")
	}
	if g.GameSettings.MaxTrades <= 0 {
		return fmt.Errorf("max_trades must be > 0")
	}
	if len(g.Colors) == 0 {
		return fmt.Errorf("at least one color is required")
	}
	seen := map[string]bool{}
	for _, c := range g.Colors {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("color name cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate color %q", name)
		}
		seen[name] = true
	}
	return nil
}

// ColorNames returns asset names in catalog order.
func (g Game) ColorNames() []string {
	out := make([]string, 0, len(g.Colors))
	for _, c := range g.Colors {
		out = append(out, c.Name)
	}
	return out
}

func (g Game) EmojiFor(name string) string {
	for _, c := range g.Colors {
		if c.Name == name {
			return c.Emoji
		}
	}
	return ""
}

func (g Game) HasColor(name string) bool {
	for _, c := range g.Colors {
		if c.Name == name {
			return true
		}
	}
	return false
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
