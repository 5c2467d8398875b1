package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, decoded from TOML. A missing file is
// created with defaults rather than treated as an error.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	NetworkName   string `toml:"NetworkName"`
	Environment   string `toml:"Environment"`

	// Authority is the hex identity allowed to run treasury and automation
	// administration. Mutating calls compare against it. Ignored when
	// KeystorePath is set.
	Authority string `toml:"Authority"`

	// KeystorePath points at an encrypted v3 keystore file holding the
	// authority key. A missing file is created with a fresh key on first
	// start; the passphrase comes from the environment.
	KeystorePath string `toml:"KeystorePath"`

	// Fee-rate overrides in basis points. Zero values fall back to the
	// protocol defaults at initialization.
	DistributionFeeBps uint32 `toml:"DistributionFeeBps"`
	YieldFeeBps        uint32 `toml:"YieldFeeBps"`
	ManagementFeeBps   uint32 `toml:"ManagementFeeBps"`

	// TriggerMinInterval is the global automation rate limit in seconds.
	TriggerMinInterval uint64 `toml:"TriggerMinInterval"`
}

// Load reads the configuration at path, creating a default file when absent.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	applyFallbacks(cfg)
	return cfg, nil
}

func applyFallbacks(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8650"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./tandadata"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "tanda-local"
	}
	if cfg.TriggerMinInterval == 0 {
		cfg.TriggerMinInterval = 60
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyFallbacks(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
