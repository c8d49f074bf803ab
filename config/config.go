package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultListenAddress = ":8080"
	DefaultDataDir       = "./learn-data"
	DefaultChainID       = uint64(7701)
	DefaultEnvironment   = "local"
	DefaultTokenSymbol   = "LEARN"

	defaultRequestsPerMinute = 600
	defaultBurst             = 60
	defaultReadHeaderSecs    = 5
	defaultReadSecs          = 15
	defaultWriteSecs         = 15
	defaultIdleSecs          = 60
	defaultMaxBodyBytes      = 1 << 20
)

// Config is the learnd daemon configuration.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	ChainID       uint64 `toml:"ChainID"`
	Environment   string `toml:"Environment"`
	LogFile       string `toml:"LogFile"`
	TokenSymbol   string `toml:"TokenSymbol"`

	RPCReadHeaderTimeout int   `toml:"RPCReadHeaderTimeout"`
	RPCReadTimeout       int   `toml:"RPCReadTimeout"`
	RPCWriteTimeout      int   `toml:"RPCWriteTimeout"`
	RPCIdleTimeout       int   `toml:"RPCIdleTimeout"`
	RPCMaxBodyBytes      int64 `toml:"RPCMaxBodyBytes"`
	// RPCTrustedProxies lists reverse proxy IPs or CIDR blocks allowed to
	// set X-Forwarded-For and X-Real-IP.
	RPCTrustedProxies []string `toml:"RPCTrustedProxies"`

	RateLimit RateLimit `toml:"RateLimit"`
	Telemetry Telemetry `toml:"Telemetry"`
}

// RateLimit configures the per-client JSON-RPC limiter. A zero
// RequestsPerMinute disables limiting.
type RateLimit struct {
	RequestsPerMinute int `toml:"RequestsPerMinute"`
	Burst             int `toml:"Burst"`
}

// Telemetry configures OTLP export.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
}

// Load loads the configuration from path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh install.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.RateLimit = RateLimit{RequestsPerMinute: defaultRequestsPerMinute, Burst: defaultBurst}
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir
	}
	if c.ChainID == 0 {
		c.ChainID = DefaultChainID
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = DefaultEnvironment
	}
	c.TokenSymbol = strings.ToUpper(strings.TrimSpace(c.TokenSymbol))
	if c.TokenSymbol == "" {
		c.TokenSymbol = DefaultTokenSymbol
	}
	if c.RPCReadHeaderTimeout <= 0 {
		c.RPCReadHeaderTimeout = defaultReadHeaderSecs
	}
	if c.RPCReadTimeout <= 0 {
		c.RPCReadTimeout = defaultReadSecs
	}
	if c.RPCWriteTimeout <= 0 {
		c.RPCWriteTimeout = defaultWriteSecs
	}
	if c.RPCIdleTimeout <= 0 {
		c.RPCIdleTimeout = defaultIdleSecs
	}
	if c.RPCMaxBodyBytes <= 0 {
		c.RPCMaxBodyBytes = defaultMaxBodyBytes
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = defaultBurst
	}
}

// Timeouts returns the HTTP server timeouts.
func (c *Config) Timeouts() (readHeader, read, write, idle time.Duration) {
	return time.Duration(c.RPCReadHeaderTimeout) * time.Second,
		time.Duration(c.RPCReadTimeout) * time.Second,
		time.Duration(c.RPCWriteTimeout) * time.Second,
		time.Duration(c.RPCIdleTimeout) * time.Second
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
