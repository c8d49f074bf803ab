package config

import (
	"fmt"
	"net"
	"strings"
	"unicode"
)

const maxTokenSymbolLength = 10

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("config: ChainID must be non-zero")
	}
	if len(c.TokenSymbol) > maxTokenSymbolLength {
		return fmt.Errorf("config: TokenSymbol longer than %d characters", maxTokenSymbolLength)
	}
	for _, r := range c.TokenSymbol {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("config: TokenSymbol %q must be alphanumeric", c.TokenSymbol)
		}
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("config: RateLimit values must not be negative")
	}
	for _, entry := range c.RPCTrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("config: RPCTrustedProxies entry %q: %w", entry, err)
			}
			continue
		}
		if net.ParseIP(entry) == nil {
			return fmt.Errorf("config: RPCTrustedProxies entry %q is not an IP address", entry)
		}
	}
	if (c.Telemetry.Traces || c.Telemetry.Metrics) && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("config: Telemetry.Endpoint required when exporting")
	}
	return nil
}
