package token

import "math"

// MintConfig tracks issuance policy and cumulative issuance for one mint.
type MintConfig struct {
	Initialized       bool     `json:"initialized"`
	Mint              [20]byte `json:"mint"`
	Authority         [20]byte `json:"authority"`
	SupplyCap         uint64   `json:"supplyCap"`
	TotalMinted       uint64   `json:"totalMinted"`
	Decimals          uint8    `json:"decimals"`
	Paused            bool     `json:"paused"`
	LastMintTimestamp uint64   `json:"lastMintTimestamp"`
	MintCooldown      uint64   `json:"mintCooldown"`
}

// Clone returns a copy of the configuration.
func (c *MintConfig) Clone() *MintConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Remaining reports how many base units can still be minted before the cap.
func (c *MintConfig) Remaining() uint64 {
	if c == nil || c.TotalMinted >= c.SupplyCap {
		return 0
	}
	return c.SupplyCap - c.TotalMinted
}

// NextMintAt returns the earliest unix timestamp at which a mint passes the
// cooldown check. The deadline saturates instead of wrapping.
func (c *MintConfig) NextMintAt() uint64 {
	if c == nil || c.MintCooldown == 0 {
		return 0
	}
	return saturatingAdd(c.LastMintTimestamp, c.MintCooldown)
}

// MintConfigUpdate lists the optional fields of an UpdateMintConfig call.
// Nil fields are left untouched.
type MintConfigUpdate struct {
	Authority *[20]byte
	SupplyCap *uint64
	Cooldown  *uint64
	Paused    *bool
}

// Empty reports whether the update changes nothing.
func (u MintConfigUpdate) Empty() bool {
	return u.Authority == nil && u.SupplyCap == nil && u.Cooldown == nil && u.Paused == nil
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
