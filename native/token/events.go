package token

import (
	"strconv"
	"strings"

	"learnchain/core/events"
	"learnchain/core/types"
	"learnchain/crypto"
)

const (
	// EventTypeMintInitialized is emitted when the issuance ledger is created.
	EventTypeMintInitialized = "token.mint.initialized"
	// EventTypeMinted is emitted for every successful reward mint.
	EventTypeMinted = "token.minted"
	// EventTypeMintConfigUpdated is emitted when the mint authority changes policy.
	EventTypeMintConfigUpdated = "token.mint_config.updated"
	// EventTypeBurned is emitted when a holder destroys tokens.
	EventTypeBurned = "token.burned"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func addr(a [20]byte) string { return crypto.FromRaw(a).String() }

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

// MintInitializedEvent describes a freshly created mint.
func MintInitializedEvent(cfg *MintConfig, signer [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeMintInitialized,
		Attributes: map[string]string{
			"mint":      addr(cfg.Mint),
			"authority": addr(cfg.Authority),
			"signer":    addr(signer),
			"decimals":  strconv.Itoa(int(cfg.Decimals)),
			"supplyCap": u64(cfg.SupplyCap),
		},
	}
}

// MintedEvent describes a reward mint.
func MintedEvent(cfg *MintConfig, recipient [20]byte, amount uint64) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"mint":        addr(cfg.Mint),
			"recipient":   addr(recipient),
			"amount":      u64(amount),
			"totalMinted": u64(cfg.TotalMinted),
			"supplyCap":   u64(cfg.SupplyCap),
		},
	}
}

// MintConfigUpdatedEvent lists the new policy and the fields that changed.
func MintConfigUpdatedEvent(cfg *MintConfig, fields []string) *types.Event {
	return &types.Event{
		Type: EventTypeMintConfigUpdated,
		Attributes: map[string]string{
			"mint":      addr(cfg.Mint),
			"authority": addr(cfg.Authority),
			"supplyCap": u64(cfg.SupplyCap),
			"cooldown":  u64(cfg.MintCooldown),
			"paused":    strconv.FormatBool(cfg.Paused),
			"fields":    strings.Join(fields, ","),
		},
	}
}

// BurnedEvent describes a burn and the holder's remaining balance.
func BurnedEvent(mint, owner [20]byte, amount, balance uint64) *types.Event {
	return &types.Event{
		Type: EventTypeBurned,
		Attributes: map[string]string{
			"mint":    addr(mint),
			"owner":   addr(owner),
			"amount":  u64(amount),
			"balance": u64(balance),
		},
	}
}
