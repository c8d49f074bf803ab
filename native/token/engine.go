package token

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"learnchain/core/events"
	"learnchain/core/types"
)

// Primitive is the mintable-token substrate. TokenMintTo must reject a signer
// whose address differs from the authority recorded by TokenCreateMint.
type Primitive interface {
	TokenCreateMint(mint [20]byte, decimals uint8, authority [20]byte) error
	TokenMintTo(mint, to [20]byte, amount uint64, signer MintSigner) error
	TokenBurn(mint, owner [20]byte, amount uint64) error
	TokenBalance(mint, owner [20]byte) (uint64, error)
	TokenSupply(mint [20]byte) (uint64, error)
}

type engineState interface {
	Primitive
	TokenMintConfigGet(mint [20]byte) (*MintConfig, bool, error)
	TokenMintConfigPut(cfg *MintConfig) error
}

// Engine is the issuance ledger for a single mint. It owns the MintSigner and
// is the only component able to mint.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	mint    [20]byte
	signer  MintSigner
}

// NewEngine constructs an issuance ledger for mint with default dependencies.
func NewEngine(mint [20]byte) *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
		mint:   mint,
		signer: deriveSigner(mint),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// MintAddress returns the mint governed by the engine.
func (e *Engine) MintAddress() [20]byte { return e.mint }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() uint64 {
	var ts int64
	if e == nil || e.nowFn == nil {
		ts = time.Now().Unix()
	} else {
		ts = e.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) loadConfig() (*MintConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	cfg, ok, err := e.state.TokenMintConfigGet(e.mint)
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil || !cfg.Initialized {
		return nil, ErrMintNotInitialized
	}
	return cfg, nil
}

// MintConfig returns the current issuance configuration.
func (e *Engine) MintConfig() (*MintConfig, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// InitializeMint creates the mint and its issuance policy. The caller becomes
// the mint authority; the primitive mint authority is the derived signer.
func (e *Engine) InitializeMint(caller [20]byte, decimals uint8, supplyCap uint64) (*MintConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if caller == ([20]byte{}) {
		return nil, ErrInvalidAuthority
	}
	if supplyCap == 0 {
		return nil, ErrInvalidSupplyCap
	}
	existing, ok, err := e.state.TokenMintConfigGet(e.mint)
	if err != nil {
		return nil, err
	}
	if ok && existing != nil && existing.Initialized {
		return nil, ErrMintInitialized
	}
	if err := e.state.TokenCreateMint(e.mint, decimals, e.signer.Address()); err != nil {
		return nil, fmt.Errorf("create mint: %w", err)
	}
	cfg := &MintConfig{
		Initialized: true,
		Mint:        e.mint,
		Authority:   caller,
		SupplyCap:   supplyCap,
		Decimals:    decimals,
	}
	if err := e.state.TokenMintConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(MintInitializedEvent(cfg, e.signer.Address()))
	return cfg.Clone(), nil
}

// MintReward issues amount to recipient subject to the pause flag, the
// cooldown and the supply cap, checked in that order.
func (e *Engine) MintReward(recipient [20]byte, amount uint64) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Paused {
		return ErrMintingPaused
	}
	now := e.now()
	if cfg.MintCooldown > 0 && now < cfg.NextMintAt() {
		return ErrMintCooldownNotMet
	}
	total := new(uint256.Int).Add(uint256.NewInt(cfg.TotalMinted), uint256.NewInt(amount))
	if total.Gt(uint256.NewInt(cfg.SupplyCap)) {
		return ErrSupplyCapExceeded
	}
	if err := e.state.TokenMintTo(e.mint, recipient, amount, e.signer); err != nil {
		return fmt.Errorf("mint to: %w", err)
	}
	cfg.TotalMinted = total.Uint64()
	cfg.LastMintTimestamp = now
	if err := e.state.TokenMintConfigPut(cfg); err != nil {
		return err
	}
	e.emit(MintedEvent(cfg, recipient, amount))
	return nil
}

// UpdateMintConfig applies the present fields of update. Every field is
// validated before any is applied.
func (e *Engine) UpdateMintConfig(caller [20]byte, update MintConfigUpdate) (*MintConfig, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Authority {
		return nil, ErrUnauthorized
	}
	if update.Authority != nil && *update.Authority == ([20]byte{}) {
		return nil, ErrInvalidAuthority
	}
	if update.SupplyCap != nil && (*update.SupplyCap == 0 || *update.SupplyCap < cfg.TotalMinted) {
		return nil, ErrInvalidSupplyCap
	}
	if update.Empty() {
		return cfg.Clone(), nil
	}
	var fields []string
	if update.Authority != nil {
		cfg.Authority = *update.Authority
		fields = append(fields, "authority")
	}
	if update.SupplyCap != nil {
		cfg.SupplyCap = *update.SupplyCap
		fields = append(fields, "supplyCap")
	}
	if update.Cooldown != nil {
		cfg.MintCooldown = *update.Cooldown
		fields = append(fields, "cooldown")
	}
	if update.Paused != nil {
		cfg.Paused = *update.Paused
		fields = append(fields, "paused")
	}
	if err := e.state.TokenMintConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(MintConfigUpdatedEvent(cfg, fields))
	return cfg.Clone(), nil
}

// Burn destroys amount of the caller's balance. Cumulative issuance is not
// reduced, so burned tokens cannot be re-minted past the cap.
func (e *Engine) Burn(caller [20]byte, amount uint64) (uint64, error) {
	if _, err := e.loadConfig(); err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := e.state.TokenBalance(e.mint, caller)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return 0, ErrInsufficientBalance
	}
	if err := e.state.TokenBurn(e.mint, caller, amount); err != nil {
		return 0, fmt.Errorf("burn: %w", err)
	}
	remaining := balance - amount
	e.emit(BurnedEvent(e.mint, caller, amount, remaining))
	return remaining, nil
}

// Balance returns the token balance held by owner.
func (e *Engine) Balance(owner [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	return e.state.TokenBalance(e.mint, owner)
}

// Supply returns the circulating supply of the mint.
func (e *Engine) Supply() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	return e.state.TokenSupply(e.mint)
}
