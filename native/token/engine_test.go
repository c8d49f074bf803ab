package token

import (
	"errors"
	"math"
	"testing"

	"learnchain/core/events"
)

type mockMint struct {
	decimals  uint8
	authority [20]byte
	supply    uint64
}

type mockState struct {
	configs  map[[20]byte]*MintConfig
	mints    map[[20]byte]*mockMint
	balances map[[40]byte]uint64
	puts     int
}

func newMockState() *mockState {
	return &mockState{
		configs:  make(map[[20]byte]*MintConfig),
		mints:    make(map[[20]byte]*mockMint),
		balances: make(map[[40]byte]uint64),
	}
}

func balanceKey(mint, owner [20]byte) [40]byte {
	var key [40]byte
	copy(key[:20], mint[:])
	copy(key[20:], owner[:])
	return key
}

func (m *mockState) TokenMintConfigGet(mint [20]byte) (*MintConfig, bool, error) {
	cfg, ok := m.configs[mint]
	if !ok {
		return nil, false, nil
	}
	return cfg.Clone(), true, nil
}

func (m *mockState) TokenMintConfigPut(cfg *MintConfig) error {
	m.puts++
	m.configs[cfg.Mint] = cfg.Clone()
	return nil
}

func (m *mockState) TokenCreateMint(mint [20]byte, decimals uint8, authority [20]byte) error {
	m.mints[mint] = &mockMint{decimals: decimals, authority: authority}
	return nil
}

func (m *mockState) TokenMintTo(mint, to [20]byte, amount uint64, signer MintSigner) error {
	record, ok := m.mints[mint]
	if !ok {
		return ErrUnknownMint
	}
	if signer.IsZero() || signer.Address() != record.authority {
		return ErrMintAuthorityMismatch
	}
	record.supply += amount
	m.balances[balanceKey(mint, to)] += amount
	return nil
}

func (m *mockState) TokenBurn(mint, owner [20]byte, amount uint64) error {
	key := balanceKey(mint, owner)
	if m.balances[key] < amount {
		return ErrInsufficientBalance
	}
	m.balances[key] -= amount
	m.mints[mint].supply -= amount
	return nil
}

func (m *mockState) TokenBalance(mint, owner [20]byte) (uint64, error) {
	return m.balances[balanceKey(mint, owner)], nil
}

func (m *mockState) TokenSupply(mint [20]byte) (uint64, error) {
	record, ok := m.mints[mint]
	if !ok {
		return 0, ErrUnknownMint
	}
	return record.supply, nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func (c *captureEmitter) types() []string {
	out := make([]string, len(c.events))
	for i, evt := range c.events {
		out[i] = evt.EventType()
	}
	return out
}

var (
	testMint      = DefaultMintAddress("LEARN")
	testAuthority = [20]byte{0xaa}
	testLearner   = [20]byte{0x01}
)

func newTestEngine(t *testing.T, supplyCap uint64) (*Engine, *mockState, *captureEmitter, *int64) {
	t.Helper()
	state := newMockState()
	emitter := &captureEmitter{}
	now := int64(1_700_000_000)
	engine := NewEngine(testMint)
	engine.SetState(state)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(func() int64 { return now })
	if _, err := engine.InitializeMint(testAuthority, 6, supplyCap); err != nil {
		t.Fatalf("initialize mint: %v", err)
	}
	return engine, state, emitter, &now
}

func TestInitializeMint(t *testing.T) {
	state := newMockState()
	engine := NewEngine(testMint)
	engine.SetState(state)

	if _, err := engine.InitializeMint(testAuthority, 6, 0); !errors.Is(err, ErrInvalidSupplyCap) {
		t.Fatalf("expected ErrInvalidSupplyCap, got %v", err)
	}
	cfg, err := engine.InitializeMint(testAuthority, 6, 1_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if cfg.Authority != testAuthority || cfg.SupplyCap != 1_000 || cfg.TotalMinted != 0 || cfg.Paused || cfg.MintCooldown != 0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if state.mints[testMint].authority != SignerAddress(testMint) {
		t.Fatalf("primitive authority must be the derived signer")
	}
	if _, err := engine.InitializeMint(testAuthority, 6, 1_000); !errors.Is(err, ErrMintInitialized) {
		t.Fatalf("expected ErrMintInitialized, got %v", err)
	}
}

func TestOperationsRequireInitializedMint(t *testing.T) {
	engine := NewEngine(testMint)
	engine.SetState(newMockState())
	if err := engine.MintReward(testLearner, 1); !errors.Is(err, ErrMintNotInitialized) {
		t.Fatalf("expected ErrMintNotInitialized, got %v", err)
	}
	if _, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{}); !errors.Is(err, ErrMintNotInitialized) {
		t.Fatalf("expected ErrMintNotInitialized, got %v", err)
	}
	if _, err := engine.Burn(testLearner, 1); !errors.Is(err, ErrMintNotInitialized) {
		t.Fatalf("expected ErrMintNotInitialized, got %v", err)
	}
}

func TestMintRewardUpdatesTotals(t *testing.T) {
	engine, _, emitter, now := newTestEngine(t, 1_000)
	if err := engine.MintReward(testLearner, 400); err != nil {
		t.Fatalf("mint: %v", err)
	}
	cfg, err := engine.MintConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.TotalMinted != 400 || cfg.LastMintTimestamp != uint64(*now) {
		t.Fatalf("unexpected config %+v", cfg)
	}
	balance, _ := engine.Balance(testLearner)
	if balance != 400 {
		t.Fatalf("expected balance 400, got %d", balance)
	}
	got := emitter.types()
	if len(got) != 2 || got[1] != EventTypeMinted {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestMintRewardSupplyCap(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, 1_000)
	if err := engine.MintReward(testLearner, 1_000); err != nil {
		t.Fatalf("mint to cap: %v", err)
	}
	if err := engine.MintReward(testLearner, 1); !errors.Is(err, ErrSupplyCapExceeded) {
		t.Fatalf("expected ErrSupplyCapExceeded, got %v", err)
	}
	cfg, _ := engine.MintConfig()
	if cfg.TotalMinted != 1_000 {
		t.Fatalf("total minted changed on failure: %d", cfg.TotalMinted)
	}
}

func TestMintRewardCapCheckDoesNotOverflow(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, math.MaxUint64)
	if err := engine.MintReward(testLearner, math.MaxUint64-5); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.MintReward(testLearner, 10); !errors.Is(err, ErrSupplyCapExceeded) {
		t.Fatalf("expected ErrSupplyCapExceeded, got %v", err)
	}
}

func TestMintRewardPauseAndCooldown(t *testing.T) {
	engine, _, _, now := newTestEngine(t, 1_000)
	paused := true
	if _, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{Paused: &paused}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := engine.MintReward(testLearner, 1); !errors.Is(err, ErrMintingPaused) {
		t.Fatalf("expected ErrMintingPaused, got %v", err)
	}
	paused = false
	cooldown := uint64(60)
	if _, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{Paused: &paused, Cooldown: &cooldown}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := engine.MintReward(testLearner, 1); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	*now += 59
	if err := engine.MintReward(testLearner, 1); !errors.Is(err, ErrMintCooldownNotMet) {
		t.Fatalf("expected ErrMintCooldownNotMet, got %v", err)
	}
	*now++
	if err := engine.MintReward(testLearner, 1); err != nil {
		t.Fatalf("mint after cooldown: %v", err)
	}
}

func TestCooldownDeadlineSaturates(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, 1_000)
	if err := engine.MintReward(testLearner, 1); err != nil {
		t.Fatalf("mint: %v", err)
	}
	cooldown := uint64(math.MaxUint64)
	if _, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{Cooldown: &cooldown}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := engine.MintReward(testLearner, 1); !errors.Is(err, ErrMintCooldownNotMet) {
		t.Fatalf("expected ErrMintCooldownNotMet, got %v", err)
	}
}

func TestUpdateMintConfigRejectsCapBelowMinted(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, 1_000)
	if err := engine.MintReward(testLearner, 500); err != nil {
		t.Fatalf("mint: %v", err)
	}
	newCap := uint64(499)
	paused := true
	if _, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{SupplyCap: &newCap, Paused: &paused}); !errors.Is(err, ErrInvalidSupplyCap) {
		t.Fatalf("expected ErrInvalidSupplyCap, got %v", err)
	}
	cfg, _ := engine.MintConfig()
	if cfg.SupplyCap != 1_000 || cfg.Paused {
		t.Fatalf("config mutated on rejected update: %+v", cfg)
	}
	newCap = 500
	if _, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{SupplyCap: &newCap}); err != nil {
		t.Fatalf("cap equal to minted should be accepted: %v", err)
	}
}

func TestUpdateMintConfigAuthority(t *testing.T) {
	engine, _, emitter, _ := newTestEngine(t, 1_000)
	stranger := [20]byte{0xbb}
	paused := true
	if _, err := engine.UpdateMintConfig(stranger, MintConfigUpdate{Paused: &paused}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{Authority: &stranger}); err != nil {
		t.Fatalf("rotate authority: %v", err)
	}
	if _, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{Paused: &paused}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("previous authority must be rejected, got %v", err)
	}
	last := emitter.events[len(emitter.events)-1]
	payload := last.(events.Payload).Event()
	if payload.Attributes["fields"] != "authority" {
		t.Fatalf("unexpected fields attribute %q", payload.Attributes["fields"])
	}
}

func TestUpdateMintConfigEmptyIsNoop(t *testing.T) {
	engine, state, emitter, _ := newTestEngine(t, 1_000)
	puts, emitted := state.puts, len(emitter.events)
	cfg, err := engine.UpdateMintConfig(testAuthority, MintConfigUpdate{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if cfg.SupplyCap != 1_000 || cfg.Authority != testAuthority {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if state.puts != puts || len(emitter.events) != emitted {
		t.Fatalf("empty update wrote %d records and emitted %d events", state.puts-puts, len(emitter.events)-emitted)
	}
	if _, err := engine.UpdateMintConfig([20]byte{0xbb}, MintConfigUpdate{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBurnKeepsTotalMinted(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, 1_000)
	if err := engine.MintReward(testLearner, 300); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := engine.Burn(testLearner, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := engine.Burn(testLearner, 301); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	remaining, err := engine.Burn(testLearner, 100)
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if remaining != 200 {
		t.Fatalf("expected remaining 200, got %d", remaining)
	}
	supply, _ := engine.Supply()
	if supply != 200 {
		t.Fatalf("expected supply 200, got %d", supply)
	}
	cfg, _ := engine.MintConfig()
	if cfg.TotalMinted != 300 {
		t.Fatalf("burn must not reduce total minted, got %d", cfg.TotalMinted)
	}
	if err := engine.MintReward(testLearner, 701); !errors.Is(err, ErrSupplyCapExceeded) {
		t.Fatalf("burned tokens must not free cap, got %v", err)
	}
}

func TestZeroSignerRejected(t *testing.T) {
	_, state, _, _ := newTestEngine(t, 1_000)
	if err := state.TokenMintTo(testMint, testLearner, 1, MintSigner{}); !errors.Is(err, ErrMintAuthorityMismatch) {
		t.Fatalf("expected ErrMintAuthorityMismatch, got %v", err)
	}
	other := deriveSigner([20]byte{0x42})
	if err := state.TokenMintTo(testMint, testLearner, 1, other); !errors.Is(err, ErrMintAuthorityMismatch) {
		t.Fatalf("expected ErrMintAuthorityMismatch, got %v", err)
	}
}
