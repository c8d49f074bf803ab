package state

import (
	"errors"
	"math"

	"learnchain/native/token"
)

// ErrMintExists is returned when creating a primitive mint twice.
var ErrMintExists = errors.New("state: token mint already exists")

type storedMintConfig struct {
	Initialized       bool
	Mint              [20]byte
	Authority         [20]byte
	SupplyCap         uint64
	TotalMinted       uint64
	Decimals          uint8
	Paused            bool
	LastMintTimestamp uint64
	MintCooldown      uint64
}

type storedTokenMint struct {
	Decimals  uint8
	Authority [20]byte
	Supply    uint64
}

// TokenMintConfigGet loads the issuance configuration for mint.
func (m *Manager) TokenMintConfigGet(mint [20]byte) (*token.MintConfig, bool, error) {
	var stored storedMintConfig
	ok, err := m.getRLP(tokenMintConfigKey(mint), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &token.MintConfig{
		Initialized:       stored.Initialized,
		Mint:              stored.Mint,
		Authority:         stored.Authority,
		SupplyCap:         stored.SupplyCap,
		TotalMinted:       stored.TotalMinted,
		Decimals:          stored.Decimals,
		Paused:            stored.Paused,
		LastMintTimestamp: stored.LastMintTimestamp,
		MintCooldown:      stored.MintCooldown,
	}, true, nil
}

// TokenMintConfigPut stages the issuance configuration.
func (m *Manager) TokenMintConfigPut(cfg *token.MintConfig) error {
	if cfg == nil {
		return nil
	}
	return m.putRLP(tokenMintConfigKey(cfg.Mint), &storedMintConfig{
		Initialized:       cfg.Initialized,
		Mint:              cfg.Mint,
		Authority:         cfg.Authority,
		SupplyCap:         cfg.SupplyCap,
		TotalMinted:       cfg.TotalMinted,
		Decimals:          cfg.Decimals,
		Paused:            cfg.Paused,
		LastMintTimestamp: cfg.LastMintTimestamp,
		MintCooldown:      cfg.MintCooldown,
	})
}

func (m *Manager) loadTokenMint(mint [20]byte) (*storedTokenMint, error) {
	var stored storedTokenMint
	ok, err := m.getRLP(tokenMintKey(mint), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, token.ErrUnknownMint
	}
	return &stored, nil
}

// TokenCreateMint registers a primitive mint whose mints must be authorized by
// authority.
func (m *Manager) TokenCreateMint(mint [20]byte, decimals uint8, authority [20]byte) error {
	if _, err := m.loadTokenMint(mint); err == nil {
		return ErrMintExists
	} else if !errors.Is(err, token.ErrUnknownMint) {
		return err
	}
	return m.putRLP(tokenMintKey(mint), &storedTokenMint{Decimals: decimals, Authority: authority})
}

// TokenMintTo credits amount to the owner's balance. The signer must carry the
// mint's recorded authority.
func (m *Manager) TokenMintTo(mint, to [20]byte, amount uint64, signer token.MintSigner) error {
	record, err := m.loadTokenMint(mint)
	if err != nil {
		return err
	}
	if signer.IsZero() || signer.Mint() != mint || signer.Address() != record.Authority {
		return token.ErrMintAuthorityMismatch
	}
	balance, err := m.TokenBalance(mint, to)
	if err != nil {
		return err
	}
	if record.Supply > math.MaxUint64-amount || balance > math.MaxUint64-amount {
		return token.ErrBalanceOverflow
	}
	record.Supply += amount
	if err := m.putRLP(tokenBalanceKey(mint, to), balance+amount); err != nil {
		return err
	}
	return m.putRLP(tokenMintKey(mint), record)
}

// TokenBurn debits amount from the owner's balance and the circulating supply.
func (m *Manager) TokenBurn(mint, owner [20]byte, amount uint64) error {
	record, err := m.loadTokenMint(mint)
	if err != nil {
		return err
	}
	balance, err := m.TokenBalance(mint, owner)
	if err != nil {
		return err
	}
	if balance < amount || record.Supply < amount {
		return token.ErrInsufficientBalance
	}
	record.Supply -= amount
	if err := m.putRLP(tokenBalanceKey(mint, owner), balance-amount); err != nil {
		return err
	}
	return m.putRLP(tokenMintKey(mint), record)
}

// TokenBalance returns the balance owner holds of mint. Unknown owners hold
// zero.
func (m *Manager) TokenBalance(mint, owner [20]byte) (uint64, error) {
	if _, err := m.loadTokenMint(mint); err != nil {
		return 0, err
	}
	var balance uint64
	if _, err := m.getRLP(tokenBalanceKey(mint, owner), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// TokenSupply returns the circulating supply of mint.
func (m *Manager) TokenSupply(mint [20]byte) (uint64, error) {
	record, err := m.loadTokenMint(mint)
	if err != nil {
		return 0, err
	}
	return record.Supply, nil
}

// TokenMintAuthority returns the authority recorded on the primitive mint.
func (m *Manager) TokenMintAuthority(mint [20]byte) ([20]byte, error) {
	record, err := m.loadTokenMint(mint)
	if err != nil {
		return [20]byte{}, err
	}
	return record.Authority, nil
}
