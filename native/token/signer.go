package token

import "learnchain/crypto"

const signerSeed = "mint-authority"

// MintSigner is the program-derived capability that authorizes mints. Its
// fields are unexported, so outside this package only the zero value can be
// constructed, and the primitive rejects that.
type MintSigner struct {
	mint    [20]byte
	address [20]byte
}

// Address returns the derived authority address carried by the signer.
func (s MintSigner) Address() [20]byte { return s.address }

// Mint returns the mint the signer was derived for.
func (s MintSigner) Mint() [20]byte { return s.mint }

// IsZero reports whether the signer was never derived.
func (s MintSigner) IsZero() bool { return s.address == [20]byte{} }

// SignerAddress returns the authority address the primitive must record for
// mint. Knowing the address does not grant the capability.
func SignerAddress(mint [20]byte) [20]byte {
	return crypto.DeriveAddress([]byte(signerSeed), mint[:])
}

func deriveSigner(mint [20]byte) MintSigner {
	return MintSigner{mint: mint, address: SignerAddress(mint)}
}

// DefaultMintAddress derives the mint address used for a token symbol.
func DefaultMintAddress(symbol string) [20]byte {
	return crypto.DeriveAddress([]byte("mint:" + symbol))
}
