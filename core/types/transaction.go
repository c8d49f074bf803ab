package types

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"learnchain/crypto"
)

// TxType defines the purpose of a transaction.
type TxType byte

const (
	TxTypeInitializeProgram   TxType = 0x01 // Create the program singleton
	TxTypeUpdateProgramConfig TxType = 0x02 // Rotate authority or toggle the program pause
	TxTypeRegisterCourse      TxType = 0x03
	TxTypeUpdateCourse        TxType = 0x04
	TxTypeRegisterLearner     TxType = 0x05
	TxTypeCompleteCourse      TxType = 0x06 // Record a pass and mint the course reward
	TxTypeInitializeMint      TxType = 0x10
	TxTypeUpdateMintConfig    TxType = 0x11
	TxTypeBurnTokens          TxType = 0x12
)

// ErrUnsigned is returned when recovering the sender of a transaction that
// carries no signature.
var ErrUnsigned = errors.New("types: transaction not signed")

// String returns a human readable label for the transaction type.
func (t TxType) String() string {
	switch t {
	case TxTypeInitializeProgram:
		return "InitializeProgram"
	case TxTypeUpdateProgramConfig:
		return "UpdateProgramConfig"
	case TxTypeRegisterCourse:
		return "RegisterCourse"
	case TxTypeUpdateCourse:
		return "UpdateCourse"
	case TxTypeRegisterLearner:
		return "RegisterLearner"
	case TxTypeCompleteCourse:
		return "CompleteCourse"
	case TxTypeInitializeMint:
		return "InitializeMint"
	case TxTypeUpdateMintConfig:
		return "UpdateMintConfig"
	case TxTypeBurnTokens:
		return "BurnTokens"
	default:
		return fmt.Sprintf("0x%02x", byte(t))
	}
}

// Transaction is a signed request to perform one state transition. Data holds
// the JSON encoded payload matching Type.
type Transaction struct {
	ChainID uint64 `json:"chainId"`
	Type    TxType `json:"type"`
	Nonce   uint64 `json:"nonce"`
	Data    []byte `json:"data"`

	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
	V *big.Int `json:"v"`

	from *[crypto.AddressLength]byte
}

// NewTransaction encodes payload into an unsigned transaction.
func NewTransaction(chainID uint64, txType TxType, nonce uint64, payload any) (*Transaction, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return &Transaction{ChainID: chainID, Type: txType, Nonce: nonce, Data: data}, nil
}

// DecodePayload unmarshals the transaction data into out.
func (tx *Transaction) DecodePayload(out any) error {
	if len(tx.Data) == 0 {
		return fmt.Errorf("payload required for %s", tx.Type)
	}
	if err := json.Unmarshal(tx.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", tx.Type, err)
	}
	return nil
}

// Hash covers every field except the signature.
func (tx *Transaction) Hash() ([]byte, error) {
	txData := struct {
		ChainID uint64
		Type    TxType
		Nonce   uint64
		Data    []byte
	}{tx.ChainID, tx.Type, tx.Nonce, tx.Data}

	b, err := json.Marshal(txData)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(b)
	return hash[:], nil
}

func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := ethcrypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// From recovers the signing address.
func (tx *Transaction) From() ([crypto.AddressLength]byte, error) {
	if tx.from != nil {
		return *tx.from, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return [crypto.AddressLength]byte{}, ErrUnsigned
	}
	if tx.R.BitLen() > 256 || tx.S.BitLen() > 256 || !tx.V.IsUint64() || tx.V.Uint64() < 27 || tx.V.Uint64() > 28 {
		return [crypto.AddressLength]byte{}, fmt.Errorf("malformed signature values")
	}
	hash, err := tx.Hash()
	if err != nil {
		return [crypto.AddressLength]byte{}, err
	}
	sig := make([]byte, 65)
	tx.R.FillBytes(sig[:32])
	tx.S.FillBytes(sig[32:64])
	sig[64] = byte(tx.V.Uint64() - 27)
	from, err := crypto.RecoverAddress(hash, sig)
	if err != nil {
		return [crypto.AddressLength]byte{}, err
	}
	tx.from = &from
	return from, nil
}
