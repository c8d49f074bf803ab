package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"learnchain/crypto"
)

func TestTransactionSignAndRecover(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	tx, err := NewTransaction(7, TxTypeRegisterLearner, 0, RegisterLearnerPayload{Name: "alice"})
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key.PrivateKey))

	from, err := tx.From()
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Raw(), from)

	var payload RegisterLearnerPayload
	require.NoError(t, tx.DecodePayload(&payload))
	require.Equal(t, "alice", payload.Name)
}

func TestTransactionTamperChangesSender(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	tx, err := NewTransaction(7, TxTypeBurnTokens, 3, BurnTokensPayload{Amount: 10})
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key.PrivateKey))

	tampered := &Transaction{ChainID: tx.ChainID, Type: tx.Type, Nonce: tx.Nonce + 1, Data: tx.Data, R: tx.R, S: tx.S, V: tx.V}
	from, err := tampered.From()
	if err == nil {
		require.NotEqual(t, key.PubKey().Address().Raw(), from)
	}
}

func TestTransactionFromUnsigned(t *testing.T) {
	tx := &Transaction{ChainID: 1, Type: TxTypeBurnTokens}
	_, err := tx.From()
	require.ErrorIs(t, err, ErrUnsigned)

	tx.R, tx.S, tx.V = big.NewInt(1), big.NewInt(1), big.NewInt(99)
	_, err = tx.From()
	require.Error(t, err)
}

func TestDecodePayloadRequiresData(t *testing.T) {
	tx := &Transaction{Type: TxTypeCompleteCourse}
	var payload CompleteCoursePayload
	require.Error(t, tx.DecodePayload(&payload))

	tx.Data = []byte(`{"score":300}`)
	require.Error(t, tx.DecodePayload(&payload))
}

func TestTxTypeString(t *testing.T) {
	require.Equal(t, "CompleteCourse", TxTypeCompleteCourse.String())
	require.Equal(t, "0x7f", TxType(0x7f).String())
}
