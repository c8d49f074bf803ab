package core

import "errors"

var (
	// ErrInvalidChainID is returned for transactions targeting another chain.
	ErrInvalidChainID = errors.New("core: invalid chain id")
	// ErrInvalidSignature is returned when the sender cannot be recovered.
	ErrInvalidSignature = errors.New("core: invalid signature")
	// ErrInvalidNonce is returned when the nonce is not the sender's next nonce.
	ErrInvalidNonce = errors.New("core: invalid nonce")
	// ErrInvalidPayload is returned when the transaction data does not decode.
	ErrInvalidPayload = errors.New("core: invalid payload")
	// ErrUnknownTxType is returned for unsupported transaction types.
	ErrUnknownTxType = errors.New("core: unknown transaction type")
	// ErrNilTransaction is returned when Submit receives no transaction.
	ErrNilTransaction = errors.New("core: transaction required")
)
