package token

import "errors"

var (
	ErrNilState              = errors.New("token: state not configured")
	ErrUnauthorized          = errors.New("token: unauthorized")
	ErrInvalidAuthority      = errors.New("token: invalid authority")
	ErrMintInitialized       = errors.New("token: mint already initialized")
	ErrMintNotInitialized    = errors.New("token: mint not initialized")
	ErrInvalidSupplyCap      = errors.New("token: invalid supply cap")
	ErrSupplyCapExceeded     = errors.New("token: supply cap exceeded")
	ErrMintingPaused         = errors.New("token: minting is paused")
	ErrMintCooldownNotMet    = errors.New("token: mint cooldown period not met")
	ErrInvalidAmount         = errors.New("token: amount must be positive")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrMintAuthorityMismatch = errors.New("token: mint authority mismatch")
	ErrUnknownMint           = errors.New("token: mint not registered")
	ErrBalanceOverflow       = errors.New("token: balance overflow")
)
