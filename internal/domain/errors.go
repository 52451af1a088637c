package domain

import "errors"

// Rejections surfaced verbatim to callers. None of them leave a partial effect behind.
var (
	// authorization
	ErrUnauthorized = errors.New("unauthorized access")

	// state preconditions
	ErrEventSettled         = errors.New("event has already been settled")
	ErrEventNotSettled      = errors.New("event has not been settled yet")
	ErrBettingEnded         = errors.New("betting period has ended")
	ErrBettingClosed        = errors.New("betting is closed")
	ErrBettingAlreadyClosed = errors.New("betting is already closed")
	ErrWindowPolicy         = errors.New("betting window is deadline driven")
	ErrBetSettled           = errors.New("bet has already been settled")
	ErrMarketClosed         = errors.New("market is closed")

	// input validation
	ErrZeroAmount          = errors.New("zero amount not allowed")
	ErrInvalidOutcome      = errors.New("invalid outcome")
	ErrInvalidFee          = errors.New("invalid fee rate")
	ErrInvalidStringLength = errors.New("invalid string length")
	ErrInvalidMint         = errors.New("invalid mint")
	ErrInvalidTokenAccount = errors.New("invalid token account")
	ErrInvalidEvent        = errors.New("invalid event")

	// arithmetic
	ErrOverflow          = errors.New("arithmetic overflow")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// lookups and uniqueness
	ErrMarketNotFound   = errors.New("market not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrMarketExists     = errors.New("market already exists")
	ErrPositionExists   = errors.New("position already exists for bettor")
	ErrLockHeld         = errors.New("lock already held")
)
