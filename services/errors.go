package services

import "errors"

// The "must happen once" guarantees all bottom out in store constraints;
// these sentinels are how the outcomes of losing such a race surface.
var (
	ErrDuplicateTransaction     = errors.New("payment transaction already processed")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrWithdrawalAlreadyPending = errors.New("a withdrawal is already pending")
	ErrNoPendingWithdrawal      = errors.New("no pending withdrawal for transaction")
	ErrDrawAlreadySettled       = errors.New("draw already settled")
	ErrDrawClosed               = errors.New("draw is not accepting bets")
	ErrUnknownDraw              = errors.New("draw not found")
	ErrBetAlreadySettled        = errors.New("bet already settled")
	ErrUnknownGameMode          = errors.New("unknown or inactive game mode")
	ErrInvalidSelection         = errors.New("selection not valid for game mode")
	ErrInvalidResult            = errors.New("draw result must be 4 digits")
	ErrUserNotFound             = errors.New("user not found")
	ErrBonusAlreadyGranted      = errors.New("bonus of this type already granted")
)
