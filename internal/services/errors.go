package services

import "errors"

var (
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrAccountBanned           = errors.New("account banned")
	ErrAccountNotFound         = errors.New("account not found")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidWagerRange       = errors.New("wager outside allowed range")
	ErrInvalidChoice           = errors.New("invalid choice")
	ErrInvalidReferralCode     = errors.New("invalid referral code")
	ErrInvalidWithdrawalState  = errors.New("withdrawal is not pending")
	ErrInvalidWithdrawalMethod = errors.New("invalid withdrawal method")
	ErrDuplicateReferral       = errors.New("referral already credited")
	ErrDuplicateDeposit        = errors.New("deposit already credited")
)
