package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidUPI      = errors.New("invalid UPI id")
	ErrInvalidIFSC     = errors.New("invalid IFSC code")
	ErrInvalidAccount  = errors.New("invalid account number")
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	upiRegex      = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,64}@[a-zA-Z]{2,32}$`)
	ifscRegex     = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountRegex  = regexp.MustCompile(`^[0-9]{6,18}$`)
)

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateUPI(upiID string) error {
	if !upiRegex.MatchString(upiID) {
		return ErrInvalidUPI
	}
	return nil
}

func ValidateIFSC(code string) error {
	if !ifscRegex.MatchString(code) {
		return ErrInvalidIFSC
	}
	return nil
}

func ValidateAccountNumber(number string) error {
	if !accountRegex.MatchString(number) {
		return ErrInvalidAccount
	}
	return nil
}
