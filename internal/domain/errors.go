package domain

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrServerNotFound  = errors.New("mcp server not found")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrNoActiveAccount = errors.New("no active account")
	// ErrSettingsNotFound reports an absent external settings file; the
	// session hook treats this as "skip", not as a failure.
	ErrSettingsNotFound = errors.New("settings file not found")
)
