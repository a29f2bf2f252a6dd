package domain

import "time"

// Profile is a named, reusable provider configuration that can be applied to
// the active account in one step.
type Profile struct {
	Name         string
	Provider     Provider
	BaseURL      string
	DefaultModel string
	SavedAt      time.Time
}
