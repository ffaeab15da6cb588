package signin

import (
	"fmt"

	"github.com/bitrise-steplib/steps-launcher-integration/prefs"
)

const (
	// PreferencesName is the preference file the status is kept in.
	PreferencesName = "LauncherIntegration"
	// StatusKey ...
	StatusKey = "signedInStatus"
)

// DefaultStatus supplies the signed in status used before one has been stored.
type DefaultStatus interface {
	DefaultSignedInStatus() (bool, error)
}

// Store is the persisted signed in flag.
type Store struct {
	prefs    prefs.Store
	defaults DefaultStatus
}

// NewStore ...
func NewStore(store prefs.Store, defaults DefaultStatus) Store {
	return Store{prefs: store, defaults: defaults}
}

// Get returns the stored status, or the configured default when nothing was stored.
func (s Store) Get() (bool, error) {
	value, ok, err := s.prefs.Bool(PreferencesName, StatusKey)
	if err != nil {
		return false, fmt.Errorf("failed to read signed in status: %w", err)
	}
	if ok {
		return value, nil
	}

	if s.defaults == nil {
		return false, nil
	}
	value, err = s.defaults.DefaultSignedInStatus()
	if err != nil {
		return false, fmt.Errorf("failed to read default signed in status: %w", err)
	}
	return value, nil
}

// Set ...
func (s Store) Set(status bool) error {
	if err := s.prefs.SetBool(PreferencesName, StatusKey, status); err != nil {
		return fmt.Errorf("failed to store signed in status: %w", err)
	}
	return nil
}
