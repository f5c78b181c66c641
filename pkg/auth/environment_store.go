package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// This matches script-style invocations where credentials live in the shell
// environment rather than on disk.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(userID string) (*Account, error) {
	accessToken := os.Getenv("FSQPULL_ACCESS_TOKEN")
	serviceKey := os.Getenv("FOURSQUARE_API_KEY")

	if accessToken == "" {
		return nil, ErrCredentialsNotFound
	}

	// The environment carries no user identity, so the caller either
	// supplies one or gets the "default" placeholder.
	if userID == "" {
		userID = os.Getenv("FSQPULL_USER_ID")
	}
	if userID == "" {
		userID = "default"
	}

	return &Account{
		UserID:       userID,
		AccessToken:  accessToken,
		ServiceKey:   serviceKey,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(userID string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(userID string) bool {
	return os.Getenv("FSQPULL_ACCESS_TOKEN") != ""
}
