package auth

import (
	"os"
	"time"
)

const (
	// CookiesEnv holds the Cookie header of a logged-in session
	CookiesEnv = "XHSCRAWL_COOKIES"
	// UserAgentEnv overrides the user agent sent with the session
	UserAgentEnv = "XHSCRAWL_USER_AGENT"

	envAccountName = "env"
)

// EnvironmentStore reads a single read-only session from XHSCRAWL_COOKIES
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment session under any name
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	cookies := os.Getenv(CookiesEnv)
	if cookies == "" {
		return nil, ErrCredentialsNotFound
	}
	if name == "" {
		name = envAccountName
	}

	return &Account{
		Name:         name,
		Cookies:      cookies,
		UserAgent:    os.Getenv(UserAgentEnv),
		LastModified: time.Now(),
	}, nil
}

// List returns the environment session if one is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists reports whether a session is set in the environment
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(CookiesEnv) != ""
}
