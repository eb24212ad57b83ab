package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
	"xhscrawl/pkg/config"
)

const (
	keyringPrefix = "account:"
	// go-keyring cannot enumerate secrets, so account names are kept
	// under their own entry
	keyringIndex = "accounts"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct {
	service string
	mu      sync.Mutex
}

// NewKeyringStore creates a keychain store after checking the keychain works
func NewKeyringStore() (*KeyringStore, error) {
	k := &KeyringStore{service: config.AppName}

	testKey := "test_availability"
	if err := keyring.Set(k.service, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(k.service, testKey)

	return k, nil
}

// Store saves an account to the system keychain
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(k.service, keyringPrefix+account.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	names := k.names()
	names[account.Name] = true
	return k.saveNames(names)
}

// Retrieve gets an account from the system keychain
func (k *KeyringStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(k.service, keyringPrefix+name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

// List returns the accounts named in the keychain index
func (k *KeyringStore) List() ([]*Account, error) {
	k.mu.Lock()
	names := k.names()
	k.mu.Unlock()

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	accounts := []*Account{}
	for _, name := range sorted {
		if account, err := k.Retrieve(name); err == nil {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

// Delete removes an account from the system keychain
func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(k.service, keyringPrefix+name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	names := k.names()
	delete(names, name)
	return k.saveNames(names)
}

// Exists checks if an account is in the system keychain
func (k *KeyringStore) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := keyring.Get(k.service, keyringPrefix+name)
	return err == nil
}

func (k *KeyringStore) names() map[string]bool {
	names := make(map[string]bool)
	data, err := keyring.Get(k.service, keyringIndex)
	if err != nil {
		return names
	}
	var list []string
	if json.Unmarshal([]byte(data), &list) == nil {
		for _, n := range list {
			names[n] = true
		}
	}
	return names
}

func (k *KeyringStore) saveNames(names map[string]bool) error {
	list := make([]string, 0, len(names))
	for n := range names {
		list = append(list, n)
	}
	sort.Strings(list)
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := keyring.Set(k.service, keyringIndex, string(data)); err != nil {
		return fmt.Errorf("failed to update keyring index: %w", err)
	}
	return nil
}
