package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	vaultVersion   = 2
	passphraseFile = ".passphrase"

	// PassphraseEnv overrides the generated passphrase of the credentials file
	PassphraseEnv = "XHSCRAWL_PASSPHRASE"
)

// EncryptedFileStore keeps accounts in an AES-GCM encrypted file. The key is
// derived with PBKDF2 from XHSCRAWL_PASSPHRASE, or from a random passphrase
// saved next to the file on first use.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.RWMutex
}

// vault is the file on disk. []byte fields are base64 in JSON. The version
// is authenticated along with the ciphertext.
type vault struct {
	Version    int       `json:"version"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	Modified   time.Time `json:"modified"`
}

// NewEncryptedFileStore creates a store over the file at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := resolvePassphrase(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store saves an account, replacing one with the same name
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		accounts[account.Name] = *account
		return nil
	})
}

// Retrieve gets an account by name
func (e *EncryptedFileStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	account, ok := accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns the stored accounts sorted by name
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		account := account
		out = append(out, &account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes an account; the file goes with the last one
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		if _, ok := accounts[name]; !ok {
			return ErrCredentialsNotFound
		}
		delete(accounts, name)
		return nil
	})
}

// Exists reports whether an account is stored under name
func (e *EncryptedFileStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}

// update runs fn over the decrypted accounts and writes the result back
func (e *EncryptedFileStore) update(fn func(map[string]Account) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}
	if len(accounts) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return e.write(accounts)
}

// read decrypts the file; a missing file is an empty set of accounts
func (e *EncryptedFileStore) read() (map[string]Account, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return make(map[string]Account), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var v vault
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if v.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported credentials file version %d", v.Version)
	}

	gcm, err := e.cipher(v.Salt)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, v.Nonce, v.Ciphertext, versionTag(v.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	accounts := make(map[string]Account)
	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

// write encrypts accounts under a fresh salt and nonce and replaces the file
func (e *EncryptedFileStore) write(accounts map[string]Account) error {
	plain, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	v := vault{Version: vaultVersion, Salt: make([]byte, saltSize), Modified: time.Now()}
	if _, err := rand.Read(v.Salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := e.cipher(v.Salt)
	if err != nil {
		return err
	}
	v.Nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(v.Nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	v.Ciphertext = gcm.Seal(nil, v.Nonce, plain, versionTag(v.Version))

	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

func (e *EncryptedFileStore) cipher(salt []byte) (cipher.AEAD, error) {
	if len(salt) != saltSize {
		return nil, errors.New("credentials file has a malformed salt")
	}
	block, err := aes.NewCipher(pbkdf2.Key(e.passphrase, salt, iterations, keySize, sha256.New))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func versionTag(v int) []byte {
	return []byte(fmt.Sprintf("xhscrawl-credentials-v%d", v))
}

// resolvePassphrase returns XHSCRAWL_PASSPHRASE when set. Otherwise it reads
// the passphrase file in dir, creating it with random content if missing.
func resolvePassphrase(dir string) ([]byte, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return []byte(pass), nil
	}

	path := filepath.Join(dir, passphraseFile)
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return content, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := []byte(base64.RawURLEncoding.EncodeToString(raw))
	if err := os.WriteFile(path, pass, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}
