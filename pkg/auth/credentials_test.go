package auth

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

const testCookies = "a1=18c0f2a3b4d5e6f7; web_session=040069b1c2d3e4f5a6b7; webId=abc"

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Name:      "main",
		Cookies:   testCookies,
		UserAgent: "TestAgent/1.0",
	}

	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}
	if account.LastModified.IsZero() {
		t.Error("Store should stamp LastModified")
	}

	retrieved, err := manager.Retrieve("main")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.Cookies != account.Cookies {
		t.Errorf("Cookies mismatch: got %s, want %s", retrieved.Cookies, account.Cookies)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	if err := manager.Delete("main"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("main"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestAccountValidate(t *testing.T) {
	tests := []struct {
		name    string
		account *Account
		wantErr bool
	}{
		{"valid", &Account{Name: "a", Cookies: testCookies}, false},
		{"no name", &Account{Cookies: testCookies}, true},
		{"no web_session", &Account{Name: "a", Cookies: "a1=x"}, true},
		{"empty a1", &Account{Name: "a", Cookies: "a1=; web_session=y"}, true},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	manager, _ := NewMockManager()
	if err := manager.Store(&Account{Name: "bad", Cookies: "a1=x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestParseCookies(t *testing.T) {
	got := ParseCookies(" a1=1; web_session=2=3 ;broken; =x; webId=")
	if got["a1"] != "1" || got["web_session"] != "2=3" {
		t.Errorf("Unexpected cookies: %v", got)
	}
	if _, ok := got["broken"]; ok {
		t.Error("Cookie without value separator should be skipped")
	}
	if v, ok := got["webId"]; !ok || v != "" {
		t.Error("Empty cookie value should be kept")
	}
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "main", Cookies: testCookies}
	sanitized := SanitizeAccount(account)

	if strings.Contains(sanitized.Cookies, "040069b1c2d3e4f5a6b7") {
		t.Error("web_session should be masked")
	}
	if !strings.Contains(sanitized.Cookies, "web_session=0400...a6b7") {
		t.Errorf("Unexpected masked cookies: %s", sanitized.Cookies)
	}
	if !strings.Contains(sanitized.Cookies, "webId=********") {
		t.Errorf("Short values should be fully masked: %s", sanitized.Cookies)
	}
	if sanitized.Name != account.Name {
		t.Error("Name should not be masked")
	}
	if SanitizeAccount(nil) != nil {
		t.Error("Expected nil for nil account")
	}
}

func TestListPrefersNewest(t *testing.T) {
	older, newer := NewMockStore(), NewMockStore()
	now := time.Now()
	_ = older.Store(&Account{Name: "main", Cookies: "old", LastModified: now.Add(-time.Hour)})
	_ = newer.Store(&Account{Name: "main", Cookies: "new", LastModified: now})
	_ = newer.Store(&Account{Name: "alt", Cookies: "alt", LastModified: now.Add(-2 * time.Hour)})

	accounts, err := NewManagerWithStores(older, newer).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Name != "main" || accounts[0].Cookies != "new" {
		t.Errorf("Expected newest main first, got %+v", accounts[0])
	}
}

func TestStoreFallsBack(t *testing.T) {
	broken, working := NewMockStore(), NewMockStore()
	broken.StoreError = fmt.Errorf("keychain locked")
	manager := NewManagerWithStores(broken, working)

	if err := manager.Store(&Account{Name: "main", Cookies: testCookies}); err != nil {
		t.Fatalf("Expected fallback store to succeed: %v", err)
	}
	if working.Count() != 1 {
		t.Error("Expected account in fallback store")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(PassphraseEnv, "test_passphrase_123")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{Name: "enc", Cookies: testCookies}
	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("enc")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.Cookies != account.Cookies {
		t.Errorf("Cookies mismatch after encryption/decryption")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(content, []byte("040069b1c2d3e4f5a6b7")) {
		t.Error("File contains plaintext session cookie")
	}

	t.Setenv(PassphraseEnv, "another passphrase")
	other, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Retrieve("enc"); err == nil {
		t.Error("Expected decryption to fail with the wrong passphrase")
	}

	if err := store.Delete("enc"); err != nil {
		t.Errorf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file to be removed with its last account")
	}
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(PassphraseEnv, "")
	dir := t.TempDir()

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Store(&Account{Name: "gen", Cookies: testCookies}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".passphrase")); err != nil {
		t.Errorf("Expected passphrase file: %v", err)
	}

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reopened.Retrieve("gen"); err != nil {
		t.Errorf("Expected reopened store to reuse the passphrase: %v", err)
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(CookiesEnv, testCookies)
	t.Setenv(UserAgentEnv, "EnvAgent/1.0")

	store := NewEnvironmentStore()
	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.Cookies != testCookies || account.UserAgent != "EnvAgent/1.0" {
		t.Errorf("Unexpected account: %+v", account)
	}
	if account.Name != "env" {
		t.Errorf("Expected default name env, got %s", account.Name)
	}
	if err := store.Store(&Account{}); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}

	manager := NewManagerWithStores(NewMockStore(), store)
	def, err := manager.RetrieveDefault()
	if err != nil || def.Cookies != testCookies {
		t.Errorf("Expected environment session as default, got %v, %v", def, err)
	}

	t.Setenv(CookiesEnv, "")
	if store.Exists("") {
		t.Error("Expected no environment session")
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	if err != nil {
		t.Fatalf("Failed to create keyring store: %v", err)
	}

	for _, name := range []string{"b", "a"} {
		if err := store.Store(&Account{Name: name, Cookies: testCookies}); err != nil {
			t.Fatalf("Failed to store %s: %v", name, err)
		}
	}
	if !store.Exists("a") {
		t.Error("Account should exist")
	}

	accounts, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 || accounts[0].Name != "a" {
		t.Errorf("Expected accounts a and b, got %d", len(accounts))
	}

	if err := store.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("a"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	accounts, _ = store.List()
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account after delete, got %d", len(accounts))
	}
}

func TestShowCookieExtractionGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowCookieExtractionGuide(&buf)
	if !strings.Contains(buf.String(), "a1 and web_session") {
		t.Error("Guide should name the required cookies")
	}

	buf.Reset()
	ShowQuickExtractGuide(&buf)
	if !strings.Contains(buf.String(), "Cookie") {
		t.Error("Quick guide should mention the Cookie header")
	}
}
