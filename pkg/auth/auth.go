package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Credential is the Weibo web session used for authenticated calls.
// The cookie is the whole Cookie header value captured from a logged-in
// browser session.
type Credential struct {
	Cookie       string    `json:"cookie"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CookieStore stores and retrieves the session credential
type CookieStore interface {
	Store(cred *Credential) error
	Retrieve() (*Credential, error)
	Delete() error
	Exists() bool
}

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCredential  = errors.New("invalid credential")
)

// Manager tries a chain of stores: system keychain, encrypted file,
// then environment. Store writes to the first store that accepts;
// Retrieve reads from the first store that has a credential.
type Manager struct {
	stores []CookieStore
}

// NewManager builds the store chain for this system
func NewManager() (*Manager, error) {
	var stores []CookieStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "cookie.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves the credential using the first available store
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Cookie == "" {
		return ErrInvalidCredential
	}
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credential: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets the credential from the first store that has one
func (m *Manager) Retrieve() (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, ErrCredentialNotFound
}

// Delete removes the credential from every store that holds it
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}
	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credential: %w", lastErr)
	}
	if !deleted {
		return ErrCredentialNotFound
	}
	return nil
}

// Exists reports whether any store holds a credential
func (m *Manager) Exists() bool {
	for _, store := range m.stores {
		if store.Exists() {
			return true
		}
	}
	return false
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "weibograb")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "weibograb")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "weibograb")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "weibograb")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// MaskCookie masks all but the edges of a cookie for display
func MaskCookie(cookie string) string {
	if len(cookie) <= 16 {
		return "********"
	}
	return cookie[:8] + "..." + cookie[len(cookie)-8:]
}
