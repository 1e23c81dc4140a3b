package auth

import (
	"errors"
	"os"
	"time"
)

// ErrStoreReadOnly is returned by the environment store for writes
var ErrStoreReadOnly = errors.New("environment store is read-only")

// EnvironmentStore reads the credential from WEIBOGRAB_COOKIE. It is
// the last link in the chain and supports only retrieval.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreReadOnly
}

func (e *EnvironmentStore) Retrieve() (*Credential, error) {
	cookie := os.Getenv("WEIBOGRAB_COOKIE")
	if cookie == "" {
		return nil, ErrCredentialNotFound
	}
	return &Credential{
		Cookie:       cookie,
		UserAgent:    os.Getenv("WEIBOGRAB_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) Delete() error {
	return ErrStoreReadOnly
}

func (e *EnvironmentStore) Exists() bool {
	return os.Getenv("WEIBOGRAB_COOKIE") != ""
}
