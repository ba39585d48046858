package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Fixed keys of the stored credential bundle.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyLoginData    = "loginData"
	KeyUserData     = "userData"
)

// Keys lists every key the SDK writes to a CredentialStore.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyLoginData, KeyUserData}

// ErrNoCredentials is returned when a store holds no refresh token to resume from.
var ErrNoCredentials = errors.New("no stored credentials")

// CredentialStore keeps plain string values under fixed keys. Values are not
// encrypted and the last write wins.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Bundle is everything a client keeps between runs.
type Bundle struct {
	AccessToken  string
	RefreshToken string
	LoginData    string
	UserData     string
}

// LoginData is what the SDK stores under KeyLoginData.
type LoginData struct {
	Email    string `json:"email"`
	BaseURL  string `json:"baseUrl"`
	LoggedIn int64  `json:"loggedIn"`
}

// LoadBundle reads all four keys. Missing keys come back empty.
func LoadBundle(ctx context.Context, store CredentialStore) (Bundle, error) {
	var b Bundle
	for key, dst := range b.fields() {
		v, _, err := store.Get(ctx, key)
		if err != nil {
			return Bundle{}, fmt.Errorf("read %s: %w", key, err)
		}
		*dst = v
	}
	return b, nil
}

// SaveBundle writes the non-empty fields of b.
func SaveBundle(ctx context.Context, store CredentialStore, b Bundle) error {
	for key, src := range b.fields() {
		if *src == "" {
			continue
		}
		if err := store.Set(ctx, key, *src); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}

// ClearCredentials removes every key in Keys.
func ClearCredentials(ctx context.Context, store CredentialStore) error {
	var errs []error
	for _, key := range Keys {
		if err := store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bundle) fields() map[string]*string {
	return map[string]*string{
		KeyAccessToken:  &b.AccessToken,
		KeyRefreshToken: &b.RefreshToken,
		KeyLoginData:    &b.LoginData,
		KeyUserData:     &b.UserData,
	}
}

func userDataJSON(u UserInfo) string {
	if u.ID == "" {
		return ""
	}
	data, err := json.Marshal(u)
	if err != nil {
		return ""
	}
	return string(data)
}

// MemoryCredentialStore is a CredentialStore backed by a map. Useful in tests
// and for short lived processes.
type MemoryCredentialStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{values: make(map[string]string)}
}

func (m *MemoryCredentialStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryCredentialStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryCredentialStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports how many keys are stored.
func (m *MemoryCredentialStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}
