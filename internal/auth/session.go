// internal/auth/session.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "filmexport"
	// FallbackDir is the directory for file-based session storage, relative to the home directory
	FallbackDir = ".filmexport/sessions"

	manifestKey = "_manifest"
	accessCheckKey    = "_test_keyring_access_"
)

var (
	// ErrSessionNotFound is returned when no session is stored under a name
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when every cookie of a stored session has expired
	ErrSessionExpired = errors.New("session expired")
)

// Session is a stored set of site cookies, typically the clearance cookies
// obtained after passing an anti-bot challenge in a real browser
type Session struct {
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Cookies   []Cookie          `json:"cookies"`
	Headers   map[string]string `json:"headers,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// NewSession builds a session and derives its expiry from the cookies
func NewSession(name, url string, cookies []Cookie) *Session {
	return &Session{
		Name:      name,
		URL:       url,
		Cookies:   cookies,
		Headers:   make(map[string]string),
		CreatedAt: time.Now(),
		ExpiresAt: LatestExpiry(cookies),
	}
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// HTTPCookies converts the stored cookies for use with net/http clients
func (s *Session) HTTPCookies() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		switch c.SameSite {
		case "Strict":
			hc.SameSite = http.SameSiteStrictMode
		case "Lax":
			hc.SameSite = http.SameSiteLaxMode
		case "None":
			hc.SameSite = http.SameSiteNoneMode
		}
		cookies = append(cookies, hc)
	}
	return cookies
}

// LatestExpiry returns the furthest expiry among cookies, or the zero time when
// none of them carries one
func LatestExpiry(cookies []Cookie) time.Time {
	var latest float64
	for _, c := range cookies {
		if c.Expires > latest {
			latest = c.Expires
		}
	}
	if latest == 0 {
		return time.Time{}
	}
	return time.Unix(int64(latest), 0)
}

// Store persists sessions in the OS keyring, or as JSON files when no keyring
// is reachable (containers, CI)
type Store struct {
	dir        string
	useKeyring bool
}

// NewFileStore creates a store that keeps one JSON file per session in dir
func NewFileStore(dir string) *Store {
	return &Store{dir: dir}
}

// NewKeyringStore creates a store backed by the OS keyring
func NewKeyringStore() *Store {
	return &Store{useKeyring: true}
}

// DefaultStore picks the keyring when it is writable and falls back to
// ~/.filmexport/sessions otherwise
func DefaultStore() (*Store, error) {
	if keyringAvailable() {
		return NewKeyringStore(), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}
	return NewFileStore(filepath.Join(home, FallbackDir)), nil
}

func keyringAvailable() bool {
	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		return false
	}
	if err := keyring.Set(KeyringService, accessCheckKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(KeyringService, accessCheckKey)
	return true
}

// Backend names the storage in use, for display
func (s *Store) Backend() string {
	if s.useKeyring {
		return "keyring"
	}
	return s.dir
}

func (s *Store) path(name string) (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Save stores a session, replacing any previous one with the same name
func (s *Store) Save(session *Session) error {
	if err := validateName(session.Name); err != nil {
		return err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if !s.useKeyring {
		path, err := s.path(session.Name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save session file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, session.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return s.updateManifest(session.Name, true)
}

// Load retrieves a session. Expired sessions are reported with ErrSessionExpired.
func (s *Store) Load(name string) (*Session, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var data string
	if !s.useKeyring {
		path, err := s.path(name)
		if err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
			}
			return nil, fmt.Errorf("failed to load session file: %w", err)
		}
		data = string(raw)
	} else {
		v, err := keyring.Get(KeyringService, name)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
			}
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
		data = v
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}

	if session.Expired(time.Now()) {
		return &session, fmt.Errorf("%w: %s expired at %s", ErrSessionExpired, name, session.ExpiresAt.Format(time.RFC1123))
	}
	return &session, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if !s.useKeyring {
		path, err := s.path(name)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete session file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return s.updateManifest(name, false)
}

// List returns the names of all stored sessions, sorted
func (s *Store) List() ([]string, error) {
	if !s.useKeyring {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			if os.IsNotExist(err) {
				return []string{}, nil
			}
			return nil, err
		}

		sessions := []string{}
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				sessions = append(sessions, strings.TrimSuffix(entry.Name(), ".json"))
			}
		}
		slices.Sort(sessions)
		return sessions, nil
	}

	// The keyring cannot enumerate entries, so names are tracked in a manifest
	manifest, err := keyring.Get(KeyringService, manifestKey)
	if err != nil {
		return []string{}, nil
	}

	var sessions []string
	if err := json.Unmarshal([]byte(manifest), &sessions); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	slices.Sort(sessions)
	return sessions, nil
}

func (s *Store) updateManifest(name string, add bool) error {
	sessions, _ := s.List()

	idx := slices.Index(sessions, name)
	switch {
	case add && idx < 0:
		sessions = append(sessions, name)
	case !add && idx >= 0:
		sessions = slices.Delete(sessions, idx, idx+1)
	default:
		return nil
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, manifestKey, string(data))
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if name == manifestKey || name == accessCheckKey || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid session name: %q", name)
	}
	return nil
}
