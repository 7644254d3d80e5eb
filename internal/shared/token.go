package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

// cachedToken is the on-disk shape of an [oauth2.Token].
type cachedToken struct {
	AccessToken  string    `toml:"access_token"`
	TokenType    string    `toml:"token_type"`
	RefreshToken string    `toml:"refresh_token"`
	Expiry       time.Time `toml:"expiry"`
}

// TokenCache persists the OAuth token between invocations.
type TokenCache struct {
	path string
}

// NewTokenCache returns a cache backed by the file at path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Path returns the location of the cache file.
func (c *TokenCache) Path() string {
	return c.path
}

// Load reads the cached token. It returns nil and no error when nothing is cached yet.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	var cached cachedToken
	if _, err := toml.DecodeFile(c.path, &cached); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	if cached.AccessToken == "" && cached.RefreshToken == "" {
		return nil, nil
	}

	return &oauth2.Token{
		AccessToken:  cached.AccessToken,
		TokenType:    cached.TokenType,
		RefreshToken: cached.RefreshToken,
		Expiry:       cached.Expiry,
	}, nil
}

// Save writes token to the cache file with owner-only permissions.
func (c *TokenCache) Save(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidInput)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token cache directory: %w", err)
		}
	}

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open token cache: %w", err)
	}
	defer f.Close()

	cached := cachedToken{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if err := toml.NewEncoder(f).Encode(cached); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}

	return nil
}

// Delete removes the cache file. Deleting a missing cache is not an error.
func (c *TokenCache) Delete() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token cache: %w", err)
	}
	return nil
}
