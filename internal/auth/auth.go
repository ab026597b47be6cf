// Package auth manages the token websocket clients present to the bridge.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvToken pre-sets the token, which is useful in containers.
const EnvToken = "FRAMEWIRE_TOKEN"

const tokenBytes = 16

// Generate creates a random token and writes it to dataDir/token with
// permissions 0600.
func Generate(dataDir string) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random token: %w", err)
	}
	token := hex.EncodeToString(b)
	if err := write(dataDir, token); err != nil {
		return "", err
	}
	return token, nil
}

// LoadOrGenerate returns the bridge token using this priority:
//  1. FRAMEWIRE_TOKEN (also written to disk so other commands agree)
//  2. Existing token file on disk
//  3. Newly generated token
func LoadOrGenerate(dataDir string) (string, error) {
	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		if err := write(dataDir, env); err != nil {
			return "", err
		}
		return env, nil
	}

	if data, err := os.ReadFile(tokenPath(dataDir)); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, nil
		}
	}

	return Generate(dataDir)
}

// Valid reports whether candidate matches token. An empty token never
// matches. The comparison is constant-time.
func Valid(token, candidate string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(strings.TrimSpace(candidate))) == 1
}

func write(dataDir, token string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	path := tokenPath(dataDir)
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token to %s: %w", path, err)
	}
	return nil
}

func tokenPath(dataDir string) string {
	return filepath.Join(dataDir, "token")
}
