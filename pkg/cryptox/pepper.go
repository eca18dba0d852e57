package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	pepperMu   sync.Mutex
	pepper     string
	pepperFile string
)

// SetPepperPath sets where the pepper is read from (or created on first
// use). It clears any pepper already loaded.
func SetPepperPath(file string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	pepperFile = file
	pepper = ""
}

// SetPepper pins the pepper value, skipping the file entirely.
func SetPepper(p string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	pepper = p
}

// GetPepper returns the loaded pepper, loading or generating it first if
// needed. A pepper that cannot be loaded is fatal: hashes made without it
// would never verify again.
func GetPepper() string {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepper != "" {
		return pepper
	}

	p, err := loadOrGeneratePepper(pepperFile)
	if err != nil {
		slog.Error("failed to load or generate pepper", slog.String("file", pepperFile), slog.Any("error", err))
		os.Exit(1)
	}
	pepper = p
	return pepper
}

// LoadPepper eagerly loads the pepper so startup fails loudly instead of on
// the first password operation.
func LoadPepper() error {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	p, err := loadOrGeneratePepper(pepperFile)
	if err != nil {
		return err
	}
	pepper = p
	return nil
}

func loadOrGeneratePepper(file string) (string, error) {
	if file == "" {
		return "", errors.New("cryptox: pepper file not configured")
	}
	file = filepath.Clean(file)

	b, err := os.ReadFile(file)
	if err == nil {
		if len(b) == 0 {
			return "", errors.New("cryptox: pepper file is empty")
		}
		return string(b), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return "", err
	}
	raw := make([]byte, keyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(raw)
	if err := os.WriteFile(file, []byte(p), 0o600); err != nil {
		return "", err
	}
	return p, nil
}
