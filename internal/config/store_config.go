package config

import (
	"os"
	"path/filepath"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetStorePath() string
	GetStorePassphrase() string
}

const (
	storeDriverVar     = "WORKBENCH_STORE"
	storePathVar       = "WORKBENCH_STORE_PATH"
	storePassphraseVar = "WORKBENCH_STORE_PASSPHRASE"

	// DefaultStorageDir is relative to the user's home directory.
	DefaultStorageDir = ".config/workbench"
)

type Store struct{}

var _ StoreConfig = Store{}

// GetStoreDriver returns one of "memory", "file" or "sqlite".
func (Store) GetStoreDriver() string {
	return GetEnv(storeDriverVar, "file")
}

func (s Store) GetStorePath() string {
	if path := os.Getenv(storePathVar); path != "" {
		return path
	}
	name := "session.json"
	if s.GetStoreDriver() == "sqlite" {
		name = "session.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, DefaultStorageDir, name)
}

// GetStorePassphrase returns the passphrase used to seal stored values.
// Empty disables sealing.
func (Store) GetStorePassphrase() string {
	return GetEnv(storePassphraseVar, "")
}
