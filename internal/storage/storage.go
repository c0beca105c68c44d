// Package storage builds the configured store.Store.
package storage

import (
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/workbench-session/internal/config"
	apperrors "github.com/jrsteele09/workbench-session/internal/errors"
	"github.com/jrsteele09/workbench-session/store"
	"github.com/jrsteele09/workbench-session/store/file"
	"github.com/jrsteele09/workbench-session/store/memory"
	"github.com/jrsteele09/workbench-session/store/sealed"
	"github.com/jrsteele09/workbench-session/store/sqlite"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the store selected by cfg, sealed when a passphrase is set.
func Open(cfg config.StoreConfig) (store.Store, error) {
	var (
		s   store.Store
		err error
	)

	driver := cfg.GetStoreDriver()
	switch driver {
	case DriverMemory:
		s = memory.New()
	case DriverFile:
		s, err = file.New(cfg.GetStorePath())
	case DriverSQLite:
		s, err = sqlite.NewStore(cfg.GetStorePath())
	default:
		return nil, apperrors.Wrapf(apperrors.ErrUnsupported, "[storage.Open] driver %q", driver)
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[storage.Open] %s", driver)
	}

	if passphrase := cfg.GetStorePassphrase(); passphrase != "" {
		sealedStore, err := sealed.New(s, passphrase)
		if err != nil {
			if c, ok := s.(interface{ Close() error }); ok {
				_ = c.Close()
			}
			return nil, apperrors.Wrapf(err, "[storage.Open] seal")
		}
		s = sealedStore
	}

	log.Debug().
		Str("driver", driver).
		Bool("sealed", cfg.GetStorePassphrase() != "").
		Msg("session store opened")
	return s, nil
}
