package faults

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/verne/gamepulse/internal/errors"
	"codeberg.org/verne/gamepulse/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

// Repository stores resolved fault records durably.
type Repository interface {
	Store(record *Record) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing fault history repository at: %s", cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func (r *sqliteRepository) Store(record *Record) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
        INSERT INTO fault_history (
            id, kind, severity, context, timestamp, recovered, chosen_action
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            recovered = excluded.recovered,
            chosen_action = excluded.chosen_action
    `,
		record.ID.String(),
		string(record.Kind),
		string(record.Severity),
		record.Context,
		record.Timestamp.Unix(),
		boolToInt(record.Recovered),
		string(record.ChosenAction),
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}
