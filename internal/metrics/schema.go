package metrics

import (
	"database/sql"

	"codeberg.org/verne/gamepulse/internal/errors"
	"codeberg.org/verne/gamepulse/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS session_metrics (
	       timestamp        INTEGER PRIMARY KEY,
	       frame_rate       REAL NOT NULL,
	       quality_tier     TEXT NOT NULL,
	       active_anims     INTEGER NOT NULL CHECK (typeof(active_anims) = 'integer'),
	       queued_anims     INTEGER NOT NULL CHECK (typeof(queued_anims) = 'integer'),
	       turns_started    INTEGER NOT NULL CHECK (typeof(turns_started) = 'integer'),
	       cards_played     INTEGER NOT NULL CHECK (typeof(cards_played) = 'integer'),
	       games_completed  INTEGER NOT NULL CHECK (typeof(games_completed) = 'integer'),
	       faults_total     INTEGER NOT NULL CHECK (typeof(faults_total) = 'integer'),
	       faults_blocking  INTEGER NOT NULL CHECK (typeof(faults_blocking) = 'integer'),
	       faults_critical  INTEGER NOT NULL CHECK (typeof(faults_critical) = 'integer')
	   );`

	insertSnapshotSQL = `
    INSERT OR REPLACE INTO session_metrics (
        timestamp,
        frame_rate, quality_tier,
        active_anims, queued_anims,
        turns_started, cards_played, games_completed,
        faults_total, faults_blocking, faults_critical
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Debug().
		Int("version", SchemaVersion).
		Msg("Telemetry schema initialized")

	return nil
}

// GetSchemaVersion returns the current schema version
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().Wrap(ErrSchemaValidationFailed, err)
	}
	return exists, nil
}

// ValidateAndUpdateSchema initializes an empty database and rejects a
// database written by a different schema version.
func ValidateAndUpdateSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	version, err := GetSchemaVersion(db)
	if err != nil {
		return err
	}

	switch version {
	case 0:
		return InitSchema(db, log)
	case SchemaVersion:
		return nil
	default:
		return errFactory.WithData(ErrSchemaValidationFailed, struct {
			Found    int
			Expected int
		}{
			Found:    version,
			Expected: SchemaVersion,
		})
	}
}
