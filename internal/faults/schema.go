package faults

import "database/sql"

const createHistoryTableSQL = `
CREATE TABLE IF NOT EXISTS fault_history (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    severity TEXT NOT NULL,
    context TEXT,
    timestamp INTEGER NOT NULL,
    recovered INTEGER NOT NULL,
    chosen_action TEXT
);
CREATE INDEX IF NOT EXISTS idx_fault_history_timestamp
    ON fault_history (timestamp);
`

func initSchema(db *sql.DB) error {
	_, err := db.Exec(createHistoryTableSQL)
	return err
}
