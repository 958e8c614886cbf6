package metrics

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("metrics_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("metrics_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("metrics_schema_validation_failed")
	ErrTransactionFailed      = errors.ErrorCode("metrics_transaction_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrInitFailed
	ErrStorageClose = errors.ErrShutdownFailed

	// Collection Errors
	ErrInvalidSnapshot = errors.ErrorCode("metrics_invalid_snapshot")
	ErrRecordFailed    = errors.ErrorCode("metrics_record_failed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)
