package faults

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	ErrInvalidDebounce  = errors.ErrorCode("faults_invalid_debounce")
	ErrNothingDisplayed = errors.ErrorCode("faults_nothing_displayed")
	ErrInvalidDBPath    = errors.ErrorCode("faults_invalid_db_path")
	ErrStorageInit      = errors.ErrInitFailed
	ErrStorageAccess    = errors.ErrorCode("faults_storage_access_failed")
	ErrStorageClose     = errors.ErrShutdownFailed
)
