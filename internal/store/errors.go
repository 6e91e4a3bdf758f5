package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for graph store operations. Check with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a unique index rejected a write. With
	// upsert-only ingestion this should not happen outside of races.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrTransactionConflict indicates concurrent transactions touched the
	// same records. The ingest is safe to retry; all writes are upserts.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// StoreError wraps a failed store operation. The whole transaction the
// operation belonged to has been rolled back.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// classifyQueryError inspects a SurrealDB error and wraps it with the
// matching sentinel. Unknown errors pass through unchanged.
func classifyQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		if strings.Contains(msg, "already exists") {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, msg)
		}
		if strings.Contains(msg, "Transaction conflict") {
			return fmt.Errorf("%w: %s", ErrTransactionConflict, msg)
		}
		if strings.Contains(msg, "not found") {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
	}

	return err
}
