package league

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced match or player does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when registering a player id that is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError rejects a malformed match or player before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Validate checks the ledger invariants of a match.
func (m MatchFields) Validate() error {
	switch {
	case strings.TrimSpace(m.Player1) == "":
		return &ValidationError{Field: "p1", Reason: "is required"}
	case strings.TrimSpace(m.Player2) == "":
		return &ValidationError{Field: "p2", Reason: "is required"}
	case m.Player1 == m.Player2:
		return &ValidationError{Field: "p2", Reason: "players cannot be the same"}
	case m.Winner != m.Player1 && m.Winner != m.Player2:
		return &ValidationError{Field: "winner", Reason: "must be one of the players"}
	case m.Season <= 0:
		return &ValidationError{Field: "season", Reason: "must be a positive number"}
	}
	return nil
}

// Validate checks that a player can be registered.
func (p Player) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return &ValidationError{Field: "username", Reason: "is required"}
	}
	return nil
}
