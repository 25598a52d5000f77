// FILE: internal/core/error.go
package core

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrGameNotFound      = "GAME_NOT_FOUND"
	ErrRunNotFound       = "RUN_NOT_FOUND"
	ErrMoveNotFound      = "MOVE_NOT_FOUND"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidFEN        = "INVALID_FEN"
	ErrInternalError     = "INTERNAL_ERROR"
	ErrStorageDisabled   = "STORAGE_DISABLED"
)

// ErrIntegrity marks a position in a move table that has no entry in the
// position set it is being repopulated from. It signals a pipeline ordering
// bug, never bad input.
var ErrIntegrity = errors.New("position set integrity violation")

// ParseError locates a game record that could not be replayed
type ParseError struct {
	Index  int // archive position of the record, 0-based
	GameID int
	Ply    int // 0 when the failure is not tied to a move
	Move   string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Ply > 0 {
		return fmt.Sprintf("game %d (record %d): ply %d %q: %v", e.GameID, e.Index, e.Ply, e.Move, e.Err)
	}
	return fmt.Sprintf("game %d (record %d): %v", e.GameID, e.Index, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IntegrityError names the first row whose position was missing
type IntegrityError struct {
	GameID   int
	Ply      int
	Position string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: game %d ply %d position %q", ErrIntegrity, e.GameID, e.Ply, e.Position)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}
