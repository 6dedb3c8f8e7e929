package gameerr

import (
	"errors"
	"fmt"
)

// Kind groups errors by how the caller should react to them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindState      Kind = "state"
	KindConflict   Kind = "conflict"
	KindResource   Kind = "resource"
	KindInternal   Kind = "internal"
)

// Error is the error type returned by the game packages. Two errors are
// considered equal by errors.Is when their codes match, so a sentinel with
// extra detail attached still matches the bare sentinel.
type Error struct {
	Kind   Kind   `json:"kind"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

var (
	ErrConfigInvalid    = newError(KindValidation, "config_invalid")
	ErrInvalidNickname  = newError(KindValidation, "invalid_nickname")
	ErrMalformedAnswer  = newError(KindValidation, "malformed_answer")
	ErrMalformedMessage = newError(KindValidation, "malformed_message")

	ErrGameNotFound   = newError(KindNotFound, "game_not_found")
	ErrUnknownWatcher = newError(KindNotFound, "unknown_watcher")

	ErrGameExpired        = newError(KindState, "game_expired")
	ErrGameAlreadyStarted = newError(KindState, "game_already_started")
	ErrPhaseMismatch      = newError(KindState, "phase_mismatch")
	ErrSlideMismatch      = newError(KindState, "slide_mismatch")
	ErrNotHost            = newError(KindState, "not_host")
	ErrNotAPlayer         = newError(KindState, "not_a_player")
	ErrNotJoined          = newError(KindState, "not_joined")
	ErrTeamsDisabled      = newError(KindState, "teams_disabled")

	ErrDuplicateAnswer = newError(KindConflict, "duplicate_answer")
	ErrNicknameTaken   = newError(KindConflict, "nickname_taken")
	ErrAlreadyJoined   = newError(KindConflict, "already_joined")

	ErrBacklogFull = newError(KindResource, "backlog_full")
	ErrGameFull    = newError(KindResource, "game_full")

	ErrInternal = newError(KindInternal, "internal")
)

// Withf returns a copy of sentinel carrying a formatted detail message.
func Withf(sentinel *Error, format string, args ...any) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches err's message as detail to a copy of sentinel.
func Wrap(sentinel *Error, err error) *Error {
	if err == nil {
		return sentinel
	}
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Detail: err.Error()}
}

// From converts any error into an *Error, classifying unknown errors as
// internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(ErrInternal, err)
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	return From(err).Kind
}
