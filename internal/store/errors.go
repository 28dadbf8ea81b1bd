package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies a store failure.
type Kind string

const (
	KindIO       Kind = "IO"
	KindDecode   Kind = "DECODE"
	KindNotFound Kind = "NOT_FOUND"
	KindExists   Kind = "EXISTS"
)

var (
	// ErrNotFound is matched by errors.Is for every KindNotFound error.
	ErrNotFound = errors.New("worker not found")

	// ErrExists is matched by errors.Is for every KindExists error.
	ErrExists = errors.New("worker already exists")
)

// Error is returned by every failing Store operation.
type Error struct {
	Kind Kind
	Op   string
	ID   uuid.UUID
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Kind)
	if e.ID != uuid.Nil {
		msg += fmt.Sprintf(" (id %s)", e.ID)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (file %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) and errors.Is(err, ErrExists) match on
// the kind even when the cause is something else.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrExists:
		return e.Kind == KindExists
	}
	return false
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// KindOf extracts the kind of a store error, or "" for other errors.
func KindOf(err error) Kind {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return ""
}

func ioError(op string, id uuid.UUID, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, ID: id, Path: path, Err: err}
}

func decodeError(op, path string, err error) *Error {
	return &Error{Kind: KindDecode, Op: op, Path: path, Err: err}
}

func notFound(op string, id uuid.UUID) *Error {
	return &Error{Kind: KindNotFound, Op: op, ID: id, Err: ErrNotFound}
}
