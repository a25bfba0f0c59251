package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStateTransition occurs when a document's status forbids the
	// requested edit, delete, or status change.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrInvalidStatus occurs when a status-change request names a state the
	// document type does not recognise.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrDuplicateKey surfaces unique-constraint violations (document number,
	// entity code, email) distinctly so callers can retry allocation.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrSequenceExhausted occurs when number allocation keeps colliding past
	// the retry cap.
	ErrSequenceExhausted = errors.New("sequence exhausted")
)

// Stable error codes surfaced to callers alongside generic messages.
const (
	CodeValidation    = "VALIDATION_FAILED"
	CodeInvalidState  = "INVALID_STATE_TRANSITION"
	CodeInvalidStatus = "INVALID_STATUS"
	CodeDuplicate     = "DUPLICATE_KEY"
	CodeReferential   = "REFERENTIAL_CONFLICT"
	CodeNotFound      = "NOT_FOUND"
	CodePersistence   = "PERSISTENCE_FAILURE"
)

// ValidationErrors collects every failed field so the caller can present all
// problems at once instead of fixing them one by one.
type ValidationErrors struct {
	Fields map[string]string
}

// NewValidationErrors returns an empty collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Fields: make(map[string]string)}
}

// Add records a problem for a field. Later entries for the same field win.
func (v *ValidationErrors) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	v.Fields[field] = message
}

// Addf records a formatted problem for a field.
func (v *ValidationErrors) Addf(field, format string, args ...any) {
	v.Add(field, fmt.Sprintf(format, args...))
}

// Empty reports whether no problems were collected.
func (v *ValidationErrors) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// ErrOrNil returns the collector as an error, or nil when nothing failed.
func (v *ValidationErrors) ErrOrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ReferentialConflictError reports a refused delete, naming the relationship
// that still references the entity.
type ReferentialConflictError struct {
	Entity    string
	EntityID  int64
	BlockedBy string
}

func (e *ReferentialConflictError) Error() string {
	return fmt.Sprintf("%s %d is still referenced by %s", e.Entity, e.EntityID, e.BlockedBy)
}

// PersistenceError wraps an underlying store failure. Handlers log the cause
// and present only a generic message.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// WrapPersistence classifies a repository error. Unique violations map to
// ErrDuplicateKey so number allocation can retry; everything else becomes a
// PersistenceError carrying the cause.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrSequenceExhausted) {
		return err
	}
	var vErr *ValidationErrors
	var rErr *ReferentialConflictError
	if errors.As(err, &vErr) || errors.As(err, &rErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pgErr.ConstraintName)
	}
	return &PersistenceError{Op: op, Cause: err}
}

// IsDuplicateKey reports whether err is a unique-constraint violation, either
// already classified or raw from pgx.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ErrorCode maps an error to its stable code.
func ErrorCode(err error) string {
	var vErr *ValidationErrors
	var refErr *ReferentialConflictError
	switch {
	case errors.As(err, &vErr):
		return CodeValidation
	case errors.Is(err, ErrInvalidStateTransition):
		return CodeInvalidState
	case errors.Is(err, ErrInvalidStatus):
		return CodeInvalidStatus
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrSequenceExhausted):
		return CodeDuplicate
	case errors.As(err, &refErr):
		return CodeReferential
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodePersistence
	}
}

// UserSafeMessage returns text suitable for an end user. Internal detail is
// never echoed; validation and conflict errors are explicit enough to act on.
func UserSafeMessage(err error) string {
	var vErr *ValidationErrors
	var refErr *ReferentialConflictError
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.As(err, &refErr):
		return refErr.Error()
	case errors.Is(err, ErrInvalidStateTransition):
		return "the document status does not allow this action"
	case errors.Is(err, ErrInvalidStatus):
		return "unrecognised status"
	case errors.Is(err, ErrDuplicateKey):
		return "a record with the same unique value already exists"
	case errors.Is(err, ErrNotFound):
		return "record not found"
	default:
		return "the operation could not be completed"
	}
}
