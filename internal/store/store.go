// Package store implements the foodgram data model operations and enforces the
// integrity rules around recipes, the catalog, subscriptions and the per-user
// collections.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gorm.io/gorm"

	"foodgram/internal/validation"
)

var (
	ErrNotFound           = errors.New("store: not found")
	ErrConflict           = errors.New("store: conflict")
	ErrPermissionDenied   = errors.New("store: permission denied")
	ErrUnauthenticated    = errors.New("store: authentication required")
	ErrInvalidCredentials = errors.New("store: invalid credentials")
)

// ValidationError reports every failing field of a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "store: validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// ConflictError identifies the field whose uniqueness was violated. It matches
// ErrConflict with errors.Is.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: conflict on %s: %s", e.Field, e.Message)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// validateStruct runs the struct-tag rules and folds failures into a ValidationError.
func validateStruct(v any) *ValidationError {
	err := validation.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return &ValidationError{Fields: verrs.Fields()}
	}
	return invalid("non_field_errors", err.Error())
}

// translate maps driver-level failures onto the store's error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return invalid("non_field_errors", "Referenced object does not exist.")
	default:
		return err
	}
}

// Store exposes the domain operations over a gorm connection.
type Store struct {
	db *gorm.DB
}

// New wraps db. It panics on a nil handle since no operation could succeed.
func New(db *gorm.DB) *Store {
	if db == nil {
		panic("store: nil database")
	}
	return &Store{db: db}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Page selects a window of a list. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Normalize clamps the page to sane bounds. Number is capped so the row
// window never overflows an int32 offset.
func (p Page) Normalize(defaultSize, maxSize int) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}
	if p.Size > 0 && p.Number > math.MaxInt32/p.Size {
		p.Number = math.MaxInt32 / p.Size
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return q
	}
	return q.Limit(p.Size).Offset(p.Offset())
}
