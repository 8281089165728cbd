package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "file",
			ID:       "1756723200000",
		}
		assert.Equal(t, "file with ID 1756723200000 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("constructor", func(t *testing.T) {
		err := pkgerrors.NewNotFoundError("category", "decretos")
		assert.Equal(t, "category with ID decretos not found", err.Error())
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("file", "missing")
		wrapped := fmt.Errorf("lookup: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "name",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field name: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrValidation))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Message: "missing category",
		}
		assert.Equal(t, "validation failed: missing category", err.Error())
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("constructor", func(t *testing.T) {
		err := pkgerrors.NewValidationError("categoryId", "bogus", "does not resolve to a live category")
		assert.Contains(t, err.Error(), "categoryId")
		assert.Contains(t, err.Error(), "does not resolve")
	})
}

func TestConflictError(t *testing.T) {
	t.Run("with id", func(t *testing.T) {
		err := pkgerrors.NewConflictError("category", "abc123", "still owns 3 files")
		assert.Equal(t, "conflict on category abc123: still owns 3 files", err.Error())
		assert.True(t, pkgerrors.IsConflict(err))
	})

	t.Run("without id", func(t *testing.T) {
		err := pkgerrors.NewConflictError("category", "", "name already exists")
		assert.Equal(t, "conflict on category: name already exists", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrConflict))
	})
}

func TestPermissionError(t *testing.T) {
	err := pkgerrors.NewPermissionError("deleteFile")
	assert.Equal(t, "operation deleteFile requires an admin session", err.Error())
	assert.True(t, pkgerrors.IsPermission(err))
	assert.True(t, errors.Is(err, pkgerrors.ErrPermission))
}

func TestReadOnlyError(t *testing.T) {
	err := pkgerrors.NewReadOnlyError("addCategory")
	assert.Equal(t, "catalog is read-only, cannot addCategory", err.Error())
	assert.True(t, pkgerrors.IsReadOnly(err))
	assert.True(t, errors.Is(err, pkgerrors.ErrReadOnly))
}

func TestPersistenceError(t *testing.T) {
	t.Run("wraps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := pkgerrors.NewPersistenceError("create", "file", "f1", cause)
		assert.Contains(t, err.Error(), "create")
		assert.Contains(t, err.Error(), "connection refused")
		assert.True(t, pkgerrors.IsPersistence(err))
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("wrap helper returns nil on nil", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapPersistence("delete", "category", "c1", nil))
	})
}

func TestAuthenticationError(t *testing.T) {
	err := pkgerrors.NewAuthenticationError("admin", "invalid credentials")
	assert.Equal(t, "authentication failed for admin: invalid credentials", err.Error())
	assert.True(t, pkgerrors.IsAuthentication(err))
}

func TestInitializationError(t *testing.T) {
	cause := errors.New("adapter unreachable")
	err := pkgerrors.NewInitializationError("catalog store", cause)
	assert.Contains(t, err.Error(), "catalog store")
	assert.True(t, errors.Is(err, pkgerrors.ErrInitialization))
	assert.True(t, errors.Is(err, cause))
}

func TestWrapHelpers(t *testing.T) {
	t.Run("WrapIO", func(t *testing.T) {
		cause := errors.New("disk full")
		err := pkgerrors.WrapIO("write", "/data/files/1.json", cause)
		assert.Contains(t, err.Error(), "/data/files/1.json")
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("WrapParse", func(t *testing.T) {
		cause := errors.New("unexpected end of input")
		err := pkgerrors.WrapParse("json", "backup.json", cause)
		assert.Contains(t, err.Error(), "backup.json")
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
		assert.NoError(t, pkgerrors.WrapParse("yaml", "", nil))
	})
}
