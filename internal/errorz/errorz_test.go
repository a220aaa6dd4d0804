package errorz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	assert.Equal(t, ErrValidation, Kind(Validation("limit %d", 0)))
	assert.Equal(t, ErrNotFound, Kind(fmt.Errorf("load: %w", NotFound("question"))))
	assert.Equal(t, ErrForbidden, Kind(Forbidden("not owner")))
	assert.Equal(t, ErrConflict, Kind(Conflict("duplicate vote")))
	assert.Equal(t, ErrUnauthenticated, Kind(ErrUnauthenticated))
	assert.Nil(t, Kind(errors.New("boom")))
}

func TestValidationMessage(t *testing.T) {
	err := Validation("unknown sort type %q", "HOT")
	assert.EqualError(t, err, `validation failed: unknown sort type "HOT"`)
	assert.ErrorIs(t, err, ErrValidation)
}
