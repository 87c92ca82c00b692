package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("checkout: %w", NotFound("Vehicle not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "checkout: Vehicle not found", err.Error())

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CodeNotFound, de.Code)
}

func TestValidationError(t *testing.T) {
	t.Run("no violations", func(t *testing.T) {
		v := &ValidationError{}
		v.Check(true, "never recorded")
		assert.NoError(t, v.Err())
	})

	t.Run("collects every violation", func(t *testing.T) {
		v := &ValidationError{}
		v.Check(false, "Latitude must be between -90 and 90")
		v.Check(false, "Battery (percent) must be between 0 and 100.")

		err := v.Err()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, []string{
			"Latitude must be between -90 and 90",
			"Battery (percent) must be between 0 and 100.",
		}, v.Messages)
	})

	t.Run("nil receiver", func(t *testing.T) {
		var v *ValidationError
		assert.NoError(t, v.Err())
	})
}
