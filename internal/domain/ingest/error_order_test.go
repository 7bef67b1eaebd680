package ingest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestErrorOrder(t *testing.T) *ErrorOrder {
	e, err := NewErrorOrder(uuid.New(), uuid.New(), 5, `{"qty":"-1"}`,
		ErrorCategoryValidation, "quantity must be positive", "fix the quantity cell")
	require.NoError(t, err)
	return e
}

func TestErrorCategory_IsValid(t *testing.T) {
	for _, c := range []ErrorCategory{
		ErrorCategoryValidation, ErrorCategoryProductMatch, ErrorCategoryCustomerMatch,
		ErrorCategoryLowConfidence, ErrorCategorySystem, ErrorCategoryDuplicate,
	} {
		assert.True(t, c.IsValid(), string(c))
	}
	assert.False(t, ErrorCategory("TYPO").IsValid())
	assert.False(t, ErrorCategory("").IsValid())
}

func TestNewErrorOrder(t *testing.T) {
	t.Run("starts pending", func(t *testing.T) {
		e := createTestErrorOrder(t)
		assert.Equal(t, ErrorStatusPending, e.Status)
		assert.Nil(t, e.HandledBy)
		assert.Nil(t, e.HandledAt)
	})

	t.Run("rejects bad inputs", func(t *testing.T) {
		_, err := NewErrorOrder(uuid.New(), uuid.New(), 0, "", ErrorCategoryValidation, "msg", "")
		assert.Error(t, err)

		_, err = NewErrorOrder(uuid.New(), uuid.New(), 1, "", ErrorCategory("TYPO"), "msg", "")
		assert.Error(t, err)

		_, err = NewErrorOrder(uuid.New(), uuid.New(), 1, "", ErrorCategoryValidation, "", "")
		assert.Error(t, err)
	})
}

func TestErrorOrder_Resolution(t *testing.T) {
	operator := uuid.New()

	t.Run("mark processed records operator and time", func(t *testing.T) {
		e := createTestErrorOrder(t)
		require.NoError(t, e.MarkProcessed(operator))

		assert.Equal(t, ErrorStatusProcessed, e.Status)
		require.NotNil(t, e.HandledBy)
		assert.Equal(t, operator, *e.HandledBy)
		require.NotNil(t, e.HandledAt)
	})

	t.Run("mark ignored", func(t *testing.T) {
		e := createTestErrorOrder(t)
		require.NoError(t, e.MarkIgnored(operator))
		assert.Equal(t, ErrorStatusIgnored, e.Status)
	})

	t.Run("resolution is one-way", func(t *testing.T) {
		e := createTestErrorOrder(t)
		require.NoError(t, e.MarkProcessed(operator))

		assert.Error(t, e.MarkProcessed(operator))
		assert.Error(t, e.MarkIgnored(operator))
	})

	t.Run("requires operator", func(t *testing.T) {
		e := createTestErrorOrder(t)
		assert.Error(t, e.MarkProcessed(uuid.Nil))
		assert.Equal(t, ErrorStatusPending, e.Status)
	})
}
