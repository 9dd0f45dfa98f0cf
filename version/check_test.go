package version_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/get-eventually/booking/version"
)

func TestIsConflict(t *testing.T) {
	t.Run("wrapped conflicts are detected", func(t *testing.T) {
		err := fmt.Errorf("event.InMemoryStore: failed to append events, %w", version.ConflictError{
			Expected: 2,
			Actual:   3,
		})

		conflict, ok := version.IsConflict(err)
		assert.True(t, ok)
		assert.Equal(t, version.Version(2), conflict.Expected)
		assert.Equal(t, version.Version(3), conflict.Actual)
	})

	t.Run("other errors are not conflicts", func(t *testing.T) {
		_, ok := version.IsConflict(errors.New("connection refused"))
		assert.False(t, ok)
	})

	t.Run("nil is not a conflict", func(t *testing.T) {
		_, ok := version.IsConflict(nil)
		assert.False(t, ok)
	})
}

func TestVersion(t *testing.T) {
	assert.Equal(t, version.Version(0), version.Empty.Next())
	assert.Equal(t, version.CheckExact(-1), version.Expect(version.Empty))
}
