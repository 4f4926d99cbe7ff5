package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalHash(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		data := map[string]interface{}{
			"yield":  82.5,
			"stream": "fine_fraction",
			"valid":  true,
		}

		h1, err := CanonicalHash(data)
		require.NoError(t, err)
		h2, err := CanonicalHash(data)
		require.NoError(t, err)

		assert.Equal(t, h1, h2)
		assert.Len(t, h1, 64) // sha-256 hex
	})

	t.Run("key order independent", func(t *testing.T) {
		a := map[string]interface{}{"a": 1, "b": 2, "c": 3}
		b := map[string]interface{}{"c": 3, "a": 1, "b": 2}

		ha, err := CanonicalHash(a)
		require.NoError(t, err)
		hb, err := CanonicalHash(b)
		require.NoError(t, err)
		assert.Equal(t, ha, hb)
	})

	t.Run("value change changes hash", func(t *testing.T) {
		h1, err := CanonicalHash(map[string]interface{}{"yield": 82.5})
		require.NoError(t, err)
		h2, err := CanonicalHash(map[string]interface{}{"yield": 82.6})
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("integer and float collapse", func(t *testing.T) {
		h1, err := CanonicalHash(map[string]interface{}{"n": 5})
		require.NoError(t, err)
		h2, err := CanonicalHash(map[string]interface{}{"n": 5.0})
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("nested structures", func(t *testing.T) {
		data := map[string]interface{}{
			"streams": []interface{}{
				map[string]interface{}{"name": "s1", "mass": 100},
			},
			"meta": map[string]interface{}{"unit": "kg"},
		}
		h, err := CanonicalHash(data)
		require.NoError(t, err)
		assert.Len(t, h, 64)
	})

	t.Run("empty and nil maps hash alike", func(t *testing.T) {
		h1, err := CanonicalHash(map[string]interface{}{})
		require.NoError(t, err)
		h2, err := CanonicalHash(nil)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("unhashable value", func(t *testing.T) {
		_, err := CanonicalHash(map[string]interface{}{"f": func() {}})
		assert.Error(t, err)
	})
}

func TestDiffFields(t *testing.T) {
	t.Run("single modification", func(t *testing.T) {
		oldData := map[string]interface{}{"yield": 80.0, "stream": "s1"}
		newData := map[string]interface{}{"yield": 85.0, "stream": "s1"}

		changes, err := DiffFields(oldData, newData)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, "yield", changes[0].Field)
		assert.Equal(t, FieldModified, changes[0].Kind)
		assert.Equal(t, 80.0, changes[0].Old)
		assert.Equal(t, 85.0, changes[0].New)
	})

	t.Run("added and removed", func(t *testing.T) {
		oldData := map[string]interface{}{"a": 1}
		newData := map[string]interface{}{"b": 2}

		changes, err := DiffFields(oldData, newData)
		require.NoError(t, err)
		require.Len(t, changes, 2)

		// sorted by field name
		assert.Equal(t, "a", changes[0].Field)
		assert.Equal(t, FieldRemoved, changes[0].Kind)
		assert.Equal(t, "b", changes[1].Field)
		assert.Equal(t, FieldAdded, changes[1].Kind)
	})

	t.Run("no changes", func(t *testing.T) {
		data := map[string]interface{}{"a": 1, "b": "x"}
		changes, err := DiffFields(data, data)
		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("numeric types compare equal", func(t *testing.T) {
		changes, err := DiffFields(
			map[string]interface{}{"n": 5},
			map[string]interface{}{"n": 5.0},
		)
		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("from nil old data everything is added", func(t *testing.T) {
		changes, err := DiffFields(nil, map[string]interface{}{"a": 1, "b": 2})
		require.NoError(t, err)
		require.Len(t, changes, 2)
		for _, c := range changes {
			assert.Equal(t, FieldAdded, c.Kind)
		}
	})
}
