package pkg

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSpill(t *testing.T) {
	t.Run("NewFileSpill", func(t *testing.T) {
		spill, err := NewFileSpill[int]("spill-test-*.gob")
		require.NoError(t, err)
		require.NotNil(t, spill)
		require.Contains(t, spill.Path(), "spill-test-")
		defer spill.Close()
	})

	t.Run("Append and Range replay in order", func(t *testing.T) {
		spill, err := NewFileSpill[string]("spill-test-*.gob")
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.Append("second"))
		require.NoError(t, spill.Append("third"))

		var got []string
		var indexes []uint64

		err = spill.Range(func(i uint64, item string) error {
			indexes = append(indexes, i)
			got = append(got, item)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"first", "second", "third"}, got)
		require.Equal(t, []uint64{0, 1, 2}, indexes)
	})

	t.Run("Len returns correct count", func(t *testing.T) {
		spill, err := NewFileSpill[int]("spill-test-*.gob")
		require.NoError(t, err)
		defer spill.Close()

		require.Equal(t, uint64(0), spill.Len())

		require.NoError(t, spill.Append(1))
		require.Equal(t, uint64(1), spill.Len())

		require.NoError(t, spill.Append(2))
		require.NoError(t, spill.Append(3))
		require.Equal(t, uint64(3), spill.Len())
	})

	t.Run("Range stops at callback error", func(t *testing.T) {
		spill, err := NewFileSpill[int]("spill-test-*.gob")
		require.NoError(t, err)
		defer spill.Close()

		for i := 0; i < 5; i++ {
			require.NoError(t, spill.Append(i))
		}

		boom := errors.New("boom")
		seen := 0

		err = spill.Range(func(i uint64, _ int) error {
			seen++
			if i == 2 {
				return boom
			}
			return nil
		})
		require.ErrorIs(t, err, boom)
		require.Equal(t, 3, seen)
	})

	t.Run("Range works with struct items", func(t *testing.T) {
		type record struct {
			Name  string
			Count int
		}

		spill, err := NewFileSpill[record]("spill-test-*.gob")
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.Append(record{Name: "a", Count: 1}))
		require.NoError(t, spill.Append(record{Name: "b", Count: 2}))

		var got []record
		err = spill.Range(func(_ uint64, item record) error {
			got = append(got, item)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []record{{Name: "a", Count: 1}, {Name: "b", Count: 2}}, got)
	})

	t.Run("Close removes the backing file", func(t *testing.T) {
		spill, err := NewFileSpill[int]("spill-test-*.gob")
		require.NoError(t, err)

		require.NoError(t, spill.Append(42))

		path := spill.Path()
		require.NoError(t, spill.Close())

		_, err = os.Stat(path)
		require.True(t, os.IsNotExist(err))
	})

	t.Run("Close twice is safe", func(t *testing.T) {
		spill, err := NewFileSpill[int]("spill-test-*.gob")
		require.NoError(t, err)

		require.NoError(t, spill.Close())
		require.NoError(t, spill.Close())
	})
}
