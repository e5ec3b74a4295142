package connector

import (
	"errors"
	"testing"

	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectByIndex(t *testing.T) {
	// Native order is insertion order: c, a, b
	links := []Link{
		{Name: "c", Target: "3", Corder: 0},
		{Name: "a", Target: "1", Corder: 1},
		{Name: "b", Target: "2", Corder: 2},
	}

	tests := []struct {
		name  string
		idx   location.IndexType
		order location.IterOrder
		n     uint64
		want  string
	}{
		{"name inc first", location.IndexName, location.OrderInc, 0, "a"},
		{"name inc last", location.IndexName, location.OrderInc, 2, "c"},
		{"name dec first", location.IndexName, location.OrderDec, 0, "c"},
		{"corder inc first", location.IndexCrtOrder, location.OrderInc, 0, "c"},
		{"corder dec first", location.IndexCrtOrder, location.OrderDec, 0, "b"},
		{"native", location.IndexName, location.OrderNative, 1, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectByIndex(links, tt.idx, tt.order, tt.n, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}

	// Input slice is untouched
	assert.Equal(t, "c", links[0].Name)
}

func TestSelectByIndex_Errors(t *testing.T) {
	links := []Link{{Name: "a"}}

	_, err := SelectByIndex(links, location.IndexName, location.OrderInc, 1, true)
	assert.True(t, IsCode(err, ErrOutOfRange))

	_, err = SelectByIndex(links, location.IndexCrtOrder, location.OrderInc, 0, false)
	assert.True(t, IsCode(err, ErrNotSupported))

	_, err = SelectByIndex(nil, location.IndexName, location.OrderInc, 0, true)
	assert.True(t, IsCode(err, ErrOutOfRange))
}

func TestError(t *testing.T) {
	cause := errors.New("disk on fire")
	err := WrapError(ErrIO, "group flush", cause)

	assert.Equal(t, "group flush: i/o error: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, ErrIO))
	assert.False(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(cause, ErrIO))

	nf := NewError(ErrNotFound, "group open", "/a/b")
	assert.Equal(t, "group open: not found: /a/b", nf.Error())
}

func TestStorageFor(t *testing.T) {
	assert.Equal(t, StorageCompact, StorageFor(8, 8, 6, StorageCompact))
	assert.Equal(t, StorageDense, StorageFor(9, 8, 6, StorageCompact))
	assert.Equal(t, StorageDense, StorageFor(6, 8, 6, StorageDense))
	assert.Equal(t, StorageCompact, StorageFor(5, 8, 6, StorageDense))
}
