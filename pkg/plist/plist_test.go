package plist

import (
	"testing"

	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PopulatesDefaults(t *testing.T) {
	gcpl := New(ClassGroupCreate)

	assert.Equal(t, ClassGroupCreate, gcpl.Class())
	assert.False(t, gcpl.Frozen())

	v, err := gcpl.Get(PropMaxCompact)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), v)

	v, err = gcpl.Get(PropMinDense)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), v)

	names := gcpl.Names()
	assert.Equal(t, PropLocalHeapSizeHint, names[0])
	assert.Equal(t, PropLinkCreate, names[len(names)-1])
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		class   Class
		prop    string
		value   any
		wantErr error
	}{
		{"valid bool", ClassLinkCreate, PropCreateIntermediateGroup, true, nil},
		{"valid encoding", ClassLinkCreate, PropCharEncoding, "utf8", nil},
		{"bad encoding", ClassLinkCreate, PropCharEncoding, "latin1", ErrInvalidValue},
		{"wrong type", ClassGroupCreate, PropMaxCompact, 8, ErrInvalidValue},
		{"out of range", ClassGroupCreate, PropMaxCompact, uint32(70000), ErrInvalidValue},
		{"zero nlinks", ClassLinkAccess, PropNLinks, uint32(0), ErrInvalidValue},
		{"unknown property", ClassGroupAccess, "nope", true, ErrUnknownProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.class)
			err := l.Set(tt.prop, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			got, err := l.Get(tt.prop)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestDefaultsAreFrozen(t *testing.T) {
	d := DefaultFor(ClassGroupCreate)
	require.NotNil(t, d)
	assert.True(t, d.Frozen())
	assert.True(t, IsDefault(d))
	assert.True(t, IsDefault(Default))
	assert.True(t, IsDefault(nil))

	err := d.Set(PropMaxCompact, uint32(4))
	assert.ErrorIs(t, err, ErrImmutable)
}

func TestResolveDefault(t *testing.T) {
	l, err := ResolveDefault(ClassGroupCreate, Default)
	require.NoError(t, err)
	assert.Same(t, DefaultFor(ClassGroupCreate), l)

	l, err = ResolveDefault(ClassGroupCreate, nil)
	require.NoError(t, err)
	assert.Same(t, DefaultFor(ClassGroupCreate), l)

	own := New(ClassGroupCreate)
	l, err = ResolveDefault(ClassGroupCreate, own)
	require.NoError(t, err)
	assert.Same(t, own, l)

	_, err = ResolveDefault(ClassGroupCreate, New(ClassLinkCreate))
	assert.ErrorIs(t, err, ErrWrongClass)
}

func TestIsA_Inheritance(t *testing.T) {
	gapl := New(ClassGroupAccess)
	assert.True(t, gapl.IsA(ClassGroupAccess))
	assert.True(t, gapl.IsA(ClassLinkAccess))
	assert.False(t, New(ClassLinkAccess).IsA(ClassGroupAccess))

	_, err := ResolveDefault(ClassLinkAccess, gapl)
	assert.NoError(t, err)
}

func TestComposeGroupCreation_DoesNotMutateDefaults(t *testing.T) {
	before := DefaultFor(ClassGroupCreate).Copy()

	first, err := ComposeGroupCreation(Default, Default)
	require.NoError(t, err)
	require.NotSame(t, DefaultFor(ClassGroupCreate), first)

	// Mutate the first composition as a backend might.
	require.NoError(t, first.Set(PropMaxCompact, uint32(2)))
	require.NoError(t, first.Set(PropMinDense, uint32(1)))
	require.NoError(t, SetCreateIntermediateGroup(LinkCreate(first), true))

	second, err := ComposeGroupCreation(Default, Default)
	require.NoError(t, err)

	assert.True(t, before.Equal(DefaultFor(ClassGroupCreate)))
	props, err := GroupCreate(second)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), props.MaxCompact)

	lc, err := LinkCreation(LinkCreate(second))
	require.NoError(t, err)
	assert.False(t, lc.CreateIntermediateGroup)
	assert.False(t, LinkCreate(second).Frozen())
}

func TestComposeGroupCreation_EmbedsLinkIntent(t *testing.T) {
	lcpl := New(ClassLinkCreate)
	require.NoError(t, SetCreateIntermediateGroup(lcpl, true))
	gcpl := New(ClassGroupCreate)

	composed, err := ComposeGroupCreation(lcpl, gcpl)
	require.NoError(t, err)

	lc, err := LinkCreation(LinkCreate(composed))
	require.NoError(t, err)
	assert.True(t, lc.CreateIntermediateGroup)

	// The caller's group list is left alone.
	v, _ := gcpl.Get(PropLinkCreate)
	assert.Nil(t, v)
}

func TestComposeGroupCreation_ClassChecks(t *testing.T) {
	_, err := ComposeGroupCreation(New(ClassGroupCreate), Default)
	assert.ErrorIs(t, err, ErrWrongClass)

	_, err = ComposeGroupCreation(Default, New(ClassGroupAccess))
	assert.ErrorIs(t, err, ErrWrongClass)
}

func TestCopy_IsDeep(t *testing.T) {
	composed, err := ComposeGroupCreation(Default, Default)
	require.NoError(t, err)

	clone := composed.Copy()
	assert.True(t, clone.Equal(composed))
	assert.NotSame(t, LinkCreate(composed), LinkCreate(clone))

	require.NoError(t, SetCreateIntermediateGroup(LinkCreate(clone), true))
	assert.False(t, clone.Equal(composed))
}

func TestSetters(t *testing.T) {
	gcpl := New(ClassGroupCreate)

	assert.ErrorIs(t, SetLinkPhaseChange(gcpl, 4, 6), ErrInvalidValue)
	require.NoError(t, SetLinkPhaseChange(gcpl, 16, 12))

	assert.ErrorIs(t, SetLinkCreationOrder(gcpl, false, true), ErrInvalidValue)
	require.NoError(t, SetLinkCreationOrder(gcpl, true, true))

	require.NoError(t, SetEstLinkInfo(gcpl, 10, 32))

	props, err := GroupCreate(gcpl)
	require.NoError(t, err)
	assert.Equal(t, GroupCreateProps{
		MaxCompact:         16,
		MinDense:           12,
		EstNumEntries:      10,
		EstNameLen:         32,
		TrackCreationOrder: true,
		IndexCreationOrder: true,
	}, props)

	assert.ErrorIs(t, SetNLinks(gcpl, 3), ErrWrongClass)
	assert.ErrorIs(t, SetCreateIntermediateGroup(gcpl, true), ErrWrongClass)
}

func TestResolveAccess(t *testing.T) {
	loc := handle.ID(42)

	t.Run("default access inherits file setting", func(t *testing.T) {
		fapl := New(ClassFileAccess)
		require.NoError(t, fapl.Set(PropCollMetadataOps, true))

		apl, tok, err := ResolveAccess(loc, ClassGroupAccess, Default, fapl)
		require.NoError(t, err)
		assert.Same(t, DefaultFor(ClassGroupAccess), apl)
		assert.Equal(t, loc, tok.Loc())
		assert.True(t, tok.CollectiveMetadataRead())
		assert.True(t, DefaultFor(ClassDataTransfer).Frozen())
	})

	t.Run("explicit access list wins", func(t *testing.T) {
		fapl := New(ClassFileAccess)
		require.NoError(t, fapl.Set(PropCollMetadataOps, true))
		gapl := New(ClassGroupAccess)

		_, tok, err := ResolveAccess(loc, ClassGroupAccess, gapl, fapl)
		require.NoError(t, err)
		assert.False(t, tok.CollectiveMetadataRead())
	})

	t.Run("wrong class", func(t *testing.T) {
		_, _, err := ResolveAccess(loc, ClassGroupAccess, New(ClassGroupCreate), nil)
		assert.ErrorIs(t, err, ErrWrongClass)
	})

	t.Run("default transfer", func(t *testing.T) {
		tok := DefaultTransfer()
		assert.Equal(t, handle.Invalid, tok.Loc())
		assert.False(t, tok.CollectiveMetadataRead())
	})
}
