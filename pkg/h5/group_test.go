package h5

import (
	"context"
	"testing"

	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	lib, _, file := setup(t)

	g, err := lib.CreateGroup(ctx, file, "/a", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	assert.Equal(t, handle.ClassGroup, g.Class())

	child, err := lib.CreateGroup(ctx, g, "b", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.CloseGroup(ctx, child))

	info, err := lib.GroupInfo(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.NLinks)

	info, err = lib.GroupInfoByName(ctx, file, "a/b", plist.Default)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.NLinks)

	require.NoError(t, lib.CloseGroup(ctx, g))
}

func TestArgumentErrors_NeverReachConnector(t *testing.T) {
	ctx := context.Background()
	lib, rec, file := setup(t)
	before := rec.total()

	wrong := plist.New(plist.ClassFileAccess)

	tests := []struct {
		name string
		call func() error
	}{
		{"CreateEmptyName", func() error {
			_, err := lib.CreateGroup(ctx, file, "", plist.Default, plist.Default, plist.Default)
			return err
		}},
		{"CreateWrongLcpl", func() error {
			_, err := lib.CreateGroup(ctx, file, "g", wrong, plist.Default, plist.Default)
			return err
		}},
		{"CreateWrongGcpl", func() error {
			_, err := lib.CreateGroup(ctx, file, "g", plist.Default, wrong, plist.Default)
			return err
		}},
		{"CreateWrongGapl", func() error {
			_, err := lib.CreateGroup(ctx, file, "g", plist.Default, plist.Default, wrong)
			return err
		}},
		{"CreateAnonWrongGcpl", func() error {
			_, err := lib.CreateAnonGroup(ctx, file, wrong, plist.Default)
			return err
		}},
		{"OpenEmptyName", func() error {
			_, err := lib.OpenGroup(ctx, file, "", plist.Default)
			return err
		}},
		{"InfoByNameEmpty", func() error {
			_, err := lib.GroupInfoByName(ctx, file, "", plist.Default)
			return err
		}},
		{"InfoByNameWrongLapl", func() error {
			_, err := lib.GroupInfoByName(ctx, file, "g", wrong)
			return err
		}},
		{"InfoByIdxUnknownIndex", func() error {
			_, err := lib.GroupInfoByIdx(ctx, file, "grp", location.IndexUnknown, location.OrderInc, 0, plist.Default)
			return err
		}},
		{"InfoByIdxOutOfRangeIndex", func() error {
			_, err := lib.GroupInfoByIdx(ctx, file, "grp", location.IndexType(7), location.OrderInc, 0, plist.Default)
			return err
		}},
		{"InfoByIdxUnknownOrder", func() error {
			_, err := lib.GroupInfoByIdx(ctx, file, "grp", location.IndexName, location.OrderUnknown, 0, plist.Default)
			return err
		}},
		{"InfoByIdxEmptyName", func() error {
			_, err := lib.GroupInfoByIdx(ctx, file, "", location.IndexName, location.OrderInc, 0, plist.Default)
			return err
		}},
		{"LinkEmptyName", func() error {
			return lib.Link(ctx, file, file, "", plist.Default, plist.Default)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.True(t, IsCode(err, ErrArgument), "got %v", err)
		})
	}

	assert.Equal(t, before, rec.total())
}

func TestHandleErrors(t *testing.T) {
	ctx := context.Background()
	lib, rec, file := setup(t)

	g, err := lib.CreateGroup(ctx, file, "g", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	pl, err := lib.GroupCreatePlist(ctx, g)
	require.NoError(t, err)
	before := rec.total()

	t.Run("InvalidLocation", func(t *testing.T) {
		_, err := lib.CreateGroup(ctx, handle.Invalid, "x", plist.Default, plist.Default, plist.Default)
		assert.True(t, IsCode(err, ErrHandle))
		_, err = lib.OpenGroup(ctx, handle.Invalid, "x", plist.Default)
		assert.True(t, IsCode(err, ErrHandle))
	})

	t.Run("PlistAsLocation", func(t *testing.T) {
		_, err := lib.CreateGroup(ctx, pl, "x", plist.Default, plist.Default, plist.Default)
		assert.True(t, IsCode(err, ErrHandle))
		_, err = lib.GroupInfoByName(ctx, pl, "x", plist.Default)
		assert.True(t, IsCode(err, ErrHandle))
	})

	t.Run("FileWhereGroupRequired", func(t *testing.T) {
		_, err := lib.GroupCreatePlist(ctx, file)
		assert.True(t, IsCode(err, ErrHandle))
		assert.True(t, IsCode(lib.FlushGroup(ctx, file), ErrHandle))
		assert.True(t, IsCode(lib.RefreshGroup(ctx, file), ErrHandle))
	})

	t.Run("GroupInfoOnPlistIsArgument", func(t *testing.T) {
		_, err := lib.GroupInfo(ctx, pl)
		assert.True(t, IsCode(err, ErrArgument))
	})

	t.Run("GroupInfoOnClosedGroup", func(t *testing.T) {
		tmp, err := lib.OpenGroup(ctx, file, "g", plist.Default)
		require.NoError(t, err)
		require.NoError(t, lib.CloseGroup(ctx, tmp))
		before = rec.total()

		_, err = lib.GroupInfo(ctx, tmp)
		assert.True(t, IsCode(err, ErrHandle))
	})

	assert.Equal(t, before, rec.total())
}

func TestScenario_MissingIntermediateFails(t *testing.T) {
	ctx := context.Background()
	lib, rec, file := setup(t)

	id, err := lib.CreateGroup(ctx, file, "/A/B", plist.Default, plist.Default, plist.Default)
	assert.Equal(t, handle.Invalid, id)
	assert.True(t, IsCode(err, ErrBackend))
	assert.True(t, connector.IsCode(err, connector.ErrNotFound))
	assert.Equal(t, 0, lib.Registry().Members(handle.ClassGroup))
	assert.Equal(t, 0, rec.count("GroupClose"))

	info, err := lib.GroupInfo(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.NLinks, "nothing was created on the failed path")

	id, err = lib.CreateGroup(ctx, file, "/A/B", intermediateLcpl(t), plist.Default, plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.CloseGroup(ctx, id))

	_, err = lib.GroupInfoByName(ctx, file, "/A", plist.Default)
	assert.NoError(t, err)
}

func TestScenario_AnonymousGroupDestroyedOnClose(t *testing.T) {
	ctx := context.Background()
	lib, rec, file := setup(t)

	anon, err := lib.CreateAnonGroup(ctx, file, plist.Default, plist.Default)
	require.NoError(t, err)

	child, err := lib.CreateGroup(ctx, anon, "inner", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.CloseGroup(ctx, child))

	info, err := lib.GroupInfo(ctx, anon)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.NLinks)

	require.NoError(t, lib.CloseGroup(ctx, anon))
	assert.Equal(t, 2, rec.count("GroupClose"))

	info, err = lib.GroupInfo(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.NLinks, "anonymous group never appears in the hierarchy")
}

func TestScenario_InfoByIdxUnknownIndex(t *testing.T) {
	ctx := context.Background()
	lib, rec, file := setup(t)

	g, err := lib.CreateGroup(ctx, file, "grp", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	defer lib.CloseGroup(ctx, g)

	_, err = lib.GroupInfoByIdx(ctx, g, "grp", location.IndexUnknown, location.OrderInc, 0, plist.Default)
	assert.True(t, IsCode(err, ErrArgument))
	assert.ErrorIs(t, err, location.ErrInvalidIndex)
	assert.Equal(t, 0, rec.count("GroupGet"))
}

func TestScenario_OpenSelf(t *testing.T) {
	ctx := context.Background()
	lib, rec, file := setup(t)

	g, err := lib.CreateGroup(ctx, file, "g", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)

	same, err := lib.OpenGroup(ctx, g, ".", plist.Default)
	require.NoError(t, err)
	assert.NotEqual(t, g, same)

	child, err := lib.CreateGroup(ctx, same, "c", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.CloseGroup(ctx, child))

	a, err := lib.GroupInfo(ctx, g)
	require.NoError(t, err)
	b, err := lib.GroupInfo(ctx, same)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(1), a.NLinks)

	// Each handle is released on its own
	require.NoError(t, lib.CloseGroup(ctx, g))
	_, err = lib.GroupInfo(ctx, same)
	assert.NoError(t, err)
	require.NoError(t, lib.CloseGroup(ctx, same))
	assert.Equal(t, 3, rec.count("GroupClose"))
}

func TestOpenGroup_Paths(t *testing.T) {
	ctx := context.Background()
	lib, _, file := setup(t)

	_, err := lib.CreateGroup(ctx, file, "x/y", intermediateLcpl(t), plist.Default, plist.Default)
	require.NoError(t, err)
	x, err := lib.OpenGroup(ctx, file, "x", plist.Default)
	require.NoError(t, err)

	tests := []struct {
		name   string
		loc    handle.ID
		path   string
		nlinks uint64
	}{
		{"FileAbsolute", file, "/x/y", 0},
		{"FileRelative", file, "x", 1},
		{"FileRoot", file, "/", 1},
		{"FileDot", file, ".", 1},
		{"GroupRelative", x, "y", 0},
		{"GroupAbsolute", x, "/x", 1},
		{"GroupRoot", x, "/", 1},
		{"RepeatedSeparators", file, "//x//y/", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := lib.OpenGroup(ctx, tt.loc, tt.path, plist.Default)
			require.NoError(t, err)
			defer lib.CloseGroup(ctx, g)

			info, err := lib.GroupInfo(ctx, g)
			require.NoError(t, err)
			assert.Equal(t, tt.nlinks, info.NLinks)
		})
	}

	_, err = lib.OpenGroup(ctx, x, "missing", plist.Default)
	assert.True(t, IsCode(err, ErrBackend))
}

func TestGroupInfoByIdx(t *testing.T) {
	ctx := context.Background()
	lib, _, file := setup(t)

	gcpl := plist.New(plist.ClassGroupCreate)
	require.NoError(t, plist.SetLinkCreationOrder(gcpl, true, true))

	parent, err := lib.CreateGroup(ctx, file, "parent", plist.Default, gcpl, plist.Default)
	require.NoError(t, err)
	defer lib.CloseGroup(ctx, parent)

	// "b" gets one child so the two members are distinguishable
	for _, name := range []string{"b", "a", "b/only"} {
		g, err := lib.CreateGroup(ctx, parent, name, plist.Default, plist.Default, plist.Default)
		require.NoError(t, err)
		require.NoError(t, lib.CloseGroup(ctx, g))
	}

	info, err := lib.GroupInfo(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.NLinks)
	assert.Equal(t, int64(2), info.MaxCorder)

	byName, err := lib.GroupInfoByIdx(ctx, file, "parent", location.IndexName, location.OrderInc, 1, plist.Default)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), byName.NLinks, "second by name is b")

	byCorder, err := lib.GroupInfoByIdx(ctx, parent, ".", location.IndexCrtOrder, location.OrderInc, 1, plist.Default)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), byCorder.NLinks, "second created is a")

	_, err = lib.GroupInfoByIdx(ctx, parent, ".", location.IndexName, location.OrderInc, 5, plist.Default)
	assert.True(t, IsCode(err, ErrBackend))
	assert.True(t, connector.IsCode(err, connector.ErrOutOfRange))
}

func TestComposition_DoesNotLeakBetweenCalls(t *testing.T) {
	ctx := context.Background()
	lib, _, file := setup(t)

	g, err := lib.CreateGroup(ctx, file, "/p/q", intermediateLcpl(t), plist.Default, plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.CloseGroup(ctx, g))

	_, err = lib.CreateGroup(ctx, file, "/r/s", plist.Default, plist.Default, plist.Default)
	assert.True(t, IsCode(err, ErrBackend), "default link creation must not inherit intermediate creation")

	v, err := plist.DefaultFor(plist.ClassGroupCreate).Get(plist.PropLinkCreate)
	require.NoError(t, err)
	assert.Nil(t, v.(*plist.List))
}

func TestGroupCreatePlist(t *testing.T) {
	ctx := context.Background()
	lib, _, file := setup(t)

	gcpl := plist.New(plist.ClassGroupCreate)
	require.NoError(t, plist.SetLinkPhaseChange(gcpl, 16, 12))

	g, err := lib.CreateGroup(ctx, file, "g", intermediateLcpl(t), gcpl, plist.Default)
	require.NoError(t, err)
	defer lib.CloseGroup(ctx, g)

	pid, err := lib.GroupCreatePlist(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, handle.ClassPropList, pid.Class())

	got, err := lib.PlistOf(pid)
	require.NoError(t, err)
	assert.True(t, got.Equal(gcpl))

	// Mutating the returned copy is invisible to the group
	require.NoError(t, plist.SetLinkPhaseChange(got, 4, 2))
	again, err := lib.GroupCreatePlist(ctx, g)
	require.NoError(t, err)
	fresh, err := lib.PlistOf(again)
	require.NoError(t, err)
	assert.True(t, fresh.Equal(gcpl))

	require.NoError(t, lib.ClosePlist(ctx, pid))
	require.NoError(t, lib.ClosePlist(ctx, again))
	_, err = lib.PlistOf(pid)
	assert.True(t, IsCode(err, ErrHandle))
}

func TestFlushRefresh(t *testing.T) {
	ctx := context.Background()
	lib, rec, file := setup(t)

	g, err := lib.CreateGroup(ctx, file, "g", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	defer lib.CloseGroup(ctx, g)

	require.NoError(t, lib.FlushGroup(ctx, g))
	require.NoError(t, lib.RefreshGroup(ctx, g))
	assert.Equal(t, 2, rec.count("GroupSpecific"))
	assert.Equal(t, g, rec.token().Loc())
}

func TestTransferToken_CollectiveInheritance(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	lib, err := NewLibrary(rec)
	require.NoError(t, err)
	defer lib.Shutdown(ctx)

	fapl := plist.New(plist.ClassFileAccess)
	require.NoError(t, fapl.Set(plist.PropCollMetadataOps, true))

	file, err := lib.CreateFile(ctx, "c.h5", fapl)
	require.NoError(t, err)

	g, err := lib.CreateGroup(ctx, file, "g", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	assert.True(t, rec.token().CollectiveMetadataRead())
	assert.Equal(t, file, rec.token().Loc())

	// Groups keep the container's access list
	_, err = lib.GroupInfo(ctx, g)
	require.NoError(t, err)
	assert.True(t, rec.token().CollectiveMetadataRead())
	assert.Equal(t, g, rec.token().Loc())

	// An explicit access list overrides the container
	gapl := plist.New(plist.ClassGroupAccess)
	h, err := lib.OpenGroup(ctx, file, "g", gapl)
	require.NoError(t, err)
	assert.False(t, rec.token().CollectiveMetadataRead())
	require.NoError(t, lib.CloseGroup(ctx, h))

	// Changing the caller's fapl afterwards has no effect
	require.NoError(t, fapl.Set(plist.PropCollMetadataOps, false))
	_, err = lib.GroupInfo(ctx, g)
	require.NoError(t, err)
	assert.True(t, rec.token().CollectiveMetadataRead())
}

func TestLink(t *testing.T) {
	ctx := context.Background()
	lib, _, file := setup(t)

	anon, err := lib.CreateAnonGroup(ctx, file, plist.Default, plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.Link(ctx, anon, file, "kept", plist.Default, plist.Default))
	require.NoError(t, lib.CloseGroup(ctx, anon))

	g, err := lib.OpenGroup(ctx, file, "kept", plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.CloseGroup(ctx, g))

	t.Run("NameTaken", func(t *testing.T) {
		other, err := lib.CreateAnonGroup(ctx, file, plist.Default, plist.Default)
		require.NoError(t, err)
		defer lib.CloseGroup(ctx, other)

		err = lib.Link(ctx, other, file, "kept", plist.Default, plist.Default)
		assert.True(t, IsCode(err, ErrBackend))
		assert.True(t, connector.IsCode(err, connector.ErrAlreadyExists))
	})

	t.Run("FileIsNotLinkable", func(t *testing.T) {
		err := lib.Link(ctx, file, file, "self", plist.Default, plist.Default)
		assert.True(t, IsCode(err, ErrHandle))
	})
}

func TestLink_ConnectorWithoutLinker(t *testing.T) {
	ctx := context.Background()
	lib, err := NewLibrary(noLinker{newRecorder()})
	require.NoError(t, err)
	defer lib.Shutdown(ctx)

	file, err := lib.CreateFile(ctx, "n.h5", plist.Default)
	require.NoError(t, err)
	anon, err := lib.CreateAnonGroup(ctx, file, plist.Default, plist.Default)
	require.NoError(t, err)

	err = lib.Link(ctx, anon, file, "x", plist.Default, plist.Default)
	assert.True(t, IsCode(err, ErrBackend))
	assert.True(t, connector.IsCode(err, connector.ErrNotSupported))
}

func TestCloseGroup_CancelledContextStillReleases(t *testing.T) {
	lib, rec, file := setup(t)

	anon, err := lib.CreateAnonGroup(context.Background(), file, plist.Default, plist.Default)
	require.NoError(t, err)
	inner, err := lib.CreateGroup(context.Background(), anon, "inner", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.CloseGroup(context.Background(), inner))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, lib.CloseGroup(ctx, anon))
	assert.Equal(t, 2, rec.closedCount(), "the backend close ran despite the cancelled context")
	assert.Equal(t, 0, lib.Registry().Members(handle.ClassGroup))

	info, err := lib.GroupInfo(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.NLinks)
}

func TestGroupInfo_BackendSeesResolvedAccessList(t *testing.T) {
	ctx := context.Background()
	lib, rec, file := setup(t)

	g, err := lib.CreateGroup(ctx, file, "g", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	defer lib.CloseGroup(ctx, g)
	child, err := lib.CreateGroup(ctx, g, "child", plist.Default, plist.Default, plist.Default)
	require.NoError(t, err)
	require.NoError(t, lib.CloseGroup(ctx, child))

	lapl := plist.New(plist.ClassLinkAccess)
	require.NoError(t, plist.SetNLinks(lapl, 4))

	tests := []struct {
		name string
		lapl *plist.List
		want *plist.List
		call func(lapl *plist.List) error
	}{
		{"by name default", plist.Default, plist.DefaultFor(plist.ClassLinkAccess), func(lapl *plist.List) error {
			_, err := lib.GroupInfoByName(ctx, file, "g", lapl)
			return err
		}},
		{"by name nil", nil, plist.DefaultFor(plist.ClassLinkAccess), func(lapl *plist.List) error {
			_, err := lib.GroupInfoByName(ctx, file, "g", lapl)
			return err
		}},
		{"by name explicit", lapl, lapl, func(lapl *plist.List) error {
			_, err := lib.GroupInfoByName(ctx, file, "g", lapl)
			return err
		}},
		{"by index default", plist.Default, plist.DefaultFor(plist.ClassLinkAccess), func(lapl *plist.List) error {
			_, err := lib.GroupInfoByIdx(ctx, file, "g", location.IndexName, location.OrderInc, 0, lapl)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call(tt.lapl))
			access := rec.params().Access()
			assert.NotSame(t, plist.Default, access)
			assert.Same(t, tt.want, access)
		})
	}
}
