package memory

import (
	"context"
	"testing"

	"github.com/marmos91/dittoh5/pkg/connector"
	connectortesting "github.com/marmos91/dittoh5/pkg/connector/testing"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
	snapfs "github.com/marmos91/dittoh5/pkg/snapshot/fs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	suite := &connectortesting.ConnectorTestSuite{
		NewConnector: func(t *testing.T) connector.Connector {
			return NewStore()
		},
	}
	suite.Run(t)
}

func TestMemoryStore_WithSink(t *testing.T) {
	suite := &connectortesting.ConnectorTestSuite{
		NewConnector: func(t *testing.T) connector.Connector {
			sink, err := snapfs.NewSink(afero.NewMemMapFs(), "/snapshots")
			require.NoError(t, err)
			return NewStore(WithSink(sink))
		},
	}
	suite.Run(t)
}

func newFile(t *testing.T, s *Store, name string) connector.Object {
	t.Helper()
	file, err := s.FileCreate(context.Background(), name, plist.Default, plist.DefaultTransfer())
	require.NoError(t, err)
	return file
}

func createGroup(t *testing.T, s *Store, loc connector.Object, name string, gcpl *plist.List) connector.Object {
	t.Helper()
	obj, err := s.GroupCreate(context.Background(), loc, location.Self(handle.ClassFile), name, gcpl, plist.Default, plist.DefaultTransfer())
	require.NoError(t, err)
	return obj
}

func closeGroup(t *testing.T, s *Store, obj connector.Object) {
	t.Helper()
	require.NoError(t, s.GroupClose(context.Background(), obj, plist.DefaultTransfer()))
}

func TestAnonymousGroup_ReclaimedOnLastClose(t *testing.T) {
	s := NewStore()
	file := newFile(t, s, "anon.h5")
	c := file.(*fileObject).c

	anon := createGroup(t, s, file, "", plist.Default)
	id := anon.(*groupObject).n.id

	inner, err := s.GroupCreate(context.Background(), anon, location.Self(handle.ClassGroup), "inner", plist.Default, plist.Default, plist.DefaultTransfer())
	require.NoError(t, err)
	innerID := inner.(*groupObject).n.id
	closeGroup(t, s, inner)

	require.Contains(t, c.nodes, id)
	require.Contains(t, c.nodes, innerID)

	closeGroup(t, s, anon)

	assert.NotContains(t, c.nodes, id, "anonymous group should be destroyed")
	assert.NotContains(t, c.nodes, innerID, "groups only reachable from it go too")
	assert.Len(t, c.nodes, 1, "only the root remains")
}

func TestGroupClose_IgnoresCancelledContext(t *testing.T) {
	s := NewStore()
	file := newFile(t, s, "cancel.h5")
	c := file.(*fileObject).c

	anon := createGroup(t, s, file, "", plist.Default)
	id := anon.(*groupObject).n.id

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.GroupClose(ctx, anon, plist.DefaultTransfer()))
	assert.NotContains(t, c.nodes, id)
	require.NoError(t, s.FileClose(ctx, file, plist.DefaultTransfer()))
	assert.Equal(t, 0, c.opens)
}

func TestAnonymousGroup_KeptWhileOpen(t *testing.T) {
	s := NewStore()
	file := newFile(t, s, "anon.h5")
	c := file.(*fileObject).c

	anon := createGroup(t, s, file, "", plist.Default)
	inner, err := s.GroupCreate(context.Background(), anon, location.Self(handle.ClassGroup), "inner", plist.Default, plist.Default, plist.DefaultTransfer())
	require.NoError(t, err)
	innerID := inner.(*groupObject).n.id

	closeGroup(t, s, anon)

	// inner is still open, so it survives its parent.
	assert.Contains(t, c.nodes, innerID)
	closeGroup(t, s, inner)
	assert.NotContains(t, c.nodes, innerID)
}

func TestLinkedAnonymousGroup_Survives(t *testing.T) {
	s := NewStore()
	file := newFile(t, s, "anon.h5")
	c := file.(*fileObject).c

	anon := createGroup(t, s, file, "", plist.Default)
	id := anon.(*groupObject).n.id

	require.NoError(t, s.LinkObject(context.Background(), anon, file, location.Self(handle.ClassFile), "named", plist.Default, plist.DefaultTransfer()))
	closeGroup(t, s, anon)

	assert.Contains(t, c.nodes, id)
}

func TestMissingIntermediate_LeavesNoTrace(t *testing.T) {
	s := NewStore()
	file := newFile(t, s, "a.h5")
	c := file.(*fileObject).c

	_, err := s.GroupCreate(context.Background(), file, location.Self(handle.ClassFile), "/a/b/c", plist.Default, plist.Default, plist.DefaultTransfer())
	require.Error(t, err)

	assert.True(t, connector.IsCode(err, connector.ErrNotFound))
	assert.Len(t, c.nodes, 1)
}

func TestLinkObject_DifferentContainers(t *testing.T) {
	s := NewStore()
	a := newFile(t, s, "a.h5")
	b := newFile(t, s, "b.h5")

	g := createGroup(t, s, a, "", plist.Default)
	defer closeGroup(t, s, g)

	err := s.LinkObject(context.Background(), g, b, location.Self(handle.ClassFile), "x", plist.Default, plist.DefaultTransfer())
	assert.True(t, connector.IsCode(err, connector.ErrInvalidObject), "got %v", err)
}

func TestSnapshot_RefreshRestoresFlushedLinks(t *testing.T) {
	ctx := context.Background()
	tok := plist.DefaultTransfer()

	sink, err := snapfs.NewSink(afero.NewMemMapFs(), "/snapshots")
	require.NoError(t, err)
	s := NewStore(WithSink(sink))

	file := newFile(t, s, "snap.h5")
	g := createGroup(t, s, file, "/g", plist.Default)
	defer closeGroup(t, s, g)

	closeGroup(t, s, createGroup(t, s, file, "/g/a", plist.Default))
	require.NoError(t, s.GroupSpecific(ctx, g, connector.Flush, tok, handle.Invalid))

	closeGroup(t, s, createGroup(t, s, file, "/g/b", plist.Default))
	assert.Len(t, g.(*groupObject).n.links, 2)

	require.NoError(t, s.GroupSpecific(ctx, g, connector.Refresh, tok, handle.Invalid))

	links := g.(*groupObject).n.links
	require.Len(t, links, 1)
	assert.Equal(t, "a", links[0].name)

	_, err = s.GroupOpen(ctx, file, location.Self(handle.ClassFile), "/g/b", plist.Default, tok)
	assert.True(t, connector.IsCode(err, connector.ErrNotFound))
}

func TestSnapshot_FileOpenRestoresContainer(t *testing.T) {
	ctx := context.Background()
	tok := plist.DefaultTransfer()
	mem := afero.NewMemMapFs()

	sink, err := snapfs.NewSink(mem, "/snapshots")
	require.NoError(t, err)
	first := NewStore(WithSink(sink))

	file := newFile(t, first, "persist.h5")
	gcpl := plist.New(plist.ClassGroupCreate)
	require.NoError(t, plist.SetLinkCreationOrder(gcpl, true, false))

	g := createGroup(t, first, file, "/data", gcpl)
	closeGroup(t, first, createGroup(t, first, file, "/data/run1", plist.Default))
	require.NoError(t, first.GroupSpecific(ctx, g, connector.Flush, tok, handle.Invalid))
	closeGroup(t, first, g)

	second := NewStore(WithSink(sink))
	reopened, err := second.FileOpen(ctx, "persist.h5", plist.Default, tok)
	require.NoError(t, err)

	data, err := second.GroupOpen(ctx, reopened, location.Self(handle.ClassFile), "/data", plist.Default, tok)
	require.NoError(t, err)
	defer closeGroup(t, second, data)

	res, err := second.GroupGet(ctx, data, connector.GetInfo, tok, location.Self(handle.ClassGroup))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Info.NLinks)
	assert.Equal(t, int64(1), res.Info.MaxCorder)

	res, err = second.GroupGet(ctx, data, connector.GetCreatePlist, tok, location.Self(handle.ClassGroup))
	require.NoError(t, err)
	assert.True(t, res.Plist.Equal(gcpl))
}

func TestFlush_WithoutSinkIsNoop(t *testing.T) {
	s := NewStore()
	file := newFile(t, s, "a.h5")
	g := createGroup(t, s, file, "/g", plist.Default)
	defer closeGroup(t, s, g)

	assert.NoError(t, s.GroupSpecific(context.Background(), g, connector.Flush, plist.DefaultTransfer(), handle.Invalid))
	assert.NoError(t, s.GroupSpecific(context.Background(), g, connector.Refresh, plist.DefaultTransfer(), handle.Invalid))
}

func TestSnapshot_SimilarContainerNamesKeptApart(t *testing.T) {
	ctx := context.Background()
	tok := plist.DefaultTransfer()

	sink, err := snapfs.NewSink(afero.NewMemMapFs(), "/snapshots")
	require.NoError(t, err)
	first := NewStore(WithSink(sink))

	// Each container gets a different number of top-level groups.
	names := map[string][]string{
		"data/run1.h5": {"/a"},
		"data_run1.h5": {"/a", "/b"},
	}
	for name, groups := range names {
		file := newFile(t, first, name)
		var last connector.Object
		for _, g := range groups {
			last = createGroup(t, first, file, g, plist.Default)
		}
		require.NoError(t, first.GroupSpecific(ctx, last, connector.Flush, tok, handle.Invalid))
		closeGroup(t, first, last)
	}

	second := NewStore(WithSink(sink))
	for name, groups := range names {
		file, err := second.FileOpen(ctx, name, plist.Default, tok)
		require.NoError(t, err)

		res, err := second.GroupGet(ctx, file, connector.GetInfo, tok, location.Self(handle.ClassFile))
		require.NoError(t, err)
		assert.Equal(t, uint64(len(groups)), res.Info.NLinks, name)
	}
}
