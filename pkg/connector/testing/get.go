package testing

import (
	"testing"

	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *ConnectorTestSuite) RunGetTests(test *testing.T) {
	test.Run("InfoSelf", suite.TestGet_InfoSelf)
	test.Run("InfoByName", suite.TestGet_InfoByName)
	test.Run("InfoByIndex", suite.TestGet_InfoByIndex)
	test.Run("ByIndexOutOfRange", suite.TestGet_ByIndexOutOfRange)
	test.Run("ByCreationOrderUntracked", suite.TestGet_ByCreationOrderUntracked)
	test.Run("CreatePlist", suite.TestGet_CreatePlist)
	test.Run("StorageTransition", suite.TestGet_StorageTransition)
}

// TestGet_InfoSelf verifies link counts and creation order reporting.
func (suite *ConnectorTestSuite) TestGet_InfoSelf(test *testing.T) {
	f := suite.setup(test)

	g := f.create(test, "/g", tracked(test))
	defer f.close(test, g)

	info := f.info(test, g)
	assert.Equal(test, uint64(0), info.NLinks)
	assert.Equal(test, int64(0), info.MaxCorder)
	assert.Equal(test, connector.StorageCompact, info.StorageType)
	assert.False(test, info.Mounted)

	for _, name := range []string{"/g/a", "/g/b", "/g/c"} {
		f.close(test, f.create(test, name, plist.Default))
	}

	info = f.info(test, g)
	assert.Equal(test, uint64(3), info.NLinks)
	assert.Equal(test, int64(3), info.MaxCorder)
}

// TestGet_InfoByName verifies by-name queries from a container location.
func (suite *ConnectorTestSuite) TestGet_InfoByName(test *testing.T) {
	f := suite.setup(test)

	f.close(test, f.create(test, "/a/b", composed(test, true)))
	f.close(test, f.create(test, "/a/c", plist.Default))

	params, err := location.ByName(handle.ClassFile, "/a", plist.Default)
	require.NoError(test, err)

	res, err := f.conn.GroupGet(f.ctx, f.file, connector.GetInfo, f.tok, params)
	require.NoError(test, err)
	assert.Equal(test, uint64(2), res.Info.NLinks)

	missing, err := location.ByName(handle.ClassFile, "/zzz", plist.Default)
	require.NoError(test, err)
	_, err = f.conn.GroupGet(f.ctx, f.file, connector.GetInfo, f.tok, missing)
	assert.True(test, connector.IsCode(err, connector.ErrNotFound), "got %v", err)
}

// TestGet_InfoByIndex verifies by-index selection in name and creation
// order.
func (suite *ConnectorTestSuite) TestGet_InfoByIndex(test *testing.T) {
	f := suite.setup(test)

	g := f.create(test, "/g", tracked(test))
	defer f.close(test, g)

	// Created in order c, a, b; "a" gets two children to tell them apart.
	f.close(test, f.create(test, "/g/c", plist.Default))
	f.close(test, f.create(test, "/g/a", plist.Default))
	f.close(test, f.create(test, "/g/b", plist.Default))
	f.close(test, f.create(test, "/g/a/1", plist.Default))
	f.close(test, f.create(test, "/g/a/2", plist.Default))
	f.close(test, f.create(test, "/g/c/1", plist.Default))

	tests := []struct {
		name   string
		idx    location.IndexType
		order  location.IterOrder
		n      uint64
		nlinks uint64
	}{
		{"name inc 0 is a", location.IndexName, location.OrderInc, 0, 2},
		{"name inc 2 is c", location.IndexName, location.OrderInc, 2, 1},
		{"name dec 0 is c", location.IndexName, location.OrderDec, 0, 1},
		{"corder inc 0 is c", location.IndexCrtOrder, location.OrderInc, 0, 1},
		{"corder inc 1 is a", location.IndexCrtOrder, location.OrderInc, 1, 2},
		{"corder dec 0 is b", location.IndexCrtOrder, location.OrderDec, 0, 0},
	}

	for _, tt := range tests {
		test.Run(tt.name, func(t *testing.T) {
			params, err := location.ByIndex(handle.ClassFile, "/g", tt.idx, tt.order, tt.n, plist.Default)
			require.NoError(t, err)

			res, err := f.conn.GroupGet(f.ctx, f.file, connector.GetInfo, f.tok, params)
			require.NoError(t, err)
			assert.Equal(t, tt.nlinks, res.Info.NLinks)
		})
	}
}

// TestGet_ByIndexOutOfRange verifies positions past the end fail.
func (suite *ConnectorTestSuite) TestGet_ByIndexOutOfRange(test *testing.T) {
	f := suite.setup(test)

	f.close(test, f.create(test, "/g", plist.Default))
	f.close(test, f.create(test, "/g/only", plist.Default))

	params, err := location.ByIndex(handle.ClassFile, "/g", location.IndexName, location.OrderInc, 1, plist.Default)
	require.NoError(test, err)

	_, err = f.conn.GroupGet(f.ctx, f.file, connector.GetInfo, f.tok, params)
	assert.True(test, connector.IsCode(err, connector.ErrOutOfRange), "got %v", err)
}

// TestGet_ByCreationOrderUntracked verifies creation order indexing needs
// tracking.
func (suite *ConnectorTestSuite) TestGet_ByCreationOrderUntracked(test *testing.T) {
	f := suite.setup(test)

	f.close(test, f.create(test, "/g", plist.Default))
	f.close(test, f.create(test, "/g/x", plist.Default))

	params, err := location.ByIndex(handle.ClassFile, "/g", location.IndexCrtOrder, location.OrderInc, 0, plist.Default)
	require.NoError(test, err)

	_, err = f.conn.GroupGet(f.ctx, f.file, connector.GetInfo, f.tok, params)
	assert.True(test, connector.IsCode(err, connector.ErrNotSupported), "got %v", err)
}

// TestGet_CreatePlist verifies the creation list is returned as a fresh copy
// without the link creation intent.
func (suite *ConnectorTestSuite) TestGet_CreatePlist(test *testing.T) {
	f := suite.setup(test)

	gcpl := plist.New(plist.ClassGroupCreate)
	require.NoError(test, plist.SetLinkPhaseChange(gcpl, 32, 16))
	require.NoError(test, plist.SetEstLinkInfo(gcpl, 10, 20))

	lcpl := plist.New(plist.ClassLinkCreate)
	require.NoError(test, plist.SetCreateIntermediateGroup(lcpl, true))
	composedList, err := plist.ComposeGroupCreation(lcpl, gcpl)
	require.NoError(test, err)

	g := f.create(test, "/x/g", composedList)
	defer f.close(test, g)

	res, err := f.conn.GroupGet(f.ctx, g, connector.GetCreatePlist, f.tok, location.Self(handle.ClassGroup))
	require.NoError(test, err)
	require.NotNil(test, res.Plist)
	assert.True(test, res.Plist.Equal(gcpl), "stored list should match the caller's group creation list")

	props, err := plist.GroupCreate(res.Plist)
	require.NoError(test, err)
	assert.Equal(test, uint32(32), props.MaxCompact)
	assert.Equal(test, uint32(16), props.MinDense)

	// Mutating the copy does not change the stored list.
	require.NoError(test, plist.SetLinkPhaseChange(res.Plist, 100, 50))
	again, err := f.conn.GroupGet(f.ctx, g, connector.GetCreatePlist, f.tok, location.Self(handle.ClassGroup))
	require.NoError(test, err)
	props, err = plist.GroupCreate(again.Plist)
	require.NoError(test, err)
	assert.Equal(test, uint32(32), props.MaxCompact)
}

// TestGet_StorageTransition verifies the compact/dense phase change.
func (suite *ConnectorTestSuite) TestGet_StorageTransition(test *testing.T) {
	f := suite.setup(test)

	gcpl := plist.New(plist.ClassGroupCreate)
	require.NoError(test, plist.SetLinkPhaseChange(gcpl, 2, 1))

	g := f.create(test, "/g", gcpl)
	defer f.close(test, g)

	f.close(test, f.create(test, "/g/a", plist.Default))
	f.close(test, f.create(test, "/g/b", plist.Default))
	assert.Equal(test, connector.StorageCompact, f.info(test, g).StorageType)

	f.close(test, f.create(test, "/g/c", plist.Default))
	assert.Equal(test, connector.StorageDense, f.info(test, g).StorageType)
}
