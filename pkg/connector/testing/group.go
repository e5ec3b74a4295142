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

func (suite *ConnectorTestSuite) RunGroupTests(test *testing.T) {
	test.Run("CreateAndOpen", suite.TestGroup_CreateAndOpen)
	test.Run("CreateExisting", suite.TestGroup_CreateExisting)
	test.Run("CreateRootOrSelf", suite.TestGroup_CreateRootOrSelf)
	test.Run("MissingIntermediate", suite.TestGroup_MissingIntermediate)
	test.Run("CreateIntermediate", suite.TestGroup_CreateIntermediate)
	test.Run("RelativeToGroup", suite.TestGroup_RelativeToGroup)
	test.Run("AbsoluteFromGroup", suite.TestGroup_AbsoluteFromGroup)
	test.Run("OpenSelf", suite.TestGroup_OpenSelf)
	test.Run("OpenMissing", suite.TestGroup_OpenMissing)
	test.Run("DoubleClose", suite.TestGroup_DoubleClose)
	test.Run("InvalidObject", suite.TestGroup_InvalidObject)
	test.Run("Anonymous", suite.TestGroup_Anonymous)
}

// TestGroup_CreateAndOpen verifies a created group can be reopened by
// absolute and relative names.
func (suite *ConnectorTestSuite) TestGroup_CreateAndOpen(test *testing.T) {
	f := suite.setup(test)

	f.close(test, f.create(test, "/a", plist.Default))

	for _, name := range []string{"/a", "a", "//a/", "./a"} {
		obj, err := f.open(test, f.file, handle.ClassFile, name)
		require.NoError(test, err, name)
		f.close(test, obj)
	}
}

// TestGroup_CreateExisting verifies a taken name is rejected.
func (suite *ConnectorTestSuite) TestGroup_CreateExisting(test *testing.T) {
	f := suite.setup(test)

	f.close(test, f.create(test, "/a", plist.Default))

	_, err := f.conn.GroupCreate(f.ctx, f.file, location.Self(handle.ClassFile), "a", plist.Default, plist.Default, f.tok)
	assert.True(test, connector.IsCode(err, connector.ErrAlreadyExists), "got %v", err)
}

// TestGroup_CreateRootOrSelf verifies names designating the start already
// exist.
func (suite *ConnectorTestSuite) TestGroup_CreateRootOrSelf(test *testing.T) {
	f := suite.setup(test)

	for _, name := range []string{"/", "."} {
		_, err := f.conn.GroupCreate(f.ctx, f.file, location.Self(handle.ClassFile), name, plist.Default, plist.Default, f.tok)
		assert.True(test, connector.IsCode(err, connector.ErrAlreadyExists), "%s: got %v", name, err)
	}
}

// TestGroup_MissingIntermediate verifies a missing parent fails the create
// and leaves the hierarchy untouched.
func (suite *ConnectorTestSuite) TestGroup_MissingIntermediate(test *testing.T) {
	f := suite.setup(test)

	_, err := f.conn.GroupCreate(f.ctx, f.file, location.Self(handle.ClassFile), "/a/b", composed(test, false), plist.Default, f.tok)
	assert.True(test, connector.IsCode(err, connector.ErrNotFound), "got %v", err)

	_, err = f.open(test, f.file, handle.ClassFile, "/a")
	assert.True(test, connector.IsCode(err, connector.ErrNotFound), "got %v", err)
}

// TestGroup_CreateIntermediate verifies the embedded link creation list
// drives creation of missing parents.
func (suite *ConnectorTestSuite) TestGroup_CreateIntermediate(test *testing.T) {
	f := suite.setup(test)

	f.close(test, f.create(test, "/a/b/c", composed(test, true)))

	for _, name := range []string{"/a", "/a/b", "/a/b/c"} {
		obj, err := f.open(test, f.file, handle.ClassFile, name)
		require.NoError(test, err, name)
		f.close(test, obj)
	}

	root, err := f.open(test, f.file, handle.ClassFile, "/")
	require.NoError(test, err)
	defer f.close(test, root)
	assert.Equal(test, uint64(1), f.info(test, root).NLinks)
}

// TestGroup_RelativeToGroup verifies relative names descend from a group
// location.
func (suite *ConnectorTestSuite) TestGroup_RelativeToGroup(test *testing.T) {
	f := suite.setup(test)

	g := f.create(test, "/g", plist.Default)
	defer f.close(test, g)

	child, err := f.conn.GroupCreate(f.ctx, g, location.Self(handle.ClassGroup), "x", plist.Default, plist.Default, f.tok)
	require.NoError(test, err)
	f.close(test, child)

	obj, err := f.open(test, f.file, handle.ClassFile, "/g/x")
	require.NoError(test, err)
	f.close(test, obj)

	_, err = f.open(test, f.file, handle.ClassFile, "/x")
	assert.True(test, connector.IsCode(err, connector.ErrNotFound), "got %v", err)
}

// TestGroup_AbsoluteFromGroup verifies absolute names from a group start at
// the container root.
func (suite *ConnectorTestSuite) TestGroup_AbsoluteFromGroup(test *testing.T) {
	f := suite.setup(test)

	f.close(test, f.create(test, "/top", plist.Default))
	g := f.create(test, "/g", plist.Default)
	defer f.close(test, g)

	obj, err := f.open(test, g, handle.ClassGroup, "/top")
	require.NoError(test, err)
	f.close(test, obj)

	_, err = f.open(test, g, handle.ClassGroup, "top")
	assert.True(test, connector.IsCode(err, connector.ErrNotFound), "got %v", err)
}

// TestGroup_OpenSelf verifies "." reopens the location.
func (suite *ConnectorTestSuite) TestGroup_OpenSelf(test *testing.T) {
	f := suite.setup(test)

	g := f.create(test, "/g", plist.Default)
	defer f.close(test, g)
	f.close(test, f.create(test, "/g/child", plist.Default))

	self, err := f.open(test, g, handle.ClassGroup, ".")
	require.NoError(test, err)
	defer f.close(test, self)
	assert.Equal(test, uint64(1), f.info(test, self).NLinks)
}

// TestGroup_OpenMissing verifies opening an absent name fails.
func (suite *ConnectorTestSuite) TestGroup_OpenMissing(test *testing.T) {
	f := suite.setup(test)

	_, err := f.open(test, f.file, handle.ClassFile, "/nope")
	assert.True(test, connector.IsCode(err, connector.ErrNotFound), "got %v", err)
}

// TestGroup_DoubleClose verifies a group object can only be closed once.
func (suite *ConnectorTestSuite) TestGroup_DoubleClose(test *testing.T) {
	f := suite.setup(test)

	g := f.create(test, "/g", plist.Default)
	f.close(test, g)

	err := f.conn.GroupClose(f.ctx, g, f.tok)
	assert.True(test, connector.IsCode(err, connector.ErrClosed), "got %v", err)
}

// TestGroup_InvalidObject verifies foreign objects are rejected.
func (suite *ConnectorTestSuite) TestGroup_InvalidObject(test *testing.T) {
	f := suite.setup(test)

	_, err := f.conn.GroupOpen(f.ctx, "not an object", location.Self(handle.ClassFile), "/", plist.Default, f.tok)
	assert.True(test, connector.IsCode(err, connector.ErrInvalidObject), "got %v", err)

	err = f.conn.GroupClose(f.ctx, f.file, f.tok)
	assert.True(test, connector.IsCode(err, connector.ErrInvalidObject), "got %v", err)
}

// TestGroup_Anonymous verifies an anonymous group is usable but unreachable
// by name.
func (suite *ConnectorTestSuite) TestGroup_Anonymous(test *testing.T) {
	f := suite.setup(test)

	anon, err := f.conn.GroupCreate(f.ctx, f.file, location.Self(handle.ClassFile), "", plist.Default, plist.Default, f.tok)
	require.NoError(test, err)

	child, err := f.conn.GroupCreate(f.ctx, anon, location.Self(handle.ClassGroup), "inner", plist.Default, plist.Default, f.tok)
	require.NoError(test, err)
	f.close(test, child)
	assert.Equal(test, uint64(1), f.info(test, anon).NLinks)

	root, err := f.open(test, f.file, handle.ClassFile, "/")
	require.NoError(test, err)
	assert.Equal(test, uint64(0), f.info(test, root).NLinks)
	f.close(test, root)

	f.close(test, anon)
}
