package testing

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

func (suite *ConnectorTestSuite) RunFileTests(test *testing.T) {
	test.Run("CreateOpenClose", suite.TestFile_CreateOpenClose)
	test.Run("CreateExisting", suite.TestFile_CreateExisting)
	test.Run("OpenMissing", suite.TestFile_OpenMissing)
	test.Run("DoubleClose", suite.TestFile_DoubleClose)
	test.Run("CancelledContext", suite.TestFile_CancelledContext)
}

// TestFile_CreateOpenClose verifies a container survives close and keeps its
// groups.
func (suite *ConnectorTestSuite) TestFile_CreateOpenClose(test *testing.T) {
	ctx := context.Background()
	conn := suite.NewConnector(test)
	tok := plist.DefaultTransfer()

	file, err := conn.FileCreate(ctx, "a.h5", plist.Default, tok)
	require.NoError(test, err)

	grp, err := conn.GroupCreate(ctx, file, location.Self(handle.ClassFile), "/g", plist.Default, plist.Default, tok)
	require.NoError(test, err)
	require.NoError(test, conn.GroupClose(ctx, grp, tok))
	require.NoError(test, conn.FileClose(ctx, file, tok))

	reopened, err := conn.FileOpen(ctx, "a.h5", plist.Default, tok)
	require.NoError(test, err)
	defer func() { _ = conn.FileClose(ctx, reopened, tok) }()

	grp, err = conn.GroupOpen(ctx, reopened, location.Self(handle.ClassFile), "g", plist.Default, tok)
	require.NoError(test, err)
	require.NoError(test, conn.GroupClose(ctx, grp, tok))
}

// TestFile_CreateExisting verifies container names are exclusive.
func (suite *ConnectorTestSuite) TestFile_CreateExisting(test *testing.T) {
	f := suite.setup(test)

	_, err := f.conn.FileCreate(f.ctx, "suite.h5", plist.Default, f.tok)
	assert.True(test, connector.IsCode(err, connector.ErrAlreadyExists), "got %v", err)
}

// TestFile_OpenMissing verifies opening an unknown container fails.
func (suite *ConnectorTestSuite) TestFile_OpenMissing(test *testing.T) {
	conn := suite.NewConnector(test)

	_, err := conn.FileOpen(context.Background(), "missing.h5", plist.Default, plist.DefaultTransfer())
	assert.True(test, connector.IsCode(err, connector.ErrNotFound), "got %v", err)
}

// TestFile_DoubleClose verifies a container object can only be closed once.
func (suite *ConnectorTestSuite) TestFile_DoubleClose(test *testing.T) {
	ctx := context.Background()
	conn := suite.NewConnector(test)
	tok := plist.DefaultTransfer()

	file, err := conn.FileCreate(ctx, "b.h5", plist.Default, tok)
	require.NoError(test, err)
	require.NoError(test, conn.FileClose(ctx, file, tok))

	err = conn.FileClose(ctx, file, tok)
	assert.True(test, connector.IsCode(err, connector.ErrClosed), "got %v", err)

	_, err = conn.GroupCreate(ctx, file, location.Self(handle.ClassFile), "g", plist.Default, plist.Default, tok)
	assert.True(test, connector.IsCode(err, connector.ErrClosed), "got %v", err)
}

// TestFile_CancelledContext verifies calls check the context at entry.
func (suite *ConnectorTestSuite) TestFile_CancelledContext(test *testing.T) {
	conn := suite.NewConnector(test)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conn.FileCreate(ctx, "c.h5", plist.Default, plist.DefaultTransfer())
	assert.ErrorIs(test, err, context.Canceled)
}
