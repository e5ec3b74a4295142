package testing

import (
	"testing"

	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *ConnectorTestSuite) RunSpecificTests(test *testing.T) {
	test.Run("FlushRefresh", suite.TestSpecific_FlushRefresh)
	test.Run("Unknown", suite.TestSpecific_Unknown)
	test.Run("Closed", suite.TestSpecific_Closed)
}

// TestSpecific_FlushRefresh verifies both operations succeed and leave the
// flushed state visible.
func (suite *ConnectorTestSuite) TestSpecific_FlushRefresh(test *testing.T) {
	f := suite.setup(test)

	g := f.create(test, "/g", plist.Default)
	defer f.close(test, g)
	f.close(test, f.create(test, "/g/a", plist.Default))

	require.NoError(test, f.conn.GroupSpecific(f.ctx, g, connector.Flush, f.tok, handle.Invalid))
	require.NoError(test, f.conn.GroupSpecific(f.ctx, g, connector.Refresh, f.tok, handle.Invalid))

	assert.Equal(test, uint64(1), f.info(test, g).NLinks)
}

// TestSpecific_Unknown verifies unknown kinds are rejected.
func (suite *ConnectorTestSuite) TestSpecific_Unknown(test *testing.T) {
	f := suite.setup(test)

	g := f.create(test, "/g", plist.Default)
	defer f.close(test, g)

	err := f.conn.GroupSpecific(f.ctx, g, connector.SpecificKind(99), f.tok, handle.Invalid)
	assert.True(test, connector.IsCode(err, connector.ErrNotSupported), "got %v", err)
}

// TestSpecific_Closed verifies closed objects are rejected.
func (suite *ConnectorTestSuite) TestSpecific_Closed(test *testing.T) {
	f := suite.setup(test)

	g := f.create(test, "/g", plist.Default)
	f.close(test, g)

	err := f.conn.GroupSpecific(f.ctx, g, connector.Flush, f.tok, handle.Invalid)
	assert.True(test, connector.IsCode(err, connector.ErrClosed), "got %v", err)
}
