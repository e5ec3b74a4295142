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

func (suite *ConnectorTestSuite) RunLinkTests(test *testing.T) {
	test.Run("LinkAnonymous", suite.TestLink_LinkAnonymous)
	test.Run("LinkExisting", suite.TestLink_LinkExisting)
}

func (suite *ConnectorTestSuite) linker(test *testing.T, conn connector.Connector) connector.Linker {
	test.Helper()
	linker, ok := conn.(connector.Linker)
	if !ok {
		test.Skipf("%s does not implement connector.Linker", conn.Name())
	}
	return linker
}

// TestLink_LinkAnonymous verifies a linked anonymous group outlives its
// last close.
func (suite *ConnectorTestSuite) TestLink_LinkAnonymous(test *testing.T) {
	f := suite.setup(test)
	linker := suite.linker(test, f.conn)

	anon, err := f.conn.GroupCreate(f.ctx, f.file, location.Self(handle.ClassFile), "", plist.Default, plist.Default, f.tok)
	require.NoError(test, err)
	f.close(test, f.create(test, "/parent", plist.Default))

	err = linker.LinkObject(f.ctx, anon, f.file, location.Self(handle.ClassFile), "/parent/kept", plist.Default, f.tok)
	require.NoError(test, err)
	f.close(test, anon)

	obj, err := f.open(test, f.file, handle.ClassFile, "/parent/kept")
	require.NoError(test, err)
	f.close(test, obj)
}

// TestLink_LinkExisting verifies linking over a taken name fails.
func (suite *ConnectorTestSuite) TestLink_LinkExisting(test *testing.T) {
	f := suite.setup(test)
	linker := suite.linker(test, f.conn)

	g := f.create(test, "/g", plist.Default)
	defer f.close(test, g)

	err := linker.LinkObject(f.ctx, g, f.file, location.Self(handle.ClassFile), "/g", plist.Default, f.tok)
	assert.True(test, connector.IsCode(err, connector.ErrAlreadyExists), "got %v", err)
}
