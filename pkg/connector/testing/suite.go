// Package testing provides a conformance suite for connector.Connector
// implementations.
package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/stretchr/testify/require"
)

// ConnectorTestSuite tests the connector contract, not implementation
// details, so every backend runs the same checks.
type ConnectorTestSuite struct {
	// NewConnector creates a fresh connector for each test. Cleanup should be
	// registered on the passed test.
	NewConnector func(test *testing.T) connector.Connector
}

// Run executes all tests in the suite.
func (suite *ConnectorTestSuite) Run(test *testing.T) {
	test.Run("File", suite.RunFileTests)
	test.Run("Group", suite.RunGroupTests)
	test.Run("Get", suite.RunGetTests)
	test.Run("Specific", suite.RunSpecificTests)
	test.Run("Link", suite.RunLinkTests)
}

// fixture bundles a connector with an open container.
type fixture struct {
	ctx  context.Context
	conn connector.Connector
	file connector.Object
	tok  plist.Transfer
}

func (suite *ConnectorTestSuite) setup(test *testing.T) *fixture {
	test.Helper()

	f := &fixture{
		ctx:  context.Background(),
		conn: suite.NewConnector(test),
		tok:  plist.DefaultTransfer(),
	}

	file, err := f.conn.FileCreate(f.ctx, "suite.h5", plist.Default, f.tok)
	require.NoError(test, err)
	f.file = file

	test.Cleanup(func() {
		_ = f.conn.FileClose(f.ctx, f.file, f.tok)
	})
	return f
}

// create creates a named group from the container with gcpl.
func (f *fixture) create(test *testing.T, name string, gcpl *plist.List) connector.Object {
	test.Helper()
	obj, err := f.conn.GroupCreate(f.ctx, f.file, location.Self(handle.ClassFile), name, gcpl, plist.Default, f.tok)
	require.NoError(test, err, "create %s", name)
	return obj
}

func (f *fixture) open(test *testing.T, loc connector.Object, class handle.Class, name string) (connector.Object, error) {
	test.Helper()
	return f.conn.GroupOpen(f.ctx, loc, location.Self(class), name, plist.Default, f.tok)
}

func (f *fixture) close(test *testing.T, obj connector.Object) {
	test.Helper()
	require.NoError(test, f.conn.GroupClose(f.ctx, obj, f.tok))
}

func (f *fixture) info(test *testing.T, obj connector.Object) *connector.GroupInfo {
	test.Helper()
	res, err := f.conn.GroupGet(f.ctx, obj, connector.GetInfo, f.tok, location.Self(handle.ClassGroup))
	require.NoError(test, err)
	require.NotNil(test, res.Info)
	return res.Info
}

// composed returns a group creation list carrying an intermediate-group
// request, built the way the front end builds it.
func composed(test *testing.T, intermediate bool) *plist.List {
	test.Helper()
	lcpl := plist.New(plist.ClassLinkCreate)
	require.NoError(test, plist.SetCreateIntermediateGroup(lcpl, intermediate))
	gcpl, err := plist.ComposeGroupCreation(lcpl, plist.Default)
	require.NoError(test, err)
	return gcpl
}

// tracked returns a group creation list with creation order tracking.
func tracked(test *testing.T) *plist.List {
	test.Helper()
	gcpl := plist.New(plist.ClassGroupCreate)
	require.NoError(test, plist.SetLinkCreationOrder(gcpl, true, true))
	return gcpl
}
