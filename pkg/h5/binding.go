package h5

import (
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// Binding is the payload of file and group handles: the backend object and
// the connector that produced it. It is fixed when the handle is registered.
type Binding struct {
	conn connector.Connector
	obj  connector.Object

	// fapl is the access list of the owning container. Groups inherit it
	// from the location they were created or opened from.
	fapl *plist.List
}

// Connector returns the connector the handle is bound to.
func (b *Binding) Connector() connector.Connector {
	return b.conn
}

// Object returns the backend object.
func (b *Binding) Object() connector.Object {
	return b.obj
}
