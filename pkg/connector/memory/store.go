// Package memory implements an in-process connector.Connector.
//
// Containers live in a map keyed by name and survive FileClose, so a
// container can be reopened for the lifetime of the Store. With a snapshot
// sink attached, FLUSH persists the container and FileOpen of an unknown
// name restores it from the sink.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/marmos91/dittoh5/pkg/snapshot"
)

// link is one entry of a group's link table.
type link struct {
	name   string
	target uuid.UUID
	corder int64
}

// node is a group.
type node struct {
	id uuid.UUID

	// gcpl is the stored creation list (no embedded link_create).
	gcpl  *plist.List
	props plist.GroupCreateProps

	// links are kept in insertion order, which is the native order.
	links      []*link
	nextCorder int64
	storage    connector.StorageType

	// hardLinks counts links pointing at the node; opens counts open objects.
	hardLinks int
	opens     int
}

func (n *node) find(name string) (*link, int) {
	for i, l := range n.links {
		if l.name == name {
			return l, i
		}
	}
	return nil, -1
}

func (n *node) restorage() {
	n.storage = connector.StorageFor(uint64(len(n.links)), n.props.MaxCompact, n.props.MinDense, n.storage)
}

// container is a named hierarchy of groups.
type container struct {
	name  string
	fapl  *plist.List
	root  uuid.UUID
	nodes map[uuid.UUID]*node
	opens int
}

// fileObject is the connector.Object for an open container.
type fileObject struct {
	c      *container
	closed bool
}

// groupObject is the connector.Object for an open group.
type groupObject struct {
	c      *container
	n      *node
	closed bool
}

// Store implements connector.Connector and connector.Linker in memory.
//
// Thread Safety:
// All operations are serialized by a single mutex.
//
// Storage Model:
//   - containers: container name → hierarchy
//   - container.nodes: node UUID → group
//   - node.links: ordered link table (name → node UUID, creation order)
//
// An unlinked node with no open objects is reclaimed immediately, together
// with anything only it was keeping alive. This is how anonymous groups are
// destroyed on their last close.
type Store struct {
	mu         sync.Mutex
	containers map[string]*container
	sink       snapshot.Sink
}

// Option configures a Store.
type Option func(*Store)

// WithSink attaches a snapshot sink used by FLUSH, REFRESH and FileOpen.
func WithSink(sink snapshot.Sink) Option {
	return func(s *Store) {
		s.sink = sink
	}
}

// NewStore creates an empty in-memory connector.
func NewStore(opts ...Option) *Store {
	s := &Store{
		containers: make(map[string]*container),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ connector.Connector = (*Store)(nil)
	_ connector.Linker    = (*Store)(nil)
)

// Name implements connector.Connector.
func (s *Store) Name() string {
	return "memory"
}

// newContainer builds a container with an empty root group.
func newContainer(name string, fapl *plist.List) *container {
	c := &container{
		name:  name,
		fapl:  fapl,
		nodes: make(map[uuid.UUID]*node),
	}
	props, _ := plist.GroupCreate(nil)
	root := c.newNode(plist.DefaultFor(plist.ClassGroupCreate), props)
	// The root is linked from the container itself.
	root.hardLinks = 1
	c.root = root.id
	return c
}

func (c *container) newNode(gcpl *plist.List, props plist.GroupCreateProps) *node {
	n := &node{
		id:    uuid.New(),
		gcpl:  gcpl,
		props: props,
	}
	c.nodes[n.id] = n
	return n
}

// addLink links child into parent under name.
func (c *container) addLink(parent *node, name string, child *node) {
	parent.links = append(parent.links, &link{
		name:   name,
		target: child.id,
		corder: parent.nextCorder,
	})
	parent.nextCorder++
	parent.restorage()
	child.hardLinks++
}

// reclaim deletes n and releases its links, cascading to nodes that become
// unreachable and unopened.
func (c *container) reclaim(n *node) {
	if n.id == c.root {
		return
	}
	delete(c.nodes, n.id)
	for _, l := range n.links {
		child, ok := c.nodes[l.target]
		if !ok {
			continue
		}
		child.hardLinks--
		if child.hardLinks <= 0 && child.opens <= 0 {
			c.reclaim(child)
		}
	}
	n.links = nil
}

func (c *container) info(n *node) *connector.GroupInfo {
	info := &connector.GroupInfo{
		StorageType: n.storage,
		NLinks:      uint64(len(n.links)),
	}
	if n.props.TrackCreationOrder {
		info.MaxCorder = n.nextCorder
	}
	return info
}

// linkTable converts n's links for connector.SelectByIndex.
func (n *node) linkTable() []connector.Link {
	out := make([]connector.Link, len(n.links))
	for i, l := range n.links {
		out[i] = connector.Link{Name: l.name, Target: l.target.String(), Corder: l.corder}
	}
	return out
}
