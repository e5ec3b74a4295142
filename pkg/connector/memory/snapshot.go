package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/marmos91/dittoh5/pkg/snapshot"
)

// containerSnapshot is the persisted form of a container. Only linked nodes
// are written; anonymous groups do not outlive their last close.
type containerSnapshot struct {
	Name  string         `json:"name"`
	Root  uuid.UUID      `json:"root"`
	Nodes []nodeSnapshot `json:"nodes"`
}

type nodeSnapshot struct {
	ID         uuid.UUID              `json:"id"`
	Create     plist.GroupCreateProps `json:"create"`
	NextCorder int64                  `json:"next_corder"`
	Links      []linkSnapshot         `json:"links"`
}

type linkSnapshot struct {
	Name   string    `json:"name"`
	Target uuid.UUID `json:"target"`
	Corder int64     `json:"corder"`
}

func encodeContainer(c *container) ([]byte, error) {
	snap := containerSnapshot{Name: c.name, Root: c.root}
	for _, n := range c.nodes {
		if n.hardLinks <= 0 {
			continue
		}
		ns := nodeSnapshot{
			ID:         n.id,
			Create:     n.props,
			NextCorder: n.nextCorder,
			Links:      make([]linkSnapshot, 0, len(n.links)),
		}
		for _, l := range n.links {
			ns.Links = append(ns.Links, linkSnapshot{Name: l.name, Target: l.target, Corder: l.corder})
		}
		snap.Nodes = append(snap.Nodes, ns)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool {
		return snap.Nodes[i].ID.String() < snap.Nodes[j].ID.String()
	})

	data, err := json.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode container %s: %w", c.name, err)
	}
	return data, nil
}

func decodeContainer(data []byte) (*containerSnapshot, error) {
	var snap containerSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode container snapshot: %w", err)
	}
	return &snap, nil
}

func (s *Store) load(ctx context.Context, op, name string) (*containerSnapshot, error) {
	data, err := s.sink.Get(ctx, snapshot.Key(name))
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return nil, connector.WrapError(connector.ErrNotFound, op, err)
		}
		return nil, connector.WrapError(connector.ErrIO, op, err)
	}
	snap, err := decodeContainer(data)
	if err != nil {
		return nil, connector.WrapError(connector.ErrIO, op, err)
	}
	return snap, nil
}

// flush writes c to the sink.
func (s *Store) flush(ctx context.Context, c *container) error {
	const op = "group flush"

	data, err := encodeContainer(c)
	if err != nil {
		return connector.WrapError(connector.ErrIO, op, err)
	}
	if err := s.sink.Put(ctx, snapshot.Key(c.name), data); err != nil {
		return connector.WrapError(connector.ErrIO, op, err)
	}
	return nil
}

// refresh replaces n's link table with the flushed one. A group that was
// never flushed keeps its state. Links to nodes no longer in memory are
// dropped.
func (s *Store) refresh(ctx context.Context, c *container, n *node) error {
	const op = "group refresh"

	snap, err := s.load(ctx, op, c.name)
	if err != nil {
		if connector.IsCode(err, connector.ErrNotFound) {
			return nil
		}
		return err
	}

	var flushed *nodeSnapshot
	for i := range snap.Nodes {
		if snap.Nodes[i].ID == n.id {
			flushed = &snap.Nodes[i]
			break
		}
	}
	if flushed == nil {
		return nil
	}

	old := n.links
	n.links = make([]*link, 0, len(flushed.Links))
	for _, ls := range flushed.Links {
		target, ok := c.nodes[ls.Target]
		if !ok {
			logger.Warn("memory: refresh of %s drops link %q to reclaimed group %s", n.id, ls.Name, ls.Target)
			continue
		}
		target.hardLinks++
		n.links = append(n.links, &link{name: ls.Name, target: ls.Target, corder: ls.Corder})
	}
	n.nextCorder = flushed.NextCorder

	for _, l := range old {
		target, ok := c.nodes[l.target]
		if !ok {
			continue
		}
		target.hardLinks--
		if target.hardLinks <= 0 && target.opens <= 0 {
			c.reclaim(target)
		}
	}
	n.restorage()
	return nil
}

// restore rebuilds a container from its snapshot.
func (s *Store) restore(ctx context.Context, op, name string, fapl *plist.List) (*container, error) {
	snap, err := s.load(ctx, op, name)
	if err != nil {
		return nil, err
	}

	c := &container{
		name:  name,
		fapl:  fapl,
		root:  snap.Root,
		nodes: make(map[uuid.UUID]*node, len(snap.Nodes)),
	}
	for _, ns := range snap.Nodes {
		gcpl, err := plist.NewGroupCreate(ns.Create)
		if err != nil {
			return nil, connector.WrapError(connector.ErrIO, op, err)
		}
		n := &node{
			id:         ns.ID,
			gcpl:       gcpl,
			props:      ns.Create,
			nextCorder: ns.NextCorder,
			links:      make([]*link, 0, len(ns.Links)),
		}
		for _, ls := range ns.Links {
			n.links = append(n.links, &link{name: ls.Name, target: ls.Target, corder: ls.Corder})
		}
		n.restorage()
		c.nodes[n.id] = n
	}

	root, ok := c.nodes[c.root]
	if !ok {
		return nil, connector.NewError(connector.ErrIO, op, "snapshot has no root group")
	}
	root.hardLinks = 1
	for _, n := range c.nodes {
		for _, l := range n.links {
			if target, ok := c.nodes[l.target]; ok {
				target.hardLinks++
			}
		}
	}

	logger.Info("memory: restored container %s from %s sink (%d groups)", name, s.sink.Name(), len(c.nodes))
	return c, nil
}
