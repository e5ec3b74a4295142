package memory

import (
	"context"

	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// GroupCreate implements connector.GroupConnector.
func (s *Store) GroupCreate(ctx context.Context, loc connector.Object, params location.Params, name string, gcpl, _ *plist.List, _ plist.Transfer) (connector.Object, error) {
	const op = "group create"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := plist.WithoutLinkCreate(gcpl)
	if err != nil {
		return nil, connector.WrapError(connector.ErrInvalidObject, op, err)
	}
	props, err := plist.GroupCreate(stored)
	if err != nil {
		return nil, connector.WrapError(connector.ErrInvalidObject, op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, start, class, err := locate(op, loc)
	if err != nil {
		return nil, err
	}
	start, class, err = resolveLocation(op, c, start, class, params)
	if err != nil {
		return nil, err
	}

	var created *node
	newGroup := func() *node {
		created = c.newNode(stored, props)
		return created
	}

	if name == "" {
		newGroup()
		logger.Debug("memory: created anonymous group %s in %s", created.id, c.name)
	} else {
		if err := insertLink(op, c, start, class, name, plist.LinkCreate(gcpl), newGroup); err != nil {
			return nil, err
		}
		logger.Debug("memory: created group %s (%s) in %s", name, created.id, c.name)
	}

	created.opens++
	return &groupObject{c: c, n: created}, nil
}

// GroupOpen implements connector.GroupConnector.
func (s *Store) GroupOpen(ctx context.Context, loc connector.Object, params location.Params, name string, _ *plist.List, _ plist.Transfer) (connector.Object, error) {
	const op = "group open"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, start, class, err := locate(op, loc)
	if err != nil {
		return nil, err
	}
	start, class, err = resolveLocation(op, c, start, class, params)
	if err != nil {
		return nil, err
	}

	n, err := lookup(op, c, start, class, name)
	if err != nil {
		return nil, err
	}

	n.opens++
	return &groupObject{c: c, n: n}, nil
}

// GroupGet implements connector.GroupConnector.
func (s *Store) GroupGet(ctx context.Context, obj connector.Object, kind connector.GetKind, _ plist.Transfer, params location.Params) (connector.GetResult, error) {
	const op = "group get"
	if err := ctx.Err(); err != nil {
		return connector.GetResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, start, class, err := locate(op, obj)
	if err != nil {
		return connector.GetResult{}, err
	}

	var n *node
	switch params.Kind() {
	case location.BySelf:
		n = start
	case location.ByNameKind:
		n, err = lookup(op, c, start, class, params.Name())
	case location.ByIndexKind:
		n, err = byIndex(op, c, start, class, params)
	}
	if err != nil {
		return connector.GetResult{}, err
	}

	switch kind {
	case connector.GetCreatePlist:
		return connector.GetResult{Plist: n.gcpl.Copy()}, nil
	case connector.GetInfo:
		return connector.GetResult{Info: c.info(n)}, nil
	default:
		return connector.GetResult{}, connector.NewError(connector.ErrNotSupported, op, kind.String())
	}
}

// GroupSpecific implements connector.GroupConnector.
//
// Without a sink both operations are no-ops: memory is the stable storage.
func (s *Store) GroupSpecific(ctx context.Context, obj connector.Object, kind connector.SpecificKind, _ plist.Transfer, id handle.ID) error {
	const op = "group specific"
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, n, _, err := locate(op, obj)
	if err != nil {
		return err
	}

	switch kind {
	case connector.Flush:
		if s.sink == nil {
			return nil
		}
		logger.Debug("memory: flushing %s for %s", c.name, id)
		return s.flush(ctx, c)
	case connector.Refresh:
		if s.sink == nil {
			return nil
		}
		logger.Debug("memory: refreshing group %s of %s for %s", n.id, c.name, id)
		return s.refresh(ctx, c, n)
	default:
		return connector.NewError(connector.ErrNotSupported, op, kind.String())
	}
}

// GroupClose implements connector.GroupConnector. It ignores cancellation: the caller
// has already dropped its handle and cannot retry the close.
func (s *Store) GroupClose(_ context.Context, obj connector.Object, _ plist.Transfer) error {
	const op = "group close"

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := obj.(*groupObject)
	if !ok {
		return &connector.Error{Code: connector.ErrInvalidObject, Op: op}
	}
	if g.closed {
		return connector.NewError(connector.ErrClosed, op, g.n.id.String())
	}

	g.closed = true
	g.n.opens--
	if g.n.opens <= 0 && g.n.hardLinks <= 0 {
		logger.Debug("memory: reclaiming unlinked group %s", g.n.id)
		g.c.reclaim(g.n)
	}
	return nil
}

// LinkObject implements connector.Linker.
func (s *Store) LinkObject(ctx context.Context, obj connector.Object, loc connector.Object, params location.Params, name string, lcpl *plist.List, _ plist.Transfer) error {
	const op = "link object"
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return connector.NewError(connector.ErrNotFound, op, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := obj.(*groupObject)
	if !ok || g.closed {
		return &connector.Error{Code: connector.ErrInvalidObject, Op: op}
	}

	c, start, class, err := locate(op, loc)
	if err != nil {
		return err
	}
	if c != g.c {
		return &connector.Error{Code: connector.ErrInvalidObject, Op: op, Path: "objects are in different containers"}
	}
	start, class, err = resolveLocation(op, c, start, class, params)
	if err != nil {
		return err
	}

	return insertLink(op, c, start, class, name, lcpl, func() *node { return g.n })
}
