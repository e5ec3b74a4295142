package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
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

	p, err := locate(op, loc)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	rec := newNodeRecord(p.container, props)

	err = s.db.Update(func(txn *badger.Txn) error {
		t := newTx(txn)
		start, err := resolveLocation(op, t, p, params)
		if err != nil {
			return err
		}

		if name == "" {
			t.put(id, rec)
		} else {
			err = insertLink(op, t, start, name, plist.LinkCreate(gcpl), func() (uuid.UUID, error) {
				t.put(id, rec)
				return id, nil
			})
			if err != nil {
				return err
			}
		}
		return t.commit()
	})
	if err != nil {
		return nil, ioError(op, err)
	}

	s.opens[id]++
	if name == "" {
		logger.Debug("badger: created anonymous group %s in %s", id, p.container)
	} else {
		logger.Debug("badger: created group %s (%s) in %s", name, id, p.container)
	}

	return &groupObject{container: p.container, root: p.root, id: id, rec: rec}, nil
}

// GroupOpen implements connector.GroupConnector.
func (s *Store) GroupOpen(ctx context.Context, loc connector.Object, params location.Params, name string, _ *plist.List, _ plist.Transfer) (connector.Object, error) {
	const op = "group open"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := locate(op, loc)
	if err != nil {
		return nil, err
	}

	var (
		id  uuid.UUID
		rec *nodeRecord
	)
	err = s.db.View(func(txn *badger.Txn) error {
		t := newTx(txn)
		start, err := resolveLocation(op, t, p, params)
		if err != nil {
			return err
		}
		id, err = lookup(op, t, start, name)
		if err != nil {
			return err
		}
		rec, err = t.node(op, id)
		return err
	})
	if err != nil {
		return nil, ioError(op, err)
	}

	s.opens[id]++
	return &groupObject{container: p.container, root: p.root, id: id, rec: rec}, nil
}

// GroupGet implements connector.GroupConnector.
func (s *Store) GroupGet(ctx context.Context, obj connector.Object, kind connector.GetKind, _ plist.Transfer, params location.Params) (connector.GetResult, error) {
	const op = "group get"
	if err := ctx.Err(); err != nil {
		return connector.GetResult{}, err
	}

	s.mu.Lock()
	p, err := locate(op, obj)
	if err != nil {
		s.mu.Unlock()
		return connector.GetResult{}, err
	}

	// Creation properties never change, so a group's own list comes from the
	// record cached at open.
	if g, ok := obj.(*groupObject); ok && kind == connector.GetCreatePlist && params.Kind() == location.BySelf {
		props := g.rec.props()
		s.mu.Unlock()

		gcpl, err := plist.NewGroupCreate(props)
		if err != nil {
			return connector.GetResult{}, connector.WrapError(connector.ErrIO, op, err)
		}
		return connector.GetResult{Plist: gcpl}, nil
	}
	s.mu.Unlock()

	var rec *nodeRecord
	err = s.db.View(func(txn *badger.Txn) error {
		t := newTx(txn)

		id := p.node
		var err error
		switch params.Kind() {
		case location.ByNameKind:
			id, err = lookup(op, t, p, params.Name())
		case location.ByIndexKind:
			id, err = byIndex(op, t, p, params)
		}
		if err != nil {
			return err
		}

		rec, err = t.node(op, id)
		return err
	})
	if err != nil {
		return connector.GetResult{}, ioError(op, err)
	}

	switch kind {
	case connector.GetCreatePlist:
		gcpl, err := plist.NewGroupCreate(rec.props())
		if err != nil {
			return connector.GetResult{}, connector.WrapError(connector.ErrIO, op, err)
		}
		return connector.GetResult{Plist: gcpl}, nil
	case connector.GetInfo:
		return connector.GetResult{Info: rec.info()}, nil
	default:
		return connector.GetResult{}, connector.NewError(connector.ErrNotSupported, op, kind.String())
	}
}

// GroupSpecific implements connector.GroupConnector.
func (s *Store) GroupSpecific(ctx context.Context, obj connector.Object, kind connector.SpecificKind, _ plist.Transfer, id handle.ID) error {
	const op = "group specific"
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	_, err := locate(op, obj)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	g, ok := obj.(*groupObject)
	if !ok {
		return &connector.Error{Code: connector.ErrInvalidObject, Op: op}
	}

	switch kind {
	case connector.Flush:
		logger.Debug("badger: flushing group %s for %s", g.id, id)
		if err := s.db.Sync(); err != nil {
			return connector.WrapError(connector.ErrIO, op, err)
		}
		return nil
	case connector.Refresh:
		logger.Debug("badger: refreshing group %s for %s", g.id, id)
		return s.refresh(g)
	default:
		return connector.NewError(connector.ErrNotSupported, op, kind.String())
	}
}

func (s *Store) refresh(g *groupObject) error {
	const op = "group refresh"

	var rec *nodeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = newTx(txn).node(op, g.id)
		return err
	})
	if err != nil {
		return ioError(op, err)
	}

	s.mu.Lock()
	g.rec = rec
	s.mu.Unlock()
	return nil
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
		return connector.NewError(connector.ErrClosed, op, g.id.String())
	}

	g.closed = true
	s.opens[g.id]--
	if s.opens[g.id] > 0 {
		return nil
	}
	delete(s.opens, g.id)

	var removed int
	err := s.db.Update(func(txn *badger.Txn) error {
		t := newTx(txn)
		rec, err := t.node(op, g.id)
		if connector.IsCode(err, connector.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.HardLinks > 0 {
			return nil
		}
		removed, err = s.deleteNode(t, g.id)
		if err != nil {
			return err
		}
		return t.commit()
	})
	if err != nil {
		return ioError(op, err)
	}

	if removed > 0 {
		logger.Debug("badger: reclaimed %d unlinked groups after closing %s", removed, g.id)
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
	p, err := locate(op, loc)
	if err != nil {
		return err
	}
	if p.container != g.container {
		return &connector.Error{Code: connector.ErrInvalidObject, Op: op, Path: "objects are in different containers"}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		t := newTx(txn)
		start, err := resolveLocation(op, t, p, params)
		if err != nil {
			return err
		}
		err = insertLink(op, t, start, name, lcpl, func() (uuid.UUID, error) {
			return g.id, nil
		})
		if err != nil {
			return err
		}
		return t.commit()
	})
	return ioError(op, err)
}
