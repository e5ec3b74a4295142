package badger

import (
	"strings"

	"github.com/google/uuid"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// place is a resolved position in a container.
type place struct {
	container string
	root      uuid.UUID
	node      uuid.UUID
	class     handle.Class
}

func locate(op string, obj connector.Object) (place, error) {
	switch o := obj.(type) {
	case *fileObject:
		if o.closed {
			return place{}, connector.NewError(connector.ErrClosed, op, o.name)
		}
		return place{container: o.name, root: o.root, node: o.root, class: handle.ClassFile}, nil
	case *groupObject:
		if o.closed {
			return place{}, connector.NewError(connector.ErrClosed, op, o.id.String())
		}
		return place{container: o.container, root: o.root, node: o.id, class: handle.ClassGroup}, nil
	default:
		return place{}, &connector.Error{Code: connector.ErrInvalidObject, Op: op}
	}
}

func (p place) origin(target location.Target) uuid.UUID {
	if target.Origin == location.OriginRoot {
		return p.root
	}
	return p.node
}

func (p place) at(id uuid.UUID) place {
	return place{container: p.container, root: p.root, node: id, class: handle.ClassGroup}
}

// walkExisting follows comps from id as far as links exist.
func walkExisting(t *tx, from uuid.UUID, comps []string) (uuid.UUID, []string, error) {
	cur := from
	for i, comp := range comps {
		l, target, err := t.link(cur, comp)
		if err != nil {
			return uuid.Nil, nil, err
		}
		if l == nil {
			return cur, comps[i:], nil
		}
		cur = target
	}
	return cur, nil, nil
}

func lookup(op string, t *tx, p place, name string) (uuid.UUID, error) {
	target, err := location.Resolve(p.class, name)
	if err != nil {
		return uuid.Nil, connector.WrapError(connector.ErrNotFound, op, err)
	}
	id, missing, err := walkExisting(t, p.origin(target), target.Components)
	if err != nil {
		return uuid.Nil, err
	}
	if len(missing) > 0 {
		return uuid.Nil, connector.NewError(connector.ErrNotFound, op, name)
	}
	if _, err := t.node(op, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func resolveLocation(op string, t *tx, p place, params location.Params) (place, error) {
	switch params.Kind() {
	case location.BySelf:
		return p, nil
	case location.ByNameKind:
		id, err := lookup(op, t, p, params.Name())
		if err != nil {
			return place{}, err
		}
		return p.at(id), nil
	default:
		return place{}, connector.NewError(connector.ErrNotSupported, op, params.String())
	}
}

// insertLink links child at name from p, creating missing intermediate
// groups when lcpl asks for it. The caller discards the transaction on
// error, so partial work never commits.
func insertLink(op string, t *tx, p place, name string, lcpl *plist.List, child func() (uuid.UUID, error)) error {
	target, err := location.Resolve(p.class, name)
	if err != nil {
		return connector.WrapError(connector.ErrNotFound, op, err)
	}
	parents, last, ok := target.Split()
	if !ok {
		return connector.NewError(connector.ErrAlreadyExists, op, name)
	}

	parent, missing, err := walkExisting(t, p.origin(target), parents)
	if err != nil {
		return err
	}

	if len(missing) > 0 {
		lc, err := plist.LinkCreation(lcpl)
		if err != nil {
			return connector.WrapError(connector.ErrInvalidObject, op, err)
		}
		if !lc.CreateIntermediateGroup {
			return connector.NewError(connector.ErrNotFound, op, strings.Join(parents[:len(parents)-len(missing)+1], "/"))
		}
		props, _ := plist.GroupCreate(nil)
		for _, comp := range missing {
			inter := uuid.New()
			t.put(inter, newNodeRecord(p.container, props))
			if err := t.addLink(op, parent, comp, inter); err != nil {
				return err
			}
			parent = inter
		}
	} else {
		l, _, err := t.link(parent, last)
		if err != nil {
			return err
		}
		if l != nil {
			return connector.NewError(connector.ErrAlreadyExists, op, name)
		}
	}

	id, err := child()
	if err != nil {
		return err
	}
	return t.addLink(op, parent, last, id)
}

func byIndex(op string, t *tx, p place, params location.Params) (uuid.UUID, error) {
	group, err := lookup(op, t, p, params.Name())
	if err != nil {
		return uuid.Nil, err
	}
	rec, err := t.node(op, group)
	if err != nil {
		return uuid.Nil, err
	}
	links, err := t.links(group)
	if err != nil {
		return uuid.Nil, err
	}

	idx, order, n := params.Index()
	l, err := connector.SelectByIndex(links, idx, order, n, rec.TrackCreationOrder)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(l.Target)
}

// deleteNode removes id and its links, cascading to groups left with no
// hard links and no open objects. It returns the number of groups removed.
func (s *Store) deleteNode(t *tx, id uuid.UUID) (int, error) {
	const op = "delete group"
	if t.deleted[id] {
		return 0, nil
	}

	links, err := t.links(id)
	if err != nil {
		return 0, err
	}
	t.remove(id)
	removed := 1

	for _, l := range links {
		if err := t.txn.Delete(keyLink(id, l.Name)); err != nil {
			return removed, err
		}
		target, err := uuid.Parse(l.Target)
		if err != nil {
			return removed, err
		}
		rec, err := t.node(op, target)
		if connector.IsCode(err, connector.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		if rec.HardLinks > 0 {
			rec.HardLinks--
		}
		t.put(target, rec)
		if rec.HardLinks == 0 && s.opens[target] == 0 {
			n, err := s.deleteNode(t, target)
			removed += n
			if err != nil {
				return removed, err
			}
		}
	}
	return removed, nil
}
