package memory

import (
	"strings"

	"github.com/google/uuid"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// locate unpacks a location object into its container, the node it refers
// to and the class name resolution should start from.
func locate(op string, obj connector.Object) (*container, *node, handle.Class, error) {
	switch o := obj.(type) {
	case *fileObject:
		if o.closed {
			return nil, nil, handle.ClassBad, connector.NewError(connector.ErrClosed, op, o.c.name)
		}
		return o.c, o.c.nodes[o.c.root], handle.ClassFile, nil
	case *groupObject:
		if o.closed {
			return nil, nil, handle.ClassBad, connector.NewError(connector.ErrClosed, op, "")
		}
		return o.c, o.n, handle.ClassGroup, nil
	default:
		return nil, nil, handle.ClassBad, &connector.Error{Code: connector.ErrInvalidObject, Op: op}
	}
}

// origin returns the node a resolved target starts from.
func origin(c *container, start *node, target location.Target) *node {
	if target.Origin == location.OriginRoot {
		return c.nodes[c.root]
	}
	return start
}

// walkExisting follows comps from n as far as links exist. It returns the
// deepest node reached and the components left unresolved.
func walkExisting(op string, c *container, n *node, comps []string) (*node, []string, error) {
	for i, comp := range comps {
		l, _ := n.find(comp)
		if l == nil {
			return n, comps[i:], nil
		}
		next, ok := c.nodes[l.target]
		if !ok {
			return nil, nil, connector.NewError(connector.ErrNotFound, op, strings.Join(comps[:i+1], "/"))
		}
		n = next
	}
	return n, nil, nil
}

// lookup resolves name from the location node, failing on any missing
// component.
func lookup(op string, c *container, start *node, class handle.Class, name string) (*node, error) {
	target, err := location.Resolve(class, name)
	if err != nil {
		return nil, connector.WrapError(connector.ErrNotFound, op, err)
	}
	n, missing, err := walkExisting(op, c, origin(c, start, target), target.Components)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, connector.NewError(connector.ErrNotFound, op, name)
	}
	return n, nil
}

// resolveLocation applies params to a location object. Self keeps the
// location; ByName moves to the named group.
func resolveLocation(op string, c *container, start *node, class handle.Class, params location.Params) (*node, handle.Class, error) {
	switch params.Kind() {
	case location.BySelf:
		return start, class, nil
	case location.ByNameKind:
		n, err := lookup(op, c, start, class, params.Name())
		if err != nil {
			return nil, handle.ClassBad, err
		}
		return n, handle.ClassGroup, nil
	default:
		return nil, handle.ClassBad, connector.NewError(connector.ErrNotSupported, op, params.String())
	}
}

// insertLink links child at name (resolved from start) creating missing
// intermediate groups when lcpl asks for it. Nothing is modified on error.
func insertLink(op string, c *container, start *node, class handle.Class, name string, lcpl *plist.List, child func() *node) error {
	target, err := location.Resolve(class, name)
	if err != nil {
		return connector.WrapError(connector.ErrNotFound, op, err)
	}
	parents, last, ok := target.Split()
	if !ok {
		return connector.NewError(connector.ErrAlreadyExists, op, name)
	}

	parent, missing, err := walkExisting(op, c, origin(c, start, target), parents)
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
			inter := c.newNode(plist.DefaultFor(plist.ClassGroupCreate), props)
			c.addLink(parent, comp, inter)
			parent = inter
		}
	} else if l, _ := parent.find(last); l != nil {
		return connector.NewError(connector.ErrAlreadyExists, op, name)
	}

	c.addLink(parent, last, child())
	return nil
}

// byIndex selects the n-th link of the group reached by params.Name().
func byIndex(op string, c *container, start *node, class handle.Class, params location.Params) (*node, error) {
	group, err := lookup(op, c, start, class, params.Name())
	if err != nil {
		return nil, err
	}

	idx, order, n := params.Index()
	l, err := connector.SelectByIndex(group.linkTable(), idx, order, n, group.props.TrackCreationOrder)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(l.Target)
	if err != nil {
		return nil, connector.WrapError(connector.ErrInvalidObject, op, err)
	}
	target, ok := c.nodes[id]
	if !ok {
		return nil, connector.NewError(connector.ErrNotFound, op, l.Name)
	}
	return target, nil
}
