package h5

import (
	"context"
	"fmt"

	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// CreateGroup creates a group named name relative to loc (a file or group
// handle) and returns a handle for it.
//
// lcpl controls link creation (e.g. plist.SetCreateIntermediateGroup),
// gcpl the new group and gapl access to it; each may be plist.Default.
//
// Errors:
//   - ErrArgument: empty name or a list of the wrong class
//   - ErrHandle: loc is not a live file or group handle
//   - ErrBackend: the connector failed (name taken, missing parent, ...)
func (l *Library) CreateGroup(ctx context.Context, loc handle.ID, name string, lcpl, gcpl, gapl *plist.List) (handle.ID, error) {
	const op = "create group"

	if name == "" {
		return handle.Invalid, argumentError(op, errEmptyName)
	}
	lcpl, err := plist.ResolveDefault(plist.ClassLinkCreate, lcpl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}
	gcpl, err = plist.ResolveDefault(plist.ClassGroupCreate, gcpl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}

	b, class, err := l.location(op, loc)
	if err != nil {
		return handle.Invalid, err
	}
	gapl, tok, err := plist.ResolveAccess(loc, plist.ClassGroupAccess, gapl, b.fapl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}

	composed, err := plist.ComposeGroupCreation(lcpl, gcpl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}

	logger.Debug("h5: %s %q at %s", op, name, loc)
	obj, err := b.conn.GroupCreate(ctx, b.obj, location.Self(class), name, composed, gapl, tok)
	if err != nil {
		return handle.Invalid, backendError(op, fmt.Errorf("unable to create group: %w", err))
	}

	return l.register(ctx, op, handle.ClassGroup, &Binding{conn: b.conn, obj: obj, fapl: b.fapl})
}

// CreateAnonGroup creates a group with no link in the container of loc.
// The group is destroyed when its handle is closed unless Link is called
// first.
func (l *Library) CreateAnonGroup(ctx context.Context, loc handle.ID, gcpl, gapl *plist.List) (handle.ID, error) {
	const op = "create anonymous group"

	gcpl, err := plist.ResolveDefault(plist.ClassGroupCreate, gcpl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}

	b, class, err := l.location(op, loc)
	if err != nil {
		return handle.Invalid, err
	}
	gapl, tok, err := plist.ResolveAccess(loc, plist.ClassGroupAccess, gapl, b.fapl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}

	logger.Debug("h5: %s at %s", op, loc)
	obj, err := b.conn.GroupCreate(ctx, b.obj, location.Self(class), "", gcpl, gapl, tok)
	if err != nil {
		return handle.Invalid, backendError(op, fmt.Errorf("unable to create group: %w", err))
	}

	return l.register(ctx, op, handle.ClassGroup, &Binding{conn: b.conn, obj: obj, fapl: b.fapl})
}

// OpenGroup opens the group reached by name from loc. The name "." opens
// loc itself again under a new handle.
func (l *Library) OpenGroup(ctx context.Context, loc handle.ID, name string, gapl *plist.List) (handle.ID, error) {
	const op = "open group"

	if name == "" {
		return handle.Invalid, argumentError(op, errEmptyName)
	}

	b, class, err := l.location(op, loc)
	if err != nil {
		return handle.Invalid, err
	}
	gapl, tok, err := plist.ResolveAccess(loc, plist.ClassGroupAccess, gapl, b.fapl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}

	logger.Debug("h5: %s %q at %s", op, name, loc)
	obj, err := b.conn.GroupOpen(ctx, b.obj, location.Self(class), name, gapl, tok)
	if err != nil {
		return handle.Invalid, backendError(op, fmt.Errorf("unable to open group: %w", err))
	}

	return l.register(ctx, op, handle.ClassGroup, &Binding{conn: b.conn, obj: obj, fapl: b.fapl})
}

// GroupCreatePlist returns a property list handle holding a copy of the
// creation list of group id. The caller owns the handle and releases it
// with ClosePlist; changing the list does not affect the group.
func (l *Library) GroupCreatePlist(ctx context.Context, id handle.ID) (handle.ID, error) {
	const op = "get group creation property list"

	b, err := l.binding(op, id, handle.ClassGroup)
	if err != nil {
		return handle.Invalid, err
	}
	_, tok, err := plist.ResolveAccess(id, plist.ClassLinkAccess, plist.Default, b.fapl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}

	res, err := b.conn.GroupGet(ctx, b.obj, connector.GetCreatePlist, tok, location.Self(handle.ClassGroup))
	if err != nil {
		return handle.Invalid, backendError(op, fmt.Errorf("unable to get group creation properties: %w", err))
	}
	if res.Plist == nil {
		return handle.Invalid, backendError(op, fmt.Errorf("connector returned no property list"))
	}

	pid, err := l.reg.Register(handle.ClassPropList, res.Plist)
	if err != nil {
		return handle.Invalid, handleError(op, fmt.Errorf("unable to register property list: %w", err))
	}
	return pid, nil
}

// PlistOf returns the list behind a property list handle.
func (l *Library) PlistOf(id handle.ID) (*plist.List, error) {
	payload, err := l.reg.Verify(id, handle.ClassPropList)
	if err != nil {
		return nil, handleError("get property list", err)
	}
	return payload.(*plist.List), nil
}

// ClosePlist releases a property list handle.
func (l *Library) ClosePlist(ctx context.Context, id handle.ID) error {
	return l.release(ctx, "close property list", id, handle.ClassPropList)
}

// GroupInfo returns information about the group (or container root) loc
// refers to.
func (l *Library) GroupInfo(ctx context.Context, loc handle.ID) (connector.GroupInfo, error) {
	const op = "get group info"

	class := loc.Class()
	if class != handle.ClassGroup && class != handle.ClassFile {
		return connector.GroupInfo{}, argumentError(op, fmt.Errorf("invalid group (or file) ID: %s", loc))
	}
	return l.info(ctx, op, loc, plist.Default, func(*plist.List) (location.Params, error) {
		return location.Self(class), nil
	})
}

// GroupInfoByName returns information about the group reached by name from
// loc. lapl may be plist.Default.
func (l *Library) GroupInfoByName(ctx context.Context, loc handle.ID, name string, lapl *plist.List) (connector.GroupInfo, error) {
	const op = "get group info by name"

	if name == "" {
		return connector.GroupInfo{}, argumentError(op, errEmptyName)
	}
	return l.info(ctx, op, loc, lapl, func(access *plist.List) (location.Params, error) {
		return location.ByName(loc.Class(), name, access)
	})
}

// GroupInfoByIdx returns information about the n-th member, in the given
// index and order, of the group reached by name from loc.
func (l *Library) GroupInfoByIdx(ctx context.Context, loc handle.ID, name string, idxType location.IndexType, order location.IterOrder, n uint64, lapl *plist.List) (connector.GroupInfo, error) {
	const op = "get group info by index"

	if name == "" {
		return connector.GroupInfo{}, argumentError(op, errEmptyName)
	}
	if !idxType.Valid() {
		return connector.GroupInfo{}, argumentError(op, fmt.Errorf("%w: %d", location.ErrInvalidIndex, idxType))
	}
	if !order.Valid() {
		return connector.GroupInfo{}, argumentError(op, fmt.Errorf("%w: %d", location.ErrInvalidOrder, order))
	}

	return l.info(ctx, op, loc, lapl, func(access *plist.List) (location.Params, error) {
		return location.ByIndex(loc.Class(), name, idxType, order, n, access)
	})
}

// info is the shared dispatch of the three GroupInfo variants. build gets
// the class-resolved link access list, never the Default sentinel.
func (l *Library) info(ctx context.Context, op string, loc handle.ID, lapl *plist.List, build func(access *plist.List) (location.Params, error)) (connector.GroupInfo, error) {
	b, _, err := l.location(op, loc)
	if err != nil {
		return connector.GroupInfo{}, err
	}
	access, tok, err := plist.ResolveAccess(loc, plist.ClassLinkAccess, lapl, b.fapl)
	if err != nil {
		return connector.GroupInfo{}, argumentError(op, err)
	}
	params, err := build(access)
	if err != nil {
		return connector.GroupInfo{}, argumentError(op, err)
	}

	logger.Debug("h5: %s %s at %s", op, params, loc)
	res, err := b.conn.GroupGet(ctx, b.obj, connector.GetInfo, tok, params)
	if err != nil {
		return connector.GroupInfo{}, backendError(op, fmt.Errorf("unable to get group info: %w", err))
	}
	if res.Info == nil {
		return connector.GroupInfo{}, backendError(op, fmt.Errorf("connector returned no group info"))
	}
	return *res.Info, nil
}

// FlushGroup writes the group's pending state to stable storage.
func (l *Library) FlushGroup(ctx context.Context, id handle.ID) error {
	return l.specific(ctx, "flush group", id, connector.Flush)
}

// RefreshGroup discards the group's cached state and rereads it.
func (l *Library) RefreshGroup(ctx context.Context, id handle.ID) error {
	return l.specific(ctx, "refresh group", id, connector.Refresh)
}

func (l *Library) specific(ctx context.Context, op string, id handle.ID, kind connector.SpecificKind) error {
	b, err := l.binding(op, id, handle.ClassGroup)
	if err != nil {
		return err
	}
	_, tok, err := plist.ResolveAccess(id, plist.ClassLinkAccess, plist.Default, b.fapl)
	if err != nil {
		return argumentError(op, err)
	}

	logger.Debug("h5: %s %s", op, id)
	if err := b.conn.GroupSpecific(ctx, b.obj, kind, tok, id); err != nil {
		return backendError(op, err)
	}
	return nil
}

// CloseGroup releases a group handle. When the last reference goes the
// backend object is closed; if that close fails the error is returned but
// the handle is gone regardless.
func (l *Library) CloseGroup(ctx context.Context, id handle.ID) error {
	return l.release(ctx, "close group", id, handle.ClassGroup)
}

// Link creates a hard link named name, resolved from loc, to the group
// behind obj. It is how an anonymous group is made permanent.
func (l *Library) Link(ctx context.Context, obj handle.ID, loc handle.ID, name string, lcpl, lapl *plist.List) error {
	const op = "link group"

	if name == "" {
		return argumentError(op, errEmptyName)
	}
	lcpl, err := plist.ResolveDefault(plist.ClassLinkCreate, lcpl)
	if err != nil {
		return argumentError(op, err)
	}

	target, err := l.binding(op, obj, handle.ClassGroup)
	if err != nil {
		return err
	}
	b, class, err := l.location(op, loc)
	if err != nil {
		return err
	}
	_, tok, err := plist.ResolveAccess(loc, plist.ClassLinkAccess, lapl, b.fapl)
	if err != nil {
		return argumentError(op, err)
	}

	linker, ok := b.conn.(connector.Linker)
	if !ok {
		return backendError(op, connector.NewError(connector.ErrNotSupported, "link object", b.conn.Name()))
	}
	if err := linker.LinkObject(ctx, target.obj, b.obj, location.Self(class), name, lcpl, tok); err != nil {
		return backendError(op, err)
	}
	return nil
}
