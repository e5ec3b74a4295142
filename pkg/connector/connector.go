package connector

import (
	"context"

	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// ============================================================================
// Connector Interface
// ============================================================================

// Object is a backend-owned object (an open container or group). Its
// concrete type is private to the connector that produced it; the front end
// only stores it and hands it back.
type Object any

// GetKind selects what GroupGet returns.
type GetKind int

const (
	// GetCreatePlist returns a fresh copy of the group's creation list.
	GetCreatePlist GetKind = iota

	// GetInfo returns a GroupInfo snapshot.
	GetInfo
)

func (k GetKind) String() string {
	switch k {
	case GetCreatePlist:
		return "GET_CREATE_PLIST"
	case GetInfo:
		return "GET_INFO"
	default:
		return "GET_UNKNOWN"
	}
}

// SpecificKind selects the backend-specific operation run by GroupSpecific.
type SpecificKind int

const (
	// Flush writes the group's pending state to stable storage.
	Flush SpecificKind = iota

	// Refresh discards cached state and rereads the group from storage.
	Refresh
)

func (k SpecificKind) String() string {
	switch k {
	case Flush:
		return "FLUSH"
	case Refresh:
		return "REFRESH"
	default:
		return "SPECIFIC_UNKNOWN"
	}
}

// GetResult carries the answer to a GroupGet. Exactly one field is set,
// matching the requested GetKind.
type GetResult struct {
	Plist *plist.List
	Info  *GroupInfo
}

// GroupConnector is the operation set every backend implements for groups.
//
// The front end never branches on the concrete backend: every group
// operation goes through these five methods.
//
// Object Lifecycle:
// Each Object returned by GroupCreate or GroupOpen must eventually be passed
// to GroupClose exactly once. An anonymous group (created with an empty
// name) is destroyed by its last GroupClose unless it was linked into the
// hierarchy first.
//
// Location Resolution:
// The loc argument is a container or group object; params describes how to
// reach the target from it (see location.Params). Backends resolve names
// with location.Resolve semantics: container locations resolve every name
// from the root, group locations resolve absolute names from the root and
// relative names from the group.
type GroupConnector interface {
	// GroupCreate creates a group.
	//
	// With a non-empty name the new group is linked at name, resolved from
	// loc per params (normally location.Self). Missing intermediate groups
	// are created only if the link creation list embedded in gcpl asks for
	// it (see plist.LinkCreate); otherwise a missing component is an
	// ErrNotFound error.
	//
	// With an empty name the group is anonymous: it lives in loc's
	// container but has no link.
	//
	// Returns:
	//   - Object: The open group
	//   - error: ErrAlreadyExists if name is taken, ErrNotFound if a parent
	//     is missing, ErrNotGroup if a parent is not a group
	GroupCreate(ctx context.Context, loc Object, params location.Params, name string, gcpl, gapl *plist.List, tok plist.Transfer) (Object, error)

	// GroupOpen opens the group reached by name from loc. The name "."
	// reopens loc itself (or the root of a container location).
	GroupOpen(ctx context.Context, loc Object, params location.Params, name string, gapl *plist.List, tok plist.Transfer) (Object, error)

	// GroupGet answers a query about the group addressed by params relative
	// to obj.
	GroupGet(ctx context.Context, obj Object, kind GetKind, tok plist.Transfer, params location.Params) (GetResult, error)

	// GroupSpecific runs a backend-specific operation on the group. id is
	// the front-end handle the caller used.
	GroupSpecific(ctx context.Context, obj Object, kind SpecificKind, tok plist.Transfer, id handle.ID) error

	// GroupClose releases an object returned by GroupCreate or GroupOpen.
	GroupClose(ctx context.Context, obj Object, tok plist.Transfer) error
}

// FileConnector provides the container objects groups live in.
type FileConnector interface {
	// FileCreate creates a new, empty container with a root group.
	FileCreate(ctx context.Context, name string, fapl *plist.List, tok plist.Transfer) (Object, error)

	// FileOpen opens an existing container.
	FileOpen(ctx context.Context, name string, fapl *plist.List, tok plist.Transfer) (Object, error)

	// FileClose releases a container object.
	FileClose(ctx context.Context, obj Object, tok plist.Transfer) error
}

// Linker is implemented by backends that can link an existing object
// (typically an anonymous group) into the hierarchy.
type Linker interface {
	// LinkObject creates a hard link named name, resolved from loc per
	// params, pointing at obj.
	LinkObject(ctx context.Context, obj Object, loc Object, params location.Params, name string, lcpl *plist.List, tok plist.Transfer) error
}

// Connector is a complete backend.
type Connector interface {
	// Name returns a short backend identifier for logs ("memory", "badger").
	Name() string

	FileConnector
	GroupConnector
}

// Closer is implemented by connectors that hold process resources (open
// databases, sinks) released at library shutdown.
type Closer interface {
	Close() error
}
