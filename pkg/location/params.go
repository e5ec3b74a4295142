package location

import (
	"errors"
	"fmt"

	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/plist"
)

var (
	// ErrInvalidIndex is returned for index types outside the enumeration.
	ErrInvalidIndex = errors.New("invalid index type specified")

	// ErrInvalidOrder is returned for iteration orders outside the
	// enumeration.
	ErrInvalidOrder = errors.New("invalid iteration order specified")
)

// Kind discriminates a Params value.
type Kind int

const (
	BySelf Kind = iota
	ByNameKind
	ByIndexKind
)

func (k Kind) String() string {
	switch k {
	case BySelf:
		return "self"
	case ByNameKind:
		return "name"
	case ByIndexKind:
		return "index"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IndexType selects the field links are ordered by.
type IndexType int

const (
	IndexUnknown IndexType = iota - 1
	IndexName
	IndexCrtOrder
	indexN
)

// Valid reports whether the index type is a defined, usable value.
func (t IndexType) Valid() bool {
	return t > IndexUnknown && t < indexN
}

func (t IndexType) String() string {
	switch t {
	case IndexName:
		return "name"
	case IndexCrtOrder:
		return "creation order"
	default:
		return "unknown"
	}
}

// IterOrder is the direction links are visited in.
type IterOrder int

const (
	OrderUnknown IterOrder = iota - 1
	OrderInc
	OrderDec
	OrderNative
	orderN
)

// Valid reports whether the order is a defined, usable value.
func (o IterOrder) Valid() bool {
	return o > OrderUnknown && o < orderN
}

func (o IterOrder) String() string {
	switch o {
	case OrderInc:
		return "increasing"
	case OrderDec:
		return "decreasing"
	case OrderNative:
		return "native"
	default:
		return "unknown"
	}
}

// Params tells a backend how to address its target relative to the object
// passed alongside it. The fields are fixed by the kind; use Self, ByName or
// ByIndex to build one.
type Params struct {
	kind    Kind
	objType handle.Class
	name    string
	access  *plist.List
	idxType IndexType
	order   IterOrder
	n       uint64
}

// Self addresses the location object itself.
func Self(objType handle.Class) Params {
	return Params{kind: BySelf, objType: objType}
}

// ByName addresses the object reached by name from the location. access is
// the link access list used while traversing.
func ByName(objType handle.Class, name string, access *plist.List) (Params, error) {
	if name == "" {
		return Params{}, ErrEmptyName
	}
	return Params{kind: ByNameKind, objType: objType, name: name, access: access}, nil
}

// ByIndex addresses the n-th link, in the given index and order, of the
// group reached by name from the location.
func ByIndex(objType handle.Class, name string, idxType IndexType, order IterOrder, n uint64, access *plist.List) (Params, error) {
	if name == "" {
		return Params{}, ErrEmptyName
	}
	if !idxType.Valid() {
		return Params{}, fmt.Errorf("%w: %d", ErrInvalidIndex, idxType)
	}
	if !order.Valid() {
		return Params{}, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	return Params{
		kind:    ByIndexKind,
		objType: objType,
		name:    name,
		access:  access,
		idxType: idxType,
		order:   order,
		n:       n,
	}, nil
}

// Kind returns the discriminant.
func (p Params) Kind() Kind { return p.kind }

// ObjType returns the class of the handle the params were built from.
func (p Params) ObjType() handle.Class { return p.objType }

// Name returns the name for ByName and ByIndex params.
func (p Params) Name() string { return p.name }

// Access returns the link access list for ByName and ByIndex params.
func (p Params) Access() *plist.List { return p.access }

// Index returns the index type, order and position of ByIndex params.
func (p Params) Index() (IndexType, IterOrder, uint64) {
	return p.idxType, p.order, p.n
}

// Target resolves the name of ByName and ByIndex params against the class
// of the handle they were built from.
func (p Params) Target() (Target, error) {
	if p.kind == BySelf {
		return Target{Origin: OriginLocation, Components: []string{}}, nil
	}
	return Resolve(p.objType, p.name)
}

func (p Params) String() string {
	switch p.kind {
	case ByNameKind:
		return fmt.Sprintf("by-name(%q)", p.name)
	case ByIndexKind:
		return fmt.Sprintf("by-index(%q, %s, %s, %d)", p.name, p.idxType, p.order, p.n)
	default:
		return "self"
	}
}
