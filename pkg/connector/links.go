package connector

import (
	"sort"

	"github.com/marmos91/dittoh5/pkg/location"
)

// Link is one entry of a group's link table as seen by by-index lookups.
type Link struct {
	// Name is the link name within its group
	Name string

	// Target identifies the linked object; its format is backend private
	Target string

	// Corder is the creation order value the link was given
	Corder int64
}

// SelectByIndex returns the n-th link of links under the given index and
// order. links must be in the backend's native order.
//
// Creation order indexing requires tracked is true (the group tracks link
// creation order); otherwise ErrNotSupported is returned. A position past the
// last link returns ErrOutOfRange.
func SelectByIndex(links []Link, idx location.IndexType, order location.IterOrder, n uint64, tracked bool) (Link, error) {
	const op = "select by index"

	if !idx.Valid() || !order.Valid() {
		return Link{}, NewError(ErrInvalidObject, op, "")
	}
	if idx == location.IndexCrtOrder && !tracked {
		return Link{}, &Error{Code: ErrNotSupported, Op: op, Path: "creation order not tracked"}
	}
	if n >= uint64(len(links)) {
		return Link{}, NewError(ErrOutOfRange, op, "")
	}

	sorted := make([]Link, len(links))
	copy(sorted, links)

	if order != location.OrderNative {
		switch idx {
		case location.IndexName:
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		case location.IndexCrtOrder:
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Corder < sorted[j].Corder })
		}
		if order == location.OrderDec {
			for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	return sorted[n], nil
}
