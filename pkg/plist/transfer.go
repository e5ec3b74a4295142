package plist

import (
	"fmt"

	"github.com/marmos91/dittoh5/pkg/handle"
)

// Transfer is the execution-context token passed to every backend call. It
// is derived from the acting location and its access list. Backends run it
// synchronously; it carries no cancellation or timeout.
type Transfer struct {
	loc  handle.ID
	dxpl *List
}

// DefaultTransfer returns a token bound to no location with the data
// transfer default.
func DefaultTransfer() Transfer {
	return Transfer{loc: handle.Invalid, dxpl: DefaultFor(ClassDataTransfer)}
}

// Loc returns the location ID the token was derived from.
func (t Transfer) Loc() handle.ID {
	return t.loc
}

// Plist returns the data transfer list of the token.
func (t Transfer) Plist() *List {
	if t.dxpl == nil {
		return DefaultFor(ClassDataTransfer)
	}
	return t.dxpl
}

// CollectiveMetadataRead reports whether metadata reads should be
// performed collectively.
func (t Transfer) CollectiveMetadataRead() bool {
	v, _ := t.Plist().values[PropCollMetadataRead].(bool)
	return v
}

// ResolveAccess class-resolves an access list for an operation acting on loc
// and derives the paired transfer token.
//
// When apl is the default, the collective metadata flag is inherited from
// the file access list of the container owning loc (fapl may be nil).
// Otherwise the flag set on apl wins.
func ResolveAccess(loc handle.ID, class Class, apl, fapl *List) (*List, Transfer, error) {
	useFile := apl == nil || apl == Default

	apl, err := ResolveDefault(class, apl)
	if err != nil {
		return nil, Transfer{}, err
	}

	var collective bool
	if useFile {
		if fapl != nil && fapl.IsA(ClassFileAccess) {
			collective, _ = fapl.values[PropCollMetadataOps].(bool)
		}
	} else {
		collective, _ = apl.values[PropCollMetadataRead].(bool)
	}

	dxpl := DefaultFor(ClassDataTransfer)
	if collective {
		dxpl = dxpl.Copy()
		if err := dxpl.Set(PropCollMetadataRead, true); err != nil {
			return nil, Transfer{}, fmt.Errorf("failed to derive transfer list: %w", err)
		}
	}

	return apl, Transfer{loc: loc, dxpl: dxpl}, nil
}
