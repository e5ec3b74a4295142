package plist

import (
	"fmt"
)

// LinkCreateProps is the typed view of a link creation list.
type LinkCreateProps struct {
	CreateIntermediateGroup bool   `mapstructure:"create_intermediate_group"`
	CharEncoding            string `mapstructure:"char_encoding"`
}

// GroupCreateProps is the typed view of a group creation list.
type GroupCreateProps struct {
	LocalHeapSizeHint  uint64 `mapstructure:"local_heap_size_hint"`
	MaxCompact         uint32 `mapstructure:"max_compact"`
	MinDense           uint32 `mapstructure:"min_dense"`
	EstNumEntries      uint32 `mapstructure:"est_num_entries"`
	EstNameLen         uint32 `mapstructure:"est_name_len"`
	TrackCreationOrder bool   `mapstructure:"track_creation_order"`
	IndexCreationOrder bool   `mapstructure:"index_creation_order"`
}

// AccessProps is the typed view of link and group access lists.
type AccessProps struct {
	NLinks           uint32 `mapstructure:"nlinks"`
	CollMetadataRead bool   `mapstructure:"coll_metadata_read"`
}

// ResolveDefault maps the Default sentinel (or nil) to the singleton of
// class, and class-checks anything else.
func ResolveDefault(class Class, l *List) (*List, error) {
	if l == nil || l == Default {
		d := DefaultFor(class)
		if d == nil {
			return nil, fmt.Errorf("%w: no default for %s", ErrWrongClass, class)
		}
		return d, nil
	}
	if !l.IsA(class) {
		return nil, fmt.Errorf("%w: not a %s property list (got %s)", ErrWrongClass, class, l.class)
	}
	return l, nil
}

// ComposeGroupCreation folds a link creation list into a group creation list
// so a backend can recover link-time intent (such as creating missing
// intermediate groups) from the group creation list alone.
//
// The result is always a private copy: neither the class defaults nor the
// caller's lists are modified.
func ComposeGroupCreation(lcpl, gcpl *List) (*List, error) {
	lcpl, err := ResolveDefault(ClassLinkCreate, lcpl)
	if err != nil {
		return nil, err
	}
	gcpl, err = ResolveDefault(ClassGroupCreate, gcpl)
	if err != nil {
		return nil, err
	}

	composed := gcpl.Copy()
	if err := composed.Set(PropLinkCreate, lcpl.Copy()); err != nil {
		return nil, fmt.Errorf("failed to embed link creation list: %w", err)
	}
	return composed, nil
}

// LinkCreate returns the link creation list embedded by
// ComposeGroupCreation, or the link creation default if none was embedded.
func LinkCreate(gcpl *List) *List {
	if gcpl != nil {
		if v, ok := gcpl.values[PropLinkCreate].(*List); ok && v != nil {
			return v
		}
	}
	return DefaultFor(ClassLinkCreate)
}

// GroupCreate decodes a group creation list.
func GroupCreate(gcpl *List) (GroupCreateProps, error) {
	var props GroupCreateProps
	gcpl, err := ResolveDefault(ClassGroupCreate, gcpl)
	if err != nil {
		return props, err
	}
	err = gcpl.Decode(&props)
	return props, err
}

// LinkCreation decodes a link creation list.
func LinkCreation(lcpl *List) (LinkCreateProps, error) {
	var props LinkCreateProps
	lcpl, err := ResolveDefault(ClassLinkCreate, lcpl)
	if err != nil {
		return props, err
	}
	err = lcpl.Decode(&props)
	return props, err
}

// SetCreateIntermediateGroup controls whether missing groups along a path
// are created.
func SetCreateIntermediateGroup(lcpl *List, create bool) error {
	if !lcpl.IsA(ClassLinkCreate) {
		return fmt.Errorf("%w: not a link creation list", ErrWrongClass)
	}
	return lcpl.Set(PropCreateIntermediateGroup, create)
}

// SetLinkPhaseChange sets the compact-to-dense storage thresholds.
func SetLinkPhaseChange(gcpl *List, maxCompact, minDense uint32) error {
	if !gcpl.IsA(ClassGroupCreate) {
		return fmt.Errorf("%w: not a group creation list", ErrWrongClass)
	}
	if maxCompact < minDense {
		return fmt.Errorf("%w: max compact value must be >= min dense value", ErrInvalidValue)
	}
	if err := gcpl.Set(PropMaxCompact, maxCompact); err != nil {
		return err
	}
	return gcpl.Set(PropMinDense, minDense)
}

// SetLinkCreationOrder enables creation-order tracking and indexing.
func SetLinkCreationOrder(gcpl *List, track, index bool) error {
	if !gcpl.IsA(ClassGroupCreate) {
		return fmt.Errorf("%w: not a group creation list", ErrWrongClass)
	}
	if index && !track {
		return fmt.Errorf("%w: creation order must be tracked to be indexed", ErrInvalidValue)
	}
	if err := gcpl.Set(PropTrackCreationOrder, track); err != nil {
		return err
	}
	return gcpl.Set(PropIndexCreationOrder, index)
}

// SetEstLinkInfo records the expected number of entries and name length.
func SetEstLinkInfo(gcpl *List, numEntries, nameLen uint32) error {
	if !gcpl.IsA(ClassGroupCreate) {
		return fmt.Errorf("%w: not a group creation list", ErrWrongClass)
	}
	if err := gcpl.Set(PropEstNumEntries, numEntries); err != nil {
		return err
	}
	return gcpl.Set(PropEstNameLen, nameLen)
}

// SetNLinks sets the maximum number of soft links followed during
// traversal.
func SetNLinks(apl *List, n uint32) error {
	if !apl.IsA(ClassLinkAccess) {
		return fmt.Errorf("%w: not a link access list", ErrWrongClass)
	}
	return apl.Set(PropNLinks, n)
}

// WithoutLinkCreate returns a copy of gcpl with no embedded link creation
// list. Backends store this form: link intent applies to the create call
// only, not to the group.
func WithoutLinkCreate(gcpl *List) (*List, error) {
	gcpl, err := ResolveDefault(ClassGroupCreate, gcpl)
	if err != nil {
		return nil, err
	}
	stored := gcpl.Copy()
	if err := stored.Set(PropLinkCreate, (*List)(nil)); err != nil {
		return nil, err
	}
	return stored, nil
}

// NewGroupCreate builds a group creation list from its typed view. Backends
// use it to rebuild stored lists.
func NewGroupCreate(props GroupCreateProps) (*List, error) {
	l := New(ClassGroupCreate)
	sets := []struct {
		name  string
		value any
	}{
		{PropLocalHeapSizeHint, props.LocalHeapSizeHint},
		{PropMaxCompact, props.MaxCompact},
		{PropMinDense, props.MinDense},
		{PropEstNumEntries, props.EstNumEntries},
		{PropEstNameLen, props.EstNameLen},
		{PropTrackCreationOrder, props.TrackCreationOrder},
		{PropIndexCreationOrder, props.IndexCreationOrder},
	}
	for _, s := range sets {
		if err := l.Set(s.name, s.value); err != nil {
			return nil, err
		}
	}
	return l, nil
}
