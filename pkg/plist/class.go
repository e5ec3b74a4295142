// Package plist implements class-tagged property lists: ordered option
// tables that parameterize every backend call.
//
// Each class has a frozen singleton default. Callers pass Default (or nil)
// to mean "use the class default"; anything else is class-checked before it
// reaches a backend.
package plist

import "fmt"

// Class identifies the kind of a property list.
type Class int

const (
	ClassInvalid Class = iota
	ClassLinkCreate
	ClassLinkAccess
	ClassGroupCreate
	ClassGroupAccess
	ClassFileAccess
	ClassDataTransfer
)

func (c Class) String() string {
	switch c {
	case ClassLinkCreate:
		return "link create"
	case ClassLinkAccess:
		return "link access"
	case ClassGroupCreate:
		return "group create"
	case ClassGroupAccess:
		return "group access"
	case ClassFileAccess:
		return "file access"
	case ClassDataTransfer:
		return "data transfer"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// parent returns the class c inherits from, or ClassInvalid.
func (c Class) parent() Class {
	if c == ClassGroupAccess {
		return ClassLinkAccess
	}
	return ClassInvalid
}

// Property names.
const (
	PropCreateIntermediateGroup = "create_intermediate_group"
	PropCharEncoding            = "char_encoding"

	PropNLinks           = "nlinks"
	PropCollMetadataRead = "coll_metadata_read"

	PropLocalHeapSizeHint  = "local_heap_size_hint"
	PropMaxCompact         = "max_compact"
	PropMinDense           = "min_dense"
	PropEstNumEntries      = "est_num_entries"
	PropEstNameLen         = "est_name_len"
	PropTrackCreationOrder = "track_creation_order"
	PropIndexCreationOrder = "index_creation_order"
	PropLinkCreate         = "link_create"

	PropCollMetadataOps = "coll_metadata_ops"
)

// propDef describes one property of a class: its default value (which also
// fixes its Go type) and an optional validator tag checked on Set.
type propDef struct {
	name     string
	def      any
	validate string
}

var linkAccessProps = []propDef{
	{PropNLinks, uint32(16), "gt=0"},
	{PropCollMetadataRead, false, ""},
}

var classProps = map[Class][]propDef{
	ClassLinkCreate: {
		{PropCreateIntermediateGroup, false, ""},
		{PropCharEncoding, "ascii", "oneof=ascii utf8"},
	},
	ClassLinkAccess: linkAccessProps,
	ClassGroupCreate: {
		{PropLocalHeapSizeHint, uint64(0), ""},
		{PropMaxCompact, uint32(8), "lte=65535"},
		{PropMinDense, uint32(6), "lte=65535"},
		{PropEstNumEntries, uint32(4), "lte=65535"},
		{PropEstNameLen, uint32(8), "lte=65535"},
		{PropTrackCreationOrder, false, ""},
		{PropIndexCreationOrder, false, ""},
		{PropLinkCreate, (*List)(nil), ""},
	},
	ClassGroupAccess: linkAccessProps,
	ClassFileAccess: {
		{PropCollMetadataOps, false, ""},
	},
	ClassDataTransfer: {
		{PropCollMetadataRead, false, ""},
	},
}

// defaults holds the frozen singleton of every class.
var defaults = func() map[Class]*List {
	m := make(map[Class]*List, len(classProps))
	for class := range classProps {
		l := New(class)
		l.frozen = true
		m[class] = l
	}
	return m
}()

func lookupDef(class Class, name string) (propDef, bool) {
	for _, d := range classProps[class] {
		if d.name == name {
			return d, true
		}
	}
	return propDef{}, false
}
