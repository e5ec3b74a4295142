// Package handle implements the typed, reference-counted registry behind
// every front-end identifier.
//
// An ID packs its class into the high bits, so the class of any ID can be
// read without touching the registry:
//
//	 63     56 55                                  0
//	+---------+------------------------------------+
//	|  class  |            sequence                |
//	+---------+------------------------------------+
//
// Negative IDs are never issued; Invalid (-1) is the failure sentinel.
package handle

import "fmt"

// ID is an opaque front-end identifier.
type ID int64

// Invalid is returned by every fallible operation that would otherwise
// produce an ID.
const Invalid ID = -1

const (
	classBits = 7
	seqBits   = 63 - classBits
	maxSeq    = int64(1)<<seqBits - 1
	maxClass  = Class(1<<classBits - 1)
)

func makeID(class Class, seq int64) ID {
	return ID(int64(class)<<seqBits | seq)
}

// Class returns the class encoded in id, or ClassBad for negative IDs.
func (id ID) Class() Class {
	if id < 0 {
		return ClassBad
	}
	return Class(int64(id) >> seqBits)
}

// Valid reports whether id could have been issued by a registry. It does not
// check whether the handle is still live.
func (id ID) Valid() bool {
	return id > 0 && id.Class() > ClassBad
}

func (id ID) String() string {
	if id == Invalid {
		return "invalid"
	}
	return fmt.Sprintf("%s:%d", id.Class(), int64(id)&maxSeq)
}

// Class tags a handle with the kind of object it refers to.
type Class int

const (
	ClassBad Class = iota
	ClassFile
	ClassGroup
	ClassPropList

	// ClassUser is the first class available to callers that register their
	// own object kinds.
	ClassUser
)

func (c Class) String() string {
	switch c {
	case ClassBad:
		return "bad"
	case ClassFile:
		return "file"
	case ClassGroup:
		return "group"
	case ClassPropList:
		return "plist"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}
