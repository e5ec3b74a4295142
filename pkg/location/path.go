// Package location parses object names and describes how a backend should
// address a target object.
//
// Name grammar:
//
//	name       = "/" | "." | [ "/" ] component { "/" { "/" } component } [ "/" ]
//	component  = any run of characters other than "/"
//
// Repeated separators collapse, a trailing separator is ignored, and "."
// components refer to the current position and are dropped. The resolver
// only classifies and splits; walking the hierarchy is a backend job.
package location

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/dittoh5/pkg/handle"
)

var (
	// ErrEmptyName is returned for the empty string.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrInvalidStart is returned when resolution starts from a handle that
	// is neither a container nor a group.
	ErrInvalidStart = errors.New("invalid starting location")
)

// Path is a parsed name.
type Path struct {
	// Absolute is true when the name started with "/".
	Absolute bool

	// Components are the non-empty, non-"." segments in order.
	Components []string
}

// Parse splits name according to the grammar above.
//
// Examples:
//
//	Parse("/a//b/")  // {Absolute: true, Components: [a b]}
//	Parse("a/./b")   // {Absolute: false, Components: [a b]}
//	Parse("/")       // {Absolute: true, Components: []}
//	Parse(".")       // {Absolute: false, Components: []}
func Parse(name string) (Path, error) {
	if name == "" {
		return Path{}, ErrEmptyName
	}

	p := Path{
		Absolute:   strings.HasPrefix(name, "/"),
		Components: []string{},
	}
	for _, c := range strings.Split(name, "/") {
		if c == "" || c == "." {
			continue
		}
		p.Components = append(p.Components, c)
	}
	return p, nil
}

// IsRoot reports whether the path names the container root ("/").
func (p Path) IsRoot() bool {
	return p.Absolute && len(p.Components) == 0
}

// IsSelf reports whether the path names the starting location (".").
func (p Path) IsSelf() bool {
	return !p.Absolute && len(p.Components) == 0
}

// String renders the canonical form of the path.
func (p Path) String() string {
	joined := strings.Join(p.Components, "/")
	if p.Absolute {
		return "/" + joined
	}
	if joined == "" {
		return "."
	}
	return joined
}

// Origin is where traversal of a resolved name begins.
type Origin int

const (
	// OriginRoot starts at the root group of the container.
	OriginRoot Origin = iota

	// OriginLocation starts at the object the handle refers to.
	OriginLocation
)

func (o Origin) String() string {
	if o == OriginRoot {
		return "root"
	}
	return "location"
}

// Target is a name resolved against a starting handle class.
type Target struct {
	Origin     Origin
	Components []string
}

// Resolve classifies name relative to a starting handle of class start.
//
// From a container every name, relative or absolute, starts at the
// container root; "." is the root itself. From a group, absolute names
// start at the root of the group's container and relative names descend
// from the group; "." is the group itself.
func Resolve(start handle.Class, name string) (Target, error) {
	p, err := Parse(name)
	if err != nil {
		return Target{}, err
	}

	switch start {
	case handle.ClassFile:
		return Target{Origin: OriginRoot, Components: p.Components}, nil
	case handle.ClassGroup:
		if p.Absolute {
			return Target{Origin: OriginRoot, Components: p.Components}, nil
		}
		return Target{Origin: OriginLocation, Components: p.Components}, nil
	default:
		return Target{}, fmt.Errorf("%w: %s", ErrInvalidStart, start)
	}
}

// IsStart reports whether the target designates its origin itself.
func (t Target) IsStart() bool {
	return len(t.Components) == 0
}

// Split returns the components leading to the parent of the target and the
// final component. It returns ok=false when the target is its origin.
func (t Target) Split() (parents []string, last string, ok bool) {
	if len(t.Components) == 0 {
		return nil, "", false
	}
	n := len(t.Components)
	return t.Components[:n-1], t.Components[n-1], true
}

// String renders the target for logs and errors.
func (t Target) String() string {
	joined := strings.Join(t.Components, "/")
	if t.Origin == OriginRoot {
		return "/" + joined
	}
	if joined == "" {
		return "."
	}
	return "./" + joined
}
