package plist

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var (
	// ErrWrongClass is returned when a list does not belong to the class an
	// operation expects.
	ErrWrongClass = errors.New("property list has wrong class")

	// ErrUnknownProperty is returned for names the class does not define.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidValue is returned when a value has the wrong type or fails
	// validation.
	ErrInvalidValue = errors.New("invalid property value")

	// ErrImmutable is returned when mutating a class default.
	ErrImmutable = errors.New("property list is immutable")
)

// validate is the singleton validator instance
var validate = validator.New()

// Default is the reserved "use the class default" sentinel. A nil *List is
// treated the same way.
var Default = &List{}

// List is an ordered mapping of property name to value, tagged with a class.
//
// Lists are not safe for concurrent mutation.
type List struct {
	class  Class
	names  []string
	values map[string]any
	frozen bool
}

// New creates a list of class populated with the class defaults.
func New(class Class) *List {
	defs := classProps[class]
	l := &List{
		class:  class,
		names:  make([]string, 0, len(defs)),
		values: make(map[string]any, len(defs)),
	}
	for _, d := range defs {
		l.names = append(l.names, d.name)
		l.values[d.name] = d.def
	}
	return l
}

// DefaultFor returns the frozen singleton default of class, or nil if the
// class is unknown.
func DefaultFor(class Class) *List {
	return defaults[class]
}

// IsDefault reports whether l is the Default sentinel, nil, or a class
// singleton.
func IsDefault(l *List) bool {
	if l == nil || l == Default {
		return true
	}
	return defaults[l.class] == l
}

// Class returns the class of the list.
func (l *List) Class() Class {
	return l.class
}

// IsA reports whether the list belongs to class, directly or by inheritance
// (a group access list is also a link access list).
func (l *List) IsA(class Class) bool {
	if l == nil {
		return false
	}
	for c := l.class; c != ClassInvalid; c = c.parent() {
		if c == class {
			return true
		}
	}
	return false
}

// Frozen reports whether the list rejects mutation.
func (l *List) Frozen() bool {
	return l.frozen
}

// Names returns the property names in definition order.
func (l *List) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Get returns the value of a property.
func (l *List) Get(name string) (any, error) {
	v, ok := l.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s list", ErrUnknownProperty, name, l.class)
	}
	return v, nil
}

// Set replaces the value of a property. The value must have the same Go type
// as the property default and pass the property's validation rule.
func (l *List) Set(name string, value any) error {
	if l.frozen {
		return fmt.Errorf("%w: %s default", ErrImmutable, l.class)
	}

	def, ok := lookupDef(l.class, name)
	if !ok {
		return fmt.Errorf("%w: %q in %s list", ErrUnknownProperty, name, l.class)
	}
	if reflect.TypeOf(value) != reflect.TypeOf(def.def) {
		return fmt.Errorf("%w: %q expects %T, got %T", ErrInvalidValue, name, def.def, value)
	}
	if def.validate != "" {
		if err := validate.Var(value, def.validate); err != nil {
			return fmt.Errorf("%w: %q: %s", ErrInvalidValue, name, formatValidationError(err))
		}
	}

	l.values[name] = value
	return nil
}

// Copy returns an unfrozen deep copy. Embedded lists are copied too.
func (l *List) Copy() *List {
	c := &List{
		class:  l.class,
		names:  make([]string, len(l.names)),
		values: make(map[string]any, len(l.values)),
	}
	copy(c.names, l.names)
	for k, v := range l.values {
		if sub, ok := v.(*List); ok && sub != nil {
			v = sub.Copy()
		}
		c.values[k] = v
	}
	return c
}

// Equal reports whether two lists have the same class and values.
func (l *List) Equal(other *List) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.class != other.class || len(l.values) != len(other.values) {
		return false
	}
	for k, v := range l.values {
		ov, ok := other.values[k]
		if !ok {
			return false
		}
		sub, isList := v.(*List)
		if isList {
			osub, _ := ov.(*List)
			if !sub.Equal(osub) {
				return false
			}
			continue
		}
		if v != ov {
			return false
		}
	}
	return true
}

// Decode copies the scalar properties into out (a pointer to a struct with
// mapstructure tags). Embedded lists are skipped; use the typed accessors.
func (l *List) Decode(out any) error {
	scalars := make(map[string]any, len(l.values))
	for k, v := range l.values {
		if _, isList := v.(*List); isList {
			continue
		}
		scalars[k] = v
	}
	if err := mapstructure.Decode(scalars, out); err != nil {
		return fmt.Errorf("failed to decode %s list: %w", l.class, err)
	}
	return nil
}

// formatValidationError converts validator errors into short messages.
func formatValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Sprintf("validation failed on '%s' tag (value: %v)", e.Tag(), e.Value())
	}
	return err.Error()
}
