package handle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Finalizer releases the payload of a handle whose reference count reached
// zero. It runs exactly once per handle, outside the registry lock.
type Finalizer func(ctx context.Context, payload any) error

var (
	// ErrNotFound is returned when an ID is not (or no longer) registered.
	ErrNotFound = errors.New("handle not found")

	// ErrWrongClass is returned when an ID exists but belongs to another class.
	ErrWrongClass = errors.New("handle has wrong class")

	// ErrClassNotRegistered is returned for operations on an unknown class.
	ErrClassNotRegistered = errors.New("handle class not registered")

	// ErrClassRegistered is returned when a class gets a second finalizer.
	ErrClassRegistered = errors.New("handle class already registered")

	// ErrExhausted is returned when a class reached its member limit.
	ErrExhausted = errors.New("handle class exhausted")
)

type entry struct {
	id      ID
	count   int
	payload any
}

type classInfo struct {
	finalize   Finalizer
	maxMembers int
	nextSeq    int64
	members    map[ID]*entry
}

// ClassOption customizes a class at registration time.
type ClassOption func(*classInfo)

// WithMaxMembers caps the number of live handles of a class. Zero means
// unlimited.
func WithMaxMembers(n int) ClassOption {
	return func(c *classInfo) {
		c.maxMembers = n
	}
}

// Registry tracks every live handle, its class, its reference count and the
// payload it owns.
//
// A Registry is an explicitly owned service: a Library creates one at init,
// registers its classes, and drains then terminates them at shutdown.
//
// Example usage:
//
//	reg := handle.NewRegistry()
//	_ = reg.RegisterClass(handle.ClassGroup, closeGroup)
//	id, _ := reg.Register(handle.ClassGroup, obj)
//	payload, _ := reg.Verify(id, handle.ClassGroup)
//	_, _ = reg.Decrement(ctx, id) // finalizer runs here
type Registry struct {
	mu      sync.Mutex
	classes map[Class]*classInfo
}

// NewRegistry creates an empty registry with no classes.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[Class]*classInfo),
	}
}

// RegisterClass installs the finalizer of a class. Each class gets exactly one
// finalizer for the lifetime of the registry (until Terminate).
func (r *Registry) RegisterClass(class Class, finalize Finalizer, opts ...ClassOption) error {
	if class <= ClassBad || class > maxClass {
		return fmt.Errorf("cannot register class %d: out of range", class)
	}
	if finalize == nil {
		return fmt.Errorf("cannot register class %s with nil finalizer", class)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[class]; exists {
		return fmt.Errorf("%w: %s", ErrClassRegistered, class)
	}

	info := &classInfo{
		finalize: finalize,
		nextSeq:  1,
		members:  make(map[ID]*entry),
	}
	for _, opt := range opts {
		opt(info)
	}

	r.classes[class] = info
	return nil
}

// Register allocates a fresh ID in class and takes ownership of payload. The
// new handle starts with a reference count of one.
func (r *Registry) Register(class Class, payload any) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.classes[class]
	if !ok {
		return Invalid, fmt.Errorf("%w: %s", ErrClassNotRegistered, class)
	}
	if info.maxMembers > 0 && len(info.members) >= info.maxMembers {
		return Invalid, fmt.Errorf("%w: %s has %d live handles", ErrExhausted, class, len(info.members))
	}
	if info.nextSeq > maxSeq {
		return Invalid, fmt.Errorf("%w: %s ran out of identifiers", ErrExhausted, class)
	}

	id := makeID(class, info.nextSeq)
	info.nextSeq++
	info.members[id] = &entry{id: id, count: 1, payload: payload}

	return id, nil
}

// lookup finds the entry for id. Caller must hold r.mu.
func (r *Registry) lookup(id ID) (*entry, error) {
	class := id.Class()
	info, ok := r.classes[class]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	e, ok := info.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return e, nil
}

// Verify returns the payload of id if it is live and belongs to expected.
func (r *Registry) Verify(id ID, expected Class) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	if id.Class() != expected {
		return nil, fmt.Errorf("%w: %d is a %s, not a %s", ErrWrongClass, id, id.Class(), expected)
	}
	return e.payload, nil
}

// Object returns the payload of id regardless of its class.
func (r *Registry) Object(id ID) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.payload, nil
}

// ClassOf returns the class of a live handle, or ClassBad if id is not live.
func (r *Registry) ClassOf(id ID) Class {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(id); err != nil {
		return ClassBad
	}
	return id.Class()
}

// Increment adds a reference to id and returns the new count.
func (r *Registry) Increment(id ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	e.count++
	return e.count, nil
}

// RefCount returns the current reference count of id.
func (r *Registry) RefCount(id ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	return e.count, nil
}

// Decrement drops a reference to id. It returns true when the count reached
// zero, in which case the handle has been removed and the class finalizer has
// run with its payload.
//
// Bookkeeping is released before the finalizer runs, so a failing finalizer
// never leaves a handle behind that could not be freed again. The finalizer
// error is returned alongside true.
func (r *Registry) Decrement(ctx context.Context, id ID) (bool, error) {
	r.mu.Lock()
	e, err := r.lookup(id)
	if err != nil {
		r.mu.Unlock()
		return false, err
	}

	e.count--
	if e.count > 0 {
		r.mu.Unlock()
		return false, nil
	}

	info := r.classes[id.Class()]
	delete(info.members, id)
	finalize := info.finalize
	r.mu.Unlock()

	if err := finalize(ctx, e.payload); err != nil {
		return true, fmt.Errorf("finalize %s %d: %w", id.Class(), id, err)
	}
	return true, nil
}

// Members returns the number of live handles in class.
func (r *Registry) Members(class Class) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.classes[class]
	if !ok {
		return 0
	}
	return len(info.members)
}

// Iterate calls fn for each live handle of class in ID order until fn
// returns false. It works on a snapshot, so fn may call back into the
// registry.
func (r *Registry) Iterate(class Class, fn func(id ID, payload any) bool) {
	for _, e := range r.snapshot(class) {
		if !fn(e.id, e.payload) {
			return
		}
	}
}

func (r *Registry) snapshot(class Class) []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.classes[class]
	if !ok {
		return nil
	}

	entries := make([]*entry, 0, len(info.members))
	for _, e := range info.members {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	return entries
}

// Drain forcibly releases every live handle of class regardless of its
// reference count and returns how many were released. All finalizer errors
// are joined; draining continues past failures.
//
// Drain is the first shutdown phase. It exists because some callers leave
// handles open across subsystem teardown.
func (r *Registry) Drain(ctx context.Context, class Class) (int, error) {
	r.mu.Lock()
	info, ok := r.classes[class]
	if !ok {
		r.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrClassNotRegistered, class)
	}

	entries := make([]*entry, 0, len(info.members))
	for _, e := range info.members {
		entries = append(entries, e)
	}
	info.members = make(map[ID]*entry)
	finalize := info.finalize
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	var errs []error
	for _, e := range entries {
		if err := finalize(ctx, e.payload); err != nil {
			errs = append(errs, fmt.Errorf("finalize %s %d: %w", class, e.id, err))
		}
	}

	return len(entries), errors.Join(errs...)
}

// Terminate releases class itself. It is the second shutdown phase and
// panics if Drain did not leave the class empty first.
func (r *Registry) Terminate(class Class) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.classes[class]
	if !ok {
		return
	}
	if n := len(info.members); n > 0 {
		panic(fmt.Sprintf("handle: terminate %s with %d live handles", class, n))
	}
	delete(r.classes, class)
}

// Registered reports whether class has a finalizer installed.
func (r *Registry) Registered(class Class) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.classes[class]
	return ok
}
