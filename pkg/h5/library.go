// Package h5 is the public surface for hierarchical groups: it validates
// arguments, normalizes property lists, dispatches to the bound connector
// and wraps the resulting backend objects into reference-counted handles.
//
// Every successful create or open hands the caller exactly one release
// obligation (CloseGroup, CloseFile or ClosePlist). Failed calls never
// leave anything to release: a backend object whose handle could not be
// registered is closed before the call returns.
package h5

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// Library owns the handle registry and the connector every handle is bound
// to. Create one with NewLibrary and release it with Shutdown.
//
// Calls are synchronous. The registry is internally locked, but a sequence
// of calls on the same handles needs external serialization.
type Library struct {
	reg      *handle.Registry
	conn     connector.Connector
	shutdown atomic.Bool
}

type options struct {
	maxHandles int
}

// Option configures a Library.
type Option func(*options)

// WithMaxHandles caps the number of live handles per class. Zero means
// unlimited.
func WithMaxHandles(n int) Option {
	return func(o *options) {
		o.maxHandles = n
	}
}

// classOrder is the shutdown order: groups before the containers they live
// in, property lists last.
var classOrder = []handle.Class{handle.ClassGroup, handle.ClassFile, handle.ClassPropList}

// NewLibrary binds conn and registers the File, Group and PropList handle
// classes with their finalizers.
func NewLibrary(conn connector.Connector, opts ...Option) (*Library, error) {
	if conn == nil {
		return nil, fmt.Errorf("connector is required")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Library{
		reg:  handle.NewRegistry(),
		conn: conn,
	}

	classOpts := []handle.ClassOption{handle.WithMaxMembers(o.maxHandles)}
	finalizers := map[handle.Class]handle.Finalizer{
		handle.ClassFile:     l.finalizeFile,
		handle.ClassGroup:    l.finalizeGroup,
		handle.ClassPropList: finalizePlist,
	}
	for _, class := range classOrder {
		if err := l.reg.RegisterClass(class, finalizers[class], classOpts...); err != nil {
			return nil, fmt.Errorf("failed to initialize %s interface: %w", class, err)
		}
	}

	logger.Info("h5: library initialized with %s connector", conn.Name())
	return l, nil
}

// Registry returns the handle registry.
func (l *Library) Registry() *handle.Registry {
	return l.reg
}

// Connector returns the bound connector.
func (l *Library) Connector() connector.Connector {
	return l.conn
}

// Shutdown releases every live handle and then the handle classes.
//
// The first phase drains groups, then containers, then property lists,
// closing each backend object. The second phase terminates the classes in
// the same order. Drain failures are joined and returned; they do not stop
// the shutdown. A connector implementing connector.Closer is closed last.
func (l *Library) Shutdown(ctx context.Context) error {
	if !l.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for _, class := range classOrder {
		n, err := l.reg.Drain(ctx, class)
		if n > 0 {
			logger.Warn("h5: shutdown released %d open %s handles", n, class)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, class := range classOrder {
		l.reg.Terminate(class)
	}

	if closer, ok := l.conn.(connector.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s connector: %w", l.conn.Name(), err))
		}
	}

	logger.Info("h5: library shut down")
	return errors.Join(errs...)
}

// Finalizers run after the registry has dropped the handle, so the
// backend close must not be cut short by a done context.

func (l *Library) finalizeFile(ctx context.Context, payload any) error {
	b := payload.(*Binding)
	return b.conn.FileClose(context.WithoutCancel(ctx), b.obj, plist.DefaultTransfer())
}

func (l *Library) finalizeGroup(ctx context.Context, payload any) error {
	b := payload.(*Binding)
	return b.conn.GroupClose(context.WithoutCancel(ctx), b.obj, plist.DefaultTransfer())
}

func finalizePlist(context.Context, any) error {
	return nil
}

// closeRaw releases a backend object that never became a handle.
func closeRaw(ctx context.Context, class handle.Class, b *Binding) error {
	ctx = context.WithoutCancel(ctx)
	switch class {
	case handle.ClassFile:
		return b.conn.FileClose(ctx, b.obj, plist.DefaultTransfer())
	case handle.ClassGroup:
		return b.conn.GroupClose(ctx, b.obj, plist.DefaultTransfer())
	default:
		return nil
	}
}

// register wraps b into a handle of class. If registration fails the
// backend object is closed before returning; a failed close is attached to
// the registration error as its cleanup error.
func (l *Library) register(ctx context.Context, op string, class handle.Class, b *Binding) (id handle.ID, err error) {
	adopted := false
	defer func() {
		if adopted {
			return
		}
		primary := handleError(op, err)
		if cerr := closeRaw(ctx, class, b); cerr != nil {
			logger.Warn("h5: %s: unable to release object after failed registration: %v", op, cerr)
			primary.Cleanup = &Error{Code: ErrCleanup, Op: op, Err: cerr}
		}
		id, err = handle.Invalid, primary
	}()

	if l.shutdown.Load() {
		return handle.Invalid, errShutdown
	}
	id, err = l.reg.Register(class, b)
	if err != nil {
		return handle.Invalid, fmt.Errorf("unable to register %s handle: %w", class, err)
	}

	adopted = true
	return id, nil
}

// location verifies that id is a live file or group handle.
func (l *Library) location(op string, id handle.ID) (*Binding, handle.Class, error) {
	class := id.Class()
	if class != handle.ClassFile && class != handle.ClassGroup {
		return nil, handle.ClassBad, handleError(op, fmt.Errorf("%w: %s", errNotLoc, id))
	}
	payload, err := l.reg.Verify(id, class)
	if err != nil {
		return nil, handle.ClassBad, handleError(op, err)
	}
	return payload.(*Binding), class, nil
}

// binding verifies that id is a live handle of class.
func (l *Library) binding(op string, id handle.ID, class handle.Class) (*Binding, error) {
	payload, err := l.reg.Verify(id, class)
	if err != nil {
		return nil, handleError(op, err)
	}
	return payload.(*Binding), nil
}

// release drops a reference to id, which must be of class. Reaching zero
// runs the class finalizer; its failure is a backend error, and the handle
// is gone either way.
func (l *Library) release(ctx context.Context, op string, id handle.ID, class handle.Class) error {
	if _, err := l.reg.Verify(id, class); err != nil {
		return handleError(op, err)
	}

	zero, err := l.reg.Decrement(ctx, id)
	if err != nil {
		if zero {
			return backendError(op, err)
		}
		return handleError(op, err)
	}
	return nil
}

// IncRef adds a reference to any live handle and returns the new count.
// Each reference needs its own close.
func (l *Library) IncRef(id handle.ID) (int, error) {
	n, err := l.reg.Increment(id)
	if err != nil {
		return 0, handleError("increment reference", err)
	}
	return n, nil
}
