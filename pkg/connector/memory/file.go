package memory

import (
	"context"

	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// FileCreate implements connector.FileConnector.
func (s *Store) FileCreate(ctx context.Context, name string, fapl *plist.List, _ plist.Transfer) (connector.Object, error) {
	const op = "file create"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.containers[name]; exists {
		return nil, connector.NewError(connector.ErrAlreadyExists, op, name)
	}

	c := newContainer(name, fapl)
	c.opens++
	s.containers[name] = c

	logger.Debug("memory: created container %s (root %s)", name, c.root)
	return &fileObject{c: c}, nil
}

// FileOpen implements connector.FileConnector. An unknown container is
// restored from the snapshot sink when one is attached.
func (s *Store) FileOpen(ctx context.Context, name string, fapl *plist.List, _ plist.Transfer) (connector.Object, error) {
	const op = "file open"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.containers[name]
	if !exists {
		if s.sink == nil {
			return nil, connector.NewError(connector.ErrNotFound, op, name)
		}
		restored, err := s.restore(ctx, op, name, fapl)
		if err != nil {
			return nil, err
		}
		c = restored
		s.containers[name] = c
	}

	c.opens++
	return &fileObject{c: c}, nil
}

// FileClose implements connector.FileConnector. It ignores cancellation: the caller
// has already dropped its handle and cannot retry the close.
func (s *Store) FileClose(_ context.Context, obj connector.Object, _ plist.Transfer) error {
	const op = "file close"

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := obj.(*fileObject)
	if !ok {
		return &connector.Error{Code: connector.ErrInvalidObject, Op: op}
	}
	if f.closed {
		return connector.NewError(connector.ErrClosed, op, f.c.name)
	}

	f.closed = true
	f.c.opens--
	return nil
}
