package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// FileCreate implements connector.FileConnector.
func (s *Store) FileCreate(ctx context.Context, name string, _ *plist.List, _ plist.Transfer) (connector.Object, error) {
	const op = "file create"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	root := uuid.New()
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyRoot(name))
		if err == nil {
			return connector.NewError(connector.ErrAlreadyExists, op, name)
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := encode(&rootRecord{Root: root[:]})
		if err != nil {
			return err
		}
		if err := txn.Set(keyRoot(name), data); err != nil {
			return err
		}

		props, _ := plist.GroupCreate(nil)
		rec := newNodeRecord(name, props)
		// The root is linked from the container itself.
		rec.HardLinks = 1

		t := newTx(txn)
		t.put(root, rec)
		return t.commit()
	})
	if err != nil {
		return nil, ioError(op, err)
	}

	logger.Debug("badger: created container %s (root %s)", name, root)
	return &fileObject{name: name, root: root}, nil
}

// FileOpen implements connector.FileConnector.
func (s *Store) FileOpen(ctx context.Context, name string, _ *plist.List, _ plist.Transfer) (connector.Object, error) {
	const op = "file open"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var root uuid.UUID
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyRoot(name))
		if err == badger.ErrKeyNotFound {
			return connector.NewError(connector.ErrNotFound, op, name)
		}
		if err != nil {
			return err
		}

		var rec rootRecord
		if err := item.Value(func(val []byte) error { return decode(val, &rec) }); err != nil {
			return err
		}
		root, err = decodeUUID(rec.Root)
		return err
	})
	if err != nil {
		return nil, ioError(op, err)
	}

	return &fileObject{name: name, root: root}, nil
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
		return connector.NewError(connector.ErrClosed, op, f.name)
	}
	f.closed = true
	return nil
}
