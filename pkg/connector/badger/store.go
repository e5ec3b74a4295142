// Package badger implements a persistent connector.Connector on BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
)

// fileObject is the connector.Object for an open container.
type fileObject struct {
	name   string
	root   uuid.UUID
	closed bool
}

// groupObject is the connector.Object for an open group.
type groupObject struct {
	container string
	root      uuid.UUID
	id        uuid.UUID

	// rec is the record as of open (or the last REFRESH).
	rec    *nodeRecord
	closed bool
}

// Store implements connector.Connector and connector.Linker on BadgerDB.
//
// Persistence:
// Containers, groups and links are written in one transaction per call.
// FLUSH syncs the value log to disk; REFRESH rereads the group record.
//
// Anonymous Groups:
// A group with no hard links lives only while it is open. Open counts are
// kept in-process; the last close of an unlinked group deletes it together
// with anything only it kept alive. Unlinked groups left behind by a crash
// are swept on the next open of the database.
type Store struct {
	db *badger.DB

	// mu serializes hierarchy mutations and guards opens.
	mu    sync.Mutex
	opens map[uuid.UUID]int
}

// Config contains configuration for the badger connector.
type Config struct {
	// Path is the database directory
	Path string

	// InMemory runs badger without touching disk (Path is ignored)
	InMemory bool

	// SyncWrites makes every commit durable before returning
	SyncWrites bool

	// BlockCacheSizeMB is badger's block cache size in MB (default: 64)
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is badger's index cache size in MB (default: 32)
	IndexCacheSizeMB int64
}

var (
	_ connector.Connector = (*Store)(nil)
	_ connector.Linker    = (*Store)(nil)
)

// NewStore opens (or creates) the database described by cfg.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	blockCacheMB := cfg.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := cfg.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}

	opts = opts.
		WithLoggingLevel(badger.WARNING).
		WithCompression(options.None).
		WithSyncWrites(cfg.SyncWrites).
		WithBlockCacheSize(blockCacheMB << 20).
		WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}

	s := &Store{
		db:    db,
		opens: make(map[uuid.UUID]int),
	}

	swept, err := s.sweepOrphans(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to sweep unlinked groups: %w", err)
	}
	if swept > 0 {
		logger.Info("badger: removed %d unlinked groups left by a previous process", swept)
	}

	return s, nil
}

// Name implements connector.Connector.
func (s *Store) Name() string {
	return "badger"
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// ioError maps storage failures to connector errors, keeping connector
// errors raised inside transactions intact.
func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	var cErr *connector.Error
	if errors.As(err, &cErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return connector.WrapError(connector.ErrIO, op, err)
}

// sweepOrphans deletes groups with no hard links. It runs before any object
// can be open, so every such group is garbage.
func (s *Store) sweepOrphans(ctx context.Context) (int, error) {
	var orphans []uuid.UUID

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixNode)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var rec nodeRecord
			if err := item.Value(func(val []byte) error { return decode(val, &rec) }); err != nil {
				return err
			}
			if rec.HardLinks == 0 {
				id, err := uuid.Parse(string(item.Key()[len(prefixNode):]))
				if err != nil {
					return err
				}
				orphans = append(orphans, id)
			}
		}
		return nil
	})
	if err != nil || len(orphans) == 0 {
		return 0, err
	}

	removed := 0
	err = s.db.Update(func(txn *badger.Txn) error {
		t := newTx(txn)
		for _, id := range orphans {
			n, err := s.deleteNode(t, id)
			if err != nil {
				return err
			}
			removed += n
		}
		return t.commit()
	})
	return removed, err
}
