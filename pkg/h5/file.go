package h5

import (
	"context"

	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/plist"
)

// CreateFile creates a container and returns a file handle for it. fapl may
// be plist.Default.
func (l *Library) CreateFile(ctx context.Context, name string, fapl *plist.List) (handle.ID, error) {
	const op = "create file"
	return l.file(ctx, op, name, fapl, true)
}

// OpenFile opens an existing container.
func (l *Library) OpenFile(ctx context.Context, name string, fapl *plist.List) (handle.ID, error) {
	const op = "open file"
	return l.file(ctx, op, name, fapl, false)
}

func (l *Library) file(ctx context.Context, op, name string, fapl *plist.List, create bool) (handle.ID, error) {
	if name == "" {
		return handle.Invalid, argumentError(op, errEmptyName)
	}
	fapl, err := plist.ResolveDefault(plist.ClassFileAccess, fapl)
	if err != nil {
		return handle.Invalid, argumentError(op, err)
	}
	if l.shutdown.Load() {
		return handle.Invalid, handleError(op, errShutdown)
	}

	tok := plist.DefaultTransfer()
	logger.Debug("h5: %s %q via %s", op, name, l.conn.Name())

	var obj connector.Object
	if create {
		obj, err = l.conn.FileCreate(ctx, name, fapl, tok)
	} else {
		obj, err = l.conn.FileOpen(ctx, name, fapl, tok)
	}
	if err != nil {
		return handle.Invalid, backendError(op, err)
	}

	return l.register(ctx, op, handle.ClassFile, &Binding{conn: l.conn, obj: obj, fapl: fapl.Copy()})
}

// CloseFile releases a file handle. The container is closed when the last
// reference goes.
func (l *Library) CloseFile(ctx context.Context, id handle.ID) error {
	return l.release(ctx, "close file", id, handle.ClassFile)
}
