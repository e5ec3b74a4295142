package h5

import (
	"context"
	"sync"
	"testing"

	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/connector/memory"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/stretchr/testify/require"
)

// recorder wraps the memory connector, counting dispatches and keeping the
// last transfer token it saw. closeErr is returned from every GroupClose
// after the real close has run; closed counts real closes that succeeded.
type recorder struct {
	*memory.Store

	mu       sync.Mutex
	calls    map[string]int
	lastTok  plist.Transfer
	closeErr error
	closed   int

	lastParams location.Params
}

func newRecorder() *recorder {
	return &recorder{Store: memory.NewStore(), calls: make(map[string]int)}
}

func (r *recorder) record(op string, tok plist.Transfer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
	r.lastTok = tok
}

func (r *recorder) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *recorder) closedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *recorder) params() location.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastParams
}

func (r *recorder) token() plist.Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTok
}

func (r *recorder) FileCreate(ctx context.Context, name string, fapl *plist.List, tok plist.Transfer) (connector.Object, error) {
	r.record("FileCreate", tok)
	return r.Store.FileCreate(ctx, name, fapl, tok)
}

func (r *recorder) FileClose(ctx context.Context, obj connector.Object, tok plist.Transfer) error {
	r.record("FileClose", tok)
	return r.Store.FileClose(ctx, obj, tok)
}

func (r *recorder) GroupCreate(ctx context.Context, loc connector.Object, params location.Params, name string, gcpl, gapl *plist.List, tok plist.Transfer) (connector.Object, error) {
	r.record("GroupCreate", tok)
	return r.Store.GroupCreate(ctx, loc, params, name, gcpl, gapl, tok)
}

func (r *recorder) GroupOpen(ctx context.Context, loc connector.Object, params location.Params, name string, gapl *plist.List, tok plist.Transfer) (connector.Object, error) {
	r.record("GroupOpen", tok)
	return r.Store.GroupOpen(ctx, loc, params, name, gapl, tok)
}

func (r *recorder) GroupGet(ctx context.Context, obj connector.Object, kind connector.GetKind, tok plist.Transfer, params location.Params) (connector.GetResult, error) {
	r.record("GroupGet", tok)
	r.mu.Lock()
	r.lastParams = params
	r.mu.Unlock()
	return r.Store.GroupGet(ctx, obj, kind, tok, params)
}

func (r *recorder) GroupSpecific(ctx context.Context, obj connector.Object, kind connector.SpecificKind, tok plist.Transfer, id handle.ID) error {
	r.record("GroupSpecific", tok)
	return r.Store.GroupSpecific(ctx, obj, kind, tok, id)
}

func (r *recorder) GroupClose(ctx context.Context, obj connector.Object, tok plist.Transfer) error {
	r.record("GroupClose", tok)
	if err := r.Store.GroupClose(ctx, obj, tok); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return r.closeErr
}

// noLinker hides the Linker side of a connector.
type noLinker struct {
	connector.Connector
}

// setup returns a library bound to a fresh recorder plus an open file
// handle. The library is shut down when the test ends.
func setup(t *testing.T, opts ...Option) (*Library, *recorder, handle.ID) {
	t.Helper()

	rec := newRecorder()
	lib, err := NewLibrary(rec, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Shutdown(context.Background()) })

	file, err := lib.CreateFile(context.Background(), "test.h5", plist.Default)
	require.NoError(t, err)
	return lib, rec, file
}

func intermediateLcpl(t *testing.T) *plist.List {
	t.Helper()
	lcpl := plist.New(plist.ClassLinkCreate)
	require.NoError(t, plist.SetCreateIntermediateGroup(lcpl, true))
	return lcpl
}
