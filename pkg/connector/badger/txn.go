package badger

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/marmos91/dittoh5/pkg/connector"
)

// tx caches decoded records for the lifetime of one badger transaction so
// a record touched twice (parent and child of a self link, or a node reached
// by two paths) is updated once.
type tx struct {
	txn     *badger.Txn
	recs    map[uuid.UUID]*nodeRecord
	dirty   map[uuid.UUID]bool
	deleted map[uuid.UUID]bool
}

func newTx(txn *badger.Txn) *tx {
	return &tx{
		txn:     txn,
		recs:    make(map[uuid.UUID]*nodeRecord),
		dirty:   make(map[uuid.UUID]bool),
		deleted: make(map[uuid.UUID]bool),
	}
}

// node loads the record of id.
func (t *tx) node(op string, id uuid.UUID) (*nodeRecord, error) {
	if t.deleted[id] {
		return nil, connector.NewError(connector.ErrNotFound, op, id.String())
	}
	if rec, ok := t.recs[id]; ok {
		return rec, nil
	}

	item, err := t.txn.Get(keyNode(id))
	if err == badger.ErrKeyNotFound {
		return nil, connector.NewError(connector.ErrNotFound, op, id.String())
	}
	if err != nil {
		return nil, err
	}

	var rec nodeRecord
	if err := item.Value(func(val []byte) error { return decode(val, &rec) }); err != nil {
		return nil, err
	}
	t.recs[id] = &rec
	return &rec, nil
}

// put stages rec for id.
func (t *tx) put(id uuid.UUID, rec *nodeRecord) {
	t.recs[id] = rec
	t.dirty[id] = true
	delete(t.deleted, id)
}

// remove stages deletion of id.
func (t *tx) remove(id uuid.UUID) {
	delete(t.recs, id)
	delete(t.dirty, id)
	t.deleted[id] = true
}

// link returns the link named name in parent, or nil.
func (t *tx) link(parent uuid.UUID, name string) (*linkRecord, uuid.UUID, error) {
	item, err := t.txn.Get(keyLink(parent, name))
	if err == badger.ErrKeyNotFound {
		return nil, uuid.Nil, nil
	}
	if err != nil {
		return nil, uuid.Nil, err
	}

	var rec linkRecord
	if err := item.Value(func(val []byte) error { return decode(val, &rec) }); err != nil {
		return nil, uuid.Nil, err
	}
	target, err := decodeUUID(rec.Target)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return &rec, target, nil
}

// links returns parent's link table in key (name) order.
func (t *tx) links(parent uuid.UUID) ([]connector.Link, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyLinkPrefix(parent)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	var out []connector.Link
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		var rec linkRecord
		if err := item.Value(func(val []byte) error { return decode(val, &rec) }); err != nil {
			return nil, err
		}
		target, err := decodeUUID(rec.Target)
		if err != nil {
			return nil, err
		}
		out = append(out, connector.Link{
			Name:   linkName(parent, item.KeyCopy(nil)),
			Target: target.String(),
			Corder: rec.Corder,
		})
	}
	return out, nil
}

// addLink links child under parent as name.
func (t *tx) addLink(op string, parent uuid.UUID, name string, child uuid.UUID) error {
	prec, err := t.node(op, parent)
	if err != nil {
		return err
	}
	crec, err := t.node(op, child)
	if err != nil {
		return err
	}

	data, err := encode(&linkRecord{Target: child[:], Corder: prec.NextCorder})
	if err != nil {
		return err
	}
	if err := t.txn.Set(keyLink(parent, name), data); err != nil {
		return err
	}

	prec.NextCorder++
	prec.NLinks++
	prec.Storage = int32(connector.StorageFor(prec.NLinks, prec.MaxCompact, prec.MinDense, connector.StorageType(prec.Storage)))
	crec.HardLinks++
	t.put(parent, prec)
	t.put(child, crec)
	return nil
}

// commit writes staged records and deletions.
func (t *tx) commit() error {
	for id := range t.deleted {
		if err := t.txn.Delete(keyNode(id)); err != nil {
			return err
		}
	}
	for id := range t.dirty {
		data, err := encode(t.recs[id])
		if err != nil {
			return err
		}
		if err := t.txn.Set(keyNode(id), data); err != nil {
			return err
		}
	}
	return nil
}
