package badger

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/plist"
	xdr "github.com/rasky/go-xdr/xdr2"
)

// Records are XDR encoded: fixed-width fields, no schema negotiation and
// the same codec the rest of the stack uses on the wire. Only fixed-width
// integer types, bool, string and []byte appear in records.

// rootRecord is the value of a container key.
type rootRecord struct {
	Root []byte
}

// nodeRecord is the value of a group key.
type nodeRecord struct {
	Container string

	LocalHeapSizeHint  uint64
	MaxCompact         uint32
	MinDense           uint32
	EstNumEntries      uint32
	EstNameLen         uint32
	TrackCreationOrder bool
	IndexCreationOrder bool

	NextCorder int64
	NLinks     uint64
	Storage    int32
	HardLinks  uint32
}

// linkRecord is the value of a link key.
type linkRecord struct {
	Target []byte
	Corder int64
}

func newNodeRecord(container string, props plist.GroupCreateProps) *nodeRecord {
	return &nodeRecord{
		Container:          container,
		LocalHeapSizeHint:  props.LocalHeapSizeHint,
		MaxCompact:         props.MaxCompact,
		MinDense:           props.MinDense,
		EstNumEntries:      props.EstNumEntries,
		EstNameLen:         props.EstNameLen,
		TrackCreationOrder: props.TrackCreationOrder,
		IndexCreationOrder: props.IndexCreationOrder,
	}
}

func (r *nodeRecord) props() plist.GroupCreateProps {
	return plist.GroupCreateProps{
		LocalHeapSizeHint:  r.LocalHeapSizeHint,
		MaxCompact:         r.MaxCompact,
		MinDense:           r.MinDense,
		EstNumEntries:      r.EstNumEntries,
		EstNameLen:         r.EstNameLen,
		TrackCreationOrder: r.TrackCreationOrder,
		IndexCreationOrder: r.IndexCreationOrder,
	}
}

func (r *nodeRecord) info() *connector.GroupInfo {
	info := &connector.GroupInfo{
		StorageType: connector.StorageType(r.Storage),
		NLinks:      r.NLinks,
	}
	if r.TrackCreationOrder {
		info.MaxCorder = r.NextCorder
	}
	return info
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	if _, err := xdr.Unmarshal(bytes.NewReader(data), v); err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return nil
}

func decodeUUID(b []byte) (uuid.UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID: %w", err)
	}
	return id, nil
}
