// Package connector defines the backend interface every hierarchy operation
// is dispatched through, plus the value types backends return.
package connector

// StorageType describes how a group stores its links.
type StorageType int

const (
	// StorageCompact stores links inline in the group header.
	StorageCompact StorageType = iota

	// StorageDense stores links in an indexed heap.
	StorageDense

	// StorageSymbolTable is the legacy tree layout.
	StorageSymbolTable
)

func (s StorageType) String() string {
	switch s {
	case StorageCompact:
		return "compact"
	case StorageDense:
		return "dense"
	case StorageSymbolTable:
		return "symbol table"
	default:
		return "unknown"
	}
}

// GroupInfo is a read-only snapshot of a group.
type GroupInfo struct {
	// StorageType is the current link storage layout
	StorageType StorageType `json:"storage_type"`

	// NLinks is the number of links in the group
	NLinks uint64 `json:"nlinks"`

	// MaxCorder is the creation order value the next link will receive
	// (the number of links ever created); 0 when order is not tracked
	MaxCorder int64 `json:"max_corder"`

	// Mounted reports whether another container is mounted on the group
	Mounted bool `json:"mounted"`
}

// StorageFor picks the storage layout for nlinks given the phase change
// thresholds of a group: compact up to maxCompact links, dense above, and
// back to compact only once the count drops below minDense.
func StorageFor(nlinks uint64, maxCompact, minDense uint32, current StorageType) StorageType {
	switch current {
	case StorageDense:
		if nlinks < uint64(minDense) {
			return StorageCompact
		}
		return StorageDense
	default:
		if nlinks > uint64(maxCompact) {
			return StorageDense
		}
		return StorageCompact
	}
}
