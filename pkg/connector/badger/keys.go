package badger

import (
	"github.com/google/uuid"
)

// Database Key Namespace Design
// ==============================
//
// Key Namespace Prefixes:
//
// Data Type        Prefix   Key Format                     Value Type
// ====================================================================
// Containers       "r:"     r:<container name>             rootRecord (XDR)
// Groups           "n:"     n:<uuid>                       nodeRecord (XDR)
// Links            "l:"     l:<parent uuid>:<link name>    linkRecord (XDR)
//
// Links are one key per entry so a group's table is a prefix scan over
// "l:<parent uuid>:". Badger iterates keys in byte order, which makes name
// order the native link order of this backend.

const (
	// prefixRoot is the key prefix for container records
	prefixRoot = "r:"

	// prefixNode is the key prefix for group records
	prefixNode = "n:"

	// prefixLink is the key prefix for link entries
	prefixLink = "l:"
)

func keyRoot(container string) []byte {
	return []byte(prefixRoot + container)
}

func keyNode(id uuid.UUID) []byte {
	return []byte(prefixNode + id.String())
}

func keyLink(parent uuid.UUID, name string) []byte {
	return []byte(prefixLink + parent.String() + ":" + name)
}

func keyLinkPrefix(parent uuid.UUID) []byte {
	return []byte(prefixLink + parent.String() + ":")
}

// linkName extracts the link name from a link key.
func linkName(parent uuid.UUID, key []byte) string {
	return string(key[len(keyLinkPrefix(parent)):])
}
