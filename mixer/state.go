package mixer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Persisted state layout. The pool owns a single key-value database with the
// following prefixes:
//   - 's/' pool state: immutable config and the accumulator frontier
//   - 'n/' spent nullifiers (key = 32-byte big-endian nullifier hash)
//   - 'l/' leaf records (key = 4-byte big-endian leaf index, value = leaf)
//   - 'p/' payout journal (owned by JournalPayer)
var (
	statePrefix     = []byte("s/")
	nullifierPrefix = []byte("n/")
	leafPrefix      = []byte("l/")
	payoutPrefix    = []byte("p/")

	configKey = []byte("config")
	treeKey   = []byte("tree")
)

// encodeArtifact encodes a stored record with deterministic CBOR.
func encodeArtifact(a any) ([]byte, error) {
	opts := cbor.CoreDetEncOptions()
	em, err := opts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return em.Marshal(a)
}

func decodeArtifact(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}

// fieldElementKey returns the canonical 32-byte big-endian key of a field
// element, used for nullifier and leaf lookups.
func fieldElementKey(v *big.Int) []byte {
	return v.FillBytes(make([]byte, 32))
}

// leafIndexKey returns the 4-byte big-endian key of a leaf index; big-endian
// keys make prefix iteration return leaves in insertion order.
func leafIndexKey(index uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, index)
	return key
}

// readState reads a record from the state prefix; it returns (nil, nil) when
// the key does not exist.
func readState(database db.Database, key []byte) ([]byte, error) {
	data, err := prefixeddb.NewPrefixedReader(database, statePrefix).Get(key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}
