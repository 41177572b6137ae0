package mixer

import (
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/mixer-z-sandbox/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Payer is the capability the mixer uses to move funds out of the pool.
// The host ledger supplies the real implementation; the mixer only assumes
// that a nil return means the transfer is final.
type Payer interface {
	Pay(to common.Address, amount *big.Int) error
}

// Payout is one recorded transfer out of the pool.
type Payout struct {
	To        common.Address `cbor:"1,keyasint"`
	Amount    *types.BigInt  `cbor:"2,keyasint"`
	Timestamp int64          `cbor:"3,keyasint"`
}

// JournalPayer records payouts in the pool database instead of moving real
// funds. It backs standalone deployments where settlement happens out of
// band, and doubles as the reference Payer in tests.
type JournalPayer struct {
	mu   sync.Mutex
	db   db.Database
	next uint64
}

// NewJournalPayer opens a payout journal over the given database, resuming
// the sequence counter from the existing entries.
func NewJournalPayer(database db.Database) (*JournalPayer, error) {
	var count uint64
	err := prefixeddb.NewPrefixedReader(database, payoutPrefix).Iterate(nil, func(_, _ []byte) bool {
		count++
		return true
	})
	if err != nil {
		return nil, err
	}
	return &JournalPayer{db: database, next: count}, nil
}

// Pay appends a payout record. Zero-amount transfers are recorded too, so
// the journal mirrors the exact sequence of transfer requests.
func (p *JournalPayer) Pay(to common.Address, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	raw, err := encodeArtifact(&Payout{
		To:        to,
		Amount:    types.BigIntFrom(amount),
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, p.next)
	wTx := prefixeddb.NewPrefixedWriteTx(p.db.WriteTx(), payoutPrefix)
	if err := wTx.Set(key, raw); err != nil {
		wTx.Discard()
		return err
	}
	if err := wTx.Commit(); err != nil {
		return err
	}
	p.next++
	return nil
}

// Payouts returns every recorded payout in order.
func (p *JournalPayer) Payouts() ([]*Payout, error) {
	var payouts []*Payout
	var decodeErr error
	err := prefixeddb.NewPrefixedReader(p.db, payoutPrefix).Iterate(nil, func(_, v []byte) bool {
		payout := &Payout{}
		if decodeErr = decodeArtifact(v, payout); decodeErr != nil {
			return false
		}
		payouts = append(payouts, payout)
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return payouts, nil
}
