package storage

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"chainview/types/chain"
)

const (
	poolPrefix = "pool:"
	latestKey  = "latestPool"
)

// ErrNoSnapshot is returned when nothing has been recorded yet.
var ErrNoSnapshot = errors.New("no pool snapshot recorded")

// Snapshot is one recorded fetch of the transaction pool.
type Snapshot struct {
	ID           string              `json:"id"`
	TakenAt      time.Time           `json:"takenAt"`
	Transactions []chain.Transaction `json:"transactions"`
}

// Storage keeps pool snapshots in LevelDB, keyed by capture time.
type Storage struct {
	db      *leveldb.DB
	maxKeep int
	now     func() time.Time
	seq     uint64
}

// NewStorage opens (or creates) the snapshot database at path. maxKeep <= 0 keeps everything.
func NewStorage(path string, maxKeep int) (*Storage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening snapshot store at %s", path)
	}
	return &Storage{db: db, maxKeep: maxKeep, now: time.Now}, nil
}

// poolKey orders snapshots by capture time, then by save order within one clock reading.
func poolKey(t time.Time, seq uint64) []byte {
	// zero-padded so lexical order is time order
	return []byte(fmt.Sprintf("%s%020d-%020d", poolPrefix, t.UnixNano(), seq))
}

// SavePool records txs as the newest snapshot.
func (s *Storage) SavePool(txs []chain.Transaction) error {
	if txs == nil {
		txs = []chain.Transaction{}
	}
	snap := Snapshot{ID: uuid.New().String(), TakenAt: s.now().UTC(), Transactions: txs}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding pool snapshot")
	}
	key := poolKey(snap.TakenAt, atomic.AddUint64(&s.seq, 1))
	batch := new(leveldb.Batch)
	batch.Put(key, data)
	batch.Put([]byte(latestKey), key)
	if err := s.db.Write(batch, nil); err != nil {
		return errors.Wrap(err, "writing pool snapshot")
	}
	if s.maxKeep > 0 {
		return s.Prune(s.maxKeep)
	}
	return nil
}

// Latest returns the most recent snapshot.
func (s *Storage) Latest() (Snapshot, error) {
	var snap Snapshot
	key, err := s.db.Get([]byte(latestKey), nil)
	if err == leveldb.ErrNotFound {
		return snap, ErrNoSnapshot
	}
	if err != nil {
		return snap, errors.Wrap(err, "reading latest snapshot key")
	}
	data, err := s.db.Get(key, nil)
	if err != nil {
		return snap, errors.Wrapf(err, "reading snapshot %s", key)
	}
	err = json.Unmarshal(data, &snap)
	return snap, errors.Wrap(err, "decoding snapshot")
}

// ListRecent returns up to max snapshots, newest first.
func (s *Storage) ListRecent(max int) ([]Snapshot, error) {
	var snaps []Snapshot
	iter := s.db.NewIterator(util.BytesPrefix([]byte(poolPrefix)), nil)
	defer iter.Release()

	for ok := iter.Last(); ok && len(snaps) < max; ok = iter.Prev() {
		var snap Snapshot
		if err := json.Unmarshal(iter.Value(), &snap); err != nil {
			continue // skip broken entries
		}
		snaps = append(snaps, snap)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterating snapshots")
	}
	return snaps, nil
}

// Count returns the number of stored snapshots.
func (s *Storage) Count() (int, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(poolPrefix)), nil)
	defer iter.Release()
	n := 0
	for iter.Next() {
		n++
	}
	return n, iter.Error()
}

// Prune deletes all but the newest keep snapshots.
func (s *Storage) Prune(keep int) error {
	total, err := s.Count()
	if err != nil {
		return err
	}
	excess := total - keep
	if excess <= 0 {
		return nil
	}
	iter := s.db.NewIterator(util.BytesPrefix([]byte(poolPrefix)), nil)
	batch := new(leveldb.Batch)
	for iter.Next() && excess > 0 {
		batch.Delete(append([]byte(nil), iter.Key()...))
		excess--
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "iterating snapshots")
	}
	return errors.Wrap(s.db.Write(batch, nil), "pruning snapshots")
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}
