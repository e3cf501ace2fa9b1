// Package journal keeps the last canonical snapshot of every order in an
// embedded badger store so a reload can report what the order system
// changed since the previous load.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// Snapshot is one recorded canonical document
type Snapshot struct {
	Document   *models.Document `json:"document"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// Journal stores snapshots keyed by order key
type Journal struct {
	db     *badger.DB
	ttl    time.Duration
	logger cmtlog.Logger
}

// Open opens (or creates) the journal at path. An empty path or inMemory
// keeps everything in memory. A zero ttl keeps snapshots forever.
func Open(path string, inMemory bool, ttl time.Duration, logger cmtlog.Logger) (*Journal, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if inMemory || path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot journal: %w", err)
	}
	return &Journal{db: db, ttl: ttl, logger: logger}, nil
}

// Close releases the badger store
func (j *Journal) Close() error {
	return j.db.Close()
}

func snapshotKey(key models.OrderKey) []byte {
	return []byte(fmt.Sprintf("snapshot/%d/%d", key.OrderNumber, key.Suffix))
}

// Record stores doc as the latest snapshot of its order
func (j *Journal) Record(doc *models.Document, at time.Time) error {
	key, ok := doc.Key()
	if !ok {
		return errors.New("journal: document has no header")
	}
	data, err := json.Marshal(Snapshot{Document: doc, RecordedAt: at})
	if err != nil {
		return fmt.Errorf("journal: encoding snapshot: %w", err)
	}
	err = j.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(snapshotKey(key), data)
		if j.ttl > 0 {
			e = e.WithTTL(j.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("journal: writing snapshot %s: %w", key, err)
	}
	j.logger.Debug("Recorded canonical snapshot", "order", key.String())
	return nil
}

// Latest returns the most recent snapshot of an order
func (j *Journal) Latest(key models.OrderKey) (Snapshot, bool, error) {
	var snap Snapshot
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("journal: reading snapshot %s: %w", key, err)
	}
	return snap, true, nil
}
