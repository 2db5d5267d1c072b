package blob

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// blobBucket is the sole bbolt bucket used for the cold tier: digest hex
// string to raw content bytes.
var blobBucket = []byte("blobs")

// durableTier is the capability the store needs from a persisted backing
// store for cold-tier blobs.
type durableTier interface {
	Put(id ID, data []byte) error
	Get(id ID) ([]byte, error)
	Delete(id ID) error
}

// BoltDurableTier persists cold-tier blob content in a bbolt database,
// grounded on ivoronin/dupedog's bbolt-backed hash cache: one bucket keyed
// by digest, opened once and reused for the life of the store.
type BoltDurableTier struct {
	db *bolt.DB
}

// OpenBoltDurableTier opens (creating if necessary) a bbolt database at
// path for use as the blob store's cold tier.
func OpenBoltDurableTier(path string) (*BoltDurableTier, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "unable to open durable tier database")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to initialize durable tier bucket")
	}
	return &BoltDurableTier{db: db}, nil
}

// Put implements durableTier.Put.
func (b *BoltDurableTier) Put(id ID, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).Put(durableKey(id), data)
	})
}

// Get implements durableTier.Get.
func (b *BoltDurableTier) Get(id ID) ([]byte, error) {
	var result []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(blobBucket).Get(durableKey(id))
		if value == nil {
			return errNoSuchBlob(id)
		}
		result = make([]byte, len(value))
		copy(result, value)
		return nil
	})
	return result, err
}

// Delete implements durableTier.Delete.
func (b *BoltDurableTier) Delete(id ID) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).Delete(durableKey(id))
	})
}

// Close releases the underlying database handle.
func (b *BoltDurableTier) Close() error {
	return b.db.Close()
}

// durableKey composes the bbolt key for a blob, sharding by the first byte
// of the digest.
func durableKey(id ID) []byte {
	return []byte(fmt.Sprintf("%s/%s", string(id)[:2], id))
}
