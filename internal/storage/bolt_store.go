package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	publishedBucket  = "published"
	expiryValueBytes = 8
)

// boltLedger persists published links with their expiry in a bbolt bucket.
type boltLedger struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

func openBolt(path string, opts Options) (*boltLedger, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(publishedBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	l := &boltLedger{
		db:              db,
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	l.lastCleanup.Store(l.now().Unix())
	return l, nil
}

func (b *boltLedger) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Published reports whether link was marked and has not expired. Expired entries are removed.
func (b *boltLedger) Published(link string) (bool, error) {
	if b == nil || b.db == nil || link == "" {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanup(now); err != nil {
		return false, err
	}

	var published bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(publishedBucket))
		if bucket == nil {
			return fmt.Errorf("published bucket missing")
		}
		key := []byte(link)
		expiry, ok := decodeExpiry(bucket.Get(key))
		if !ok || !expiry.After(now) {
			if ok {
				return bucket.Delete(key)
			}
			return nil
		}
		published = true
		return nil
	})
	return published, err
}

// MarkPublished records link for the retention window.
func (b *boltLedger) MarkPublished(link string) error {
	if b == nil || b.db == nil || link == "" {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanup(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(publishedBucket))
		if bucket == nil {
			return fmt.Errorf("published bucket missing")
		}
		buf := make([]byte, expiryValueBytes)
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.ttl).Unix()))
		return bucket.Put([]byte(link), buf)
	})
}

// maybeCleanup sweeps expired links at most once per cleanup interval.
func (b *boltLedger) maybeCleanup(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(publishedBucket))
		if bucket == nil {
			return fmt.Errorf("published bucket missing")
		}
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if expiry, ok := decodeExpiry(v); !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
