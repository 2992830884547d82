// Package store implements the storage engine (§4.5): a bbolt-backed
// database holding the LogIndex, HashIndex, and TreeIndex in one ACID
// transaction per write, behind the same Store-wraps-index/Option-config
// shape the teacher's own store/store.go and gsfa/store/option.go use for
// their hand-rolled index/primary/freelist trio.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/linkspace/linkspace/lserr"
)

var log = logging.Logger("linkspace/store")

const typeMarker = "bbolt"

// Store is the embedded storage engine handle: one bbolt database holding
// the LogIndex, HashIndex, TreeIndex, and meta buckets.
type Store struct {
	db  *bolt.DB
	dir string

	cfg config

	mu     sync.RWMutex
	closed bool

	// commitMu/commitNotice implement the teacher's closed-and-replaced
	// broadcast channel idiom (store/store.go's flushNotice): every
	// successful WriteMany that stores at least one new packet closes the
	// current channel and allocates a fresh one, waking any goroutine parked
	// on CommitNotice.
	commitMu     sync.Mutex
	commitNotice chan struct{}
}

// Open opens (or initializes) a linkspace database directory at dirPath,
// containing the TYPE/INSTANCE/data.mdb layout (§6.4). Calling Close closes
// the underlying bbolt database.
func Open(dirPath string, opts ...Option) (*Store, error) {
	const op = "store.Open"
	c := defaultConfig()
	c.apply(opts)

	info, err := os.Stat(dirPath)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, lserr.New(lserr.KindStorage, op, ErrNotDir)
		}
		if err := verifyTypeMarker(dirPath); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		if err := initDir(dirPath); err != nil {
			return nil, err
		}
	default:
		return nil, lserr.New(lserr.KindStorage, op, err)
	}

	dataPath := filepath.Join(dirPath, "data.mdb")
	boltOpts := &bolt.Options{Timeout: c.openTimeout, ReadOnly: c.readOnly}

	db, err := openWithRetry(dataPath, boltOpts, c)
	if err != nil {
		return nil, err
	}
	db.NoSync = c.noSync

	if !c.readOnly {
		if err := db.Update(func(tx *bolt.Tx) error {
			for _, b := range allBuckets {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			db.Close()
			return nil, lserr.New(lserr.KindStorage, op, err)
		}
	}

	return &Store{db: db, dir: dirPath, cfg: c, commitNotice: make(chan struct{})}, nil
}

func openWithRetry(dataPath string, boltOpts *bolt.Options, c config) (*bolt.DB, error) {
	const op = "store.Open"
	backoff := c.retryBackoffMin
	attempts := c.retryAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; ; attempt++ {
		db, err := bolt.Open(dataPath, 0o600, boltOpts)
		if err == nil {
			return db, nil
		}
		if !errors.Is(err, bolt.ErrTimeout) {
			return nil, lserr.New(lserr.KindStorage, op, err)
		}
		if attempt >= attempts-1 {
			return nil, lserr.New(lserr.KindStorage, op, fmt.Errorf("%w: %v", ErrLockTimeout, err))
		}
		log.Warnw("database locked, retrying", "attempt", attempt+1, "backoff", backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > c.retryBackoffMax {
			backoff = c.retryBackoffMax
		}
	}
}

func initDir(dirPath string) error {
	const op = "store.Open"
	if err := os.MkdirAll(dirPath, 0o700); err != nil {
		return lserr.New(lserr.KindStorage, op, err)
	}
	if err := os.WriteFile(filepath.Join(dirPath, "TYPE"), []byte(typeMarker), 0o600); err != nil {
		return lserr.New(lserr.KindStorage, op, err)
	}
	instance := make([]byte, 8)
	binary.BigEndian.PutUint64(instance, uint64(time.Now().UnixMicro()))
	if err := os.WriteFile(filepath.Join(dirPath, "INSTANCE"), instance, 0o600); err != nil {
		return lserr.New(lserr.KindStorage, op, err)
	}
	return nil
}

func verifyTypeMarker(dirPath string) error {
	const op = "store.Open"
	b, err := os.ReadFile(filepath.Join(dirPath, "TYPE"))
	if err != nil {
		if os.IsNotExist(err) {
			return initDir(dirPath)
		}
		return lserr.New(lserr.KindStorage, op, err)
	}
	if string(b) != typeMarker {
		return lserr.New(lserr.KindStorage, op, ErrBadTypeMarker)
	}
	if _, err := os.Stat(filepath.Join(dirPath, "INSTANCE")); os.IsNotExist(err) {
		instance := make([]byte, 8)
		binary.BigEndian.PutUint64(instance, uint64(time.Now().UnixMicro()))
		return os.WriteFile(filepath.Join(dirPath, "INSTANCE"), instance, 0o600)
	}
	return nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database directory.
func (s *Store) Path() string { return s.dir }

// CommitNotice returns the channel that is closed the next time a WriteMany
// call commits at least one new entry. Callers (the matcher's process_while)
// re-fetch a fresh channel after each wake since the old one stays closed.
func (s *Store) CommitNotice() <-chan struct{} {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	return s.commitNotice
}

// broadcastCommit wakes every CommitNotice waiter and arms a fresh channel
// for the next commit.
func (s *Store) broadcastCommit() {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	close(s.commitNotice)
	s.commitNotice = make(chan struct{})
}

func (s *Store) checkMapSize() error {
	info, err := os.Stat(filepath.Join(s.dir, "data.mdb"))
	if err != nil {
		return nil
	}
	if s.cfg.maxMapSize > 0 && info.Size() > int64(s.cfg.maxMapSize) {
		return lserr.New(lserr.KindStorage, "store.checkMapSize", ErrMapFull)
	}
	return nil
}
