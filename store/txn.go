package store

import (
	"bytes"
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/linkspace/linkspace/lserr"
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/treekey"
)

// OnEach is called once per candidate packet during WriteMany, after its
// LogIndex/HashIndex/TreeIndex updates (if any) have been staged in the
// in-flight transaction. recv is the packet's assigned (new) or
// previously-assigned (duplicate) recv_stamp. Returning false stops
// processing further packets in the batch; packets already processed remain
// committed.
type OnEach func(np *packet.NetPacket, recv uint64, isNew bool) bool

// WriteMany implements the write transaction contract of §4.5: one
// exclusive bbolt Update spanning every candidate packet, assigning each a
// strictly increasing recv_stamp, routing duplicates (by content hash) to
// onEach with isNew=false without touching the indexes, and updating
// LogIndex/HashIndex/TreeIndex together for everything new.
func (s *Store) WriteMany(pkts []*packet.NetPacket, onEach OnEach) error {
	const op = "store.WriteMany"
	if err := s.checkMapSize(); err != nil {
		return err
	}

	var wroteNew bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		logB := tx.Bucket(bucketLog)
		hashB := tx.Bucket(bucketHash)
		treeB := tx.Bucket(bucketTree)
		metaB := tx.Bucket(bucketMeta)

		last := readLogHead(metaB)

		for _, np := range pkts {
			h := np.Hash()

			if existing := hashB.Get(h[:]); existing != nil {
				recv := binary.BigEndian.Uint64(existing)
				if !onEach(np, recv, false) {
					return nil
				}
				continue
			}

			now := uint64(time.Now().UnixMicro())
			recv := last + 1
			if now > recv {
				recv = now
			}
			last = recv
			wroteNew = true

			recvKey := make([]byte, 8)
			binary.BigEndian.PutUint64(recvKey, recv)

			if err := hashB.Put(h[:], recvKey); err != nil {
				return err
			}
			if err := logB.Put(recvKey, np.Bytes()); err != nil {
				return err
			}
			if rp := packet.RootedPathOf(np.Point); rp != nil {
				group := packet.Group(np.Point)
				domain := packet.Domain(np.Point)
				create := packet.CreateStampOf(np.Point)
				var pubkey []byte
				if kp, ok := np.Point.(*packet.KeyPoint); ok {
					pk := kp.Pubkey()
					pubkey = pk[:]
				}
				tk := treekey.Derive(group, domain, rp, create, pubkey)
				key := append(append([]byte{}, tk...), recvKey...)
				if err := treeB.Put(key, recvKey); err != nil {
					return err
				}
			}
			if err := writeLogHead(metaB, recv); err != nil {
				return err
			}

			if !onEach(np, recv, true) {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if wroteNew {
		s.broadcastCommit()
	}
	return nil
}

// Put is a convenience wrapper for a single-packet write, returning whether
// it was newly stored and its assigned recv_stamp.
func (s *Store) Put(np *packet.NetPacket) (recv uint64, isNew bool, err error) {
	err = s.WriteMany([]*packet.NetPacket{np}, func(_ *packet.NetPacket, r uint64, n bool) bool {
		recv, isNew = r, n
		return true
	})
	return
}

func readLogHead(metaB *bolt.Bucket) uint64 {
	v := metaB.Get(metaKeyLogHead)
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

func writeLogHead(metaB *bolt.Bucket, recv uint64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, recv)
	return metaB.Put(metaKeyLogHead, v)
}

// ReadTxn is a consistent snapshot read transaction (§4.5): multiple
// concurrent ReadTxns may be open, and each one's view never changes for
// its lifetime.
type ReadTxn struct {
	tx *bolt.Tx
}

// View opens a read-only snapshot transaction and runs fn against it. The
// transaction is always rolled back (read-only) when fn returns.
func (s *Store) View(fn func(*ReadTxn) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&ReadTxn{tx: tx})
	})
}

// LogHead returns the highest committed recv_stamp visible in this snapshot.
func (r *ReadTxn) LogHead() uint64 {
	return readLogHead(r.tx.Bucket(bucketMeta))
}

// GetByHash looks up a packet by its canonical content hash, returning its
// recv_stamp and wire bytes.
func (r *ReadTxn) GetByHash(h packet.Hash) (recv uint64, wireBytes []byte, found bool) {
	hashB := r.tx.Bucket(bucketHash)
	v := hashB.Get(h[:])
	if v == nil {
		return 0, nil, false
	}
	recv = binary.BigEndian.Uint64(v)
	recvKey := make([]byte, 8)
	binary.BigEndian.PutUint64(recvKey, recv)
	wireBytes = r.tx.Bucket(bucketLog).Get(recvKey)
	return recv, wireBytes, wireBytes != nil
}

// GetByRecv looks up a packet's wire bytes directly by recv_stamp.
func (r *ReadTxn) GetByRecv(recv uint64) ([]byte, bool) {
	recvKey := make([]byte, 8)
	binary.BigEndian.PutUint64(recvKey, recv)
	v := r.tx.Bucket(bucketLog).Get(recvKey)
	return v, v != nil
}

// IterateLog walks the LogIndex in recv_stamp order starting at (and
// including) fromRecv, forward if forward is true, else backward. fn is
// called with each (recv, wireBytes); returning false stops iteration.
func (r *ReadTxn) IterateLog(fromRecv uint64, forward bool, fn func(recv uint64, wireBytes []byte) bool) error {
	c := r.tx.Bucket(bucketLog).Cursor()
	seek := make([]byte, 8)
	binary.BigEndian.PutUint64(seek, fromRecv)

	var k, v []byte
	if forward {
		k, v = c.Seek(seek)
	} else {
		k, v = c.Seek(seek)
		if k == nil {
			k, v = c.Last()
		} else if binary.BigEndian.Uint64(k) > fromRecv {
			k, v = c.Prev()
		}
	}
	for k != nil {
		if !fn(binary.BigEndian.Uint64(k), v) {
			return nil
		}
		if forward {
			k, v = c.Next()
		} else {
			k, v = c.Prev()
		}
	}
	return nil
}

// IterateHash walks the HashIndex in hash-byte order across [low, high]
// (nil bounds mean unbounded on that side), forward if forward is true,
// else backward. fn receives each (hash, recv_stamp); returning false stops
// iteration.
func (r *ReadTxn) IterateHash(low, high []byte, forward bool, fn func(hash packet.Hash, recv uint64) bool) error {
	c := r.tx.Bucket(bucketHash).Cursor()

	within := func(k []byte) bool {
		if low != nil && bytes.Compare(k, low) < 0 {
			return false
		}
		if high != nil && bytes.Compare(k, high) > 0 {
			return false
		}
		return true
	}

	var k, v []byte
	if forward {
		if low != nil {
			k, v = c.Seek(low)
		} else {
			k, v = c.First()
		}
	} else {
		if high != nil {
			k, v = c.Seek(high)
			if k == nil {
				k, v = c.Last()
			} else if bytes.Compare(k, high) > 0 {
				k, v = c.Prev()
			}
		} else {
			k, v = c.Last()
		}
	}
	for k != nil && within(k) {
		var h packet.Hash
		copy(h[:], k)
		if !fn(h, binary.BigEndian.Uint64(v)) {
			return nil
		}
		if forward {
			k, v = c.Next()
		} else {
			k, v = c.Prev()
		}
	}
	return nil
}

// IterateTree walks the TreeIndex cursor across [rng.Low, rng.High],
// forward if forward is true, else backward. fn receives the raw composite
// key (treekey bytes plus the recv_stamp tie-breaking suffix) and its
// recv_stamp value; returning false stops iteration.
func (r *ReadTxn) IterateTree(rng treekey.ScanRange, forward bool, fn func(key []byte, recv uint64) bool) error {
	c := r.tx.Bucket(bucketTree).Cursor()

	within := func(k []byte) bool {
		if rng.Low != nil && treekey.Compare(k, rng.Low) < 0 {
			return false
		}
		if rng.High != nil && treekey.Compare(k, rng.High) > 0 {
			return false
		}
		return true
	}

	var k, v []byte
	if forward {
		k, v = c.Seek(rng.Low)
	} else {
		k, v = seekLastAtMost(c, rng.High)
	}
	for k != nil && within(k) {
		recv := uint64(0)
		if len(v) == 8 {
			recv = binary.BigEndian.Uint64(v)
		}
		if !fn(k, recv) {
			return nil
		}
		if forward {
			k, v = c.Next()
		} else {
			k, v = c.Prev()
		}
	}
	return nil
}

func seekLastAtMost(c *bolt.Cursor, high []byte) (k, v []byte) {
	if high == nil {
		return c.Last()
	}
	k, v = c.Seek(high)
	if k == nil {
		return c.Last()
	}
	if treekey.Compare(k, high) > 0 {
		return c.Prev()
	}
	return k, v
}

// wrapStorageErr wraps a bbolt error with the storage error kind, for callers that
// need a uniform lserr-classified error rather than bbolt's own.
func wrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return lserr.New(lserr.KindStorage, op, err)
}
