package store

// Top-level bbolt buckets implementing the three coordinated logical indexes
// (§4.5) plus a fourth bucket for log-head bookkeeping. Naming
// mirrors the teacher's own three-part index/primary/freelist split, now
// expressed as bucket names inside one bbolt database instead of three
// separate files.
var (
	bucketLog  = []byte("log")  // recv_stamp (8B BE) -> full wire bytes
	bucketHash = []byte("hash") // packet_hash (32B)  -> recv_stamp (8B BE)
	bucketTree = []byte("tree") // treekey.Key||recv_stamp -> recv_stamp (8B BE)
	bucketMeta = []byte("meta") // bookkeeping: log head (instance id lives in the INSTANCE file)
)

var metaKeyLogHead = []byte("log_head")

var allBuckets = [][]byte{bucketLog, bucketHash, bucketTree, bucketMeta}
