package indexer

import (
	"hash/fnv"
	"sync"
)

// keyLock stripes locking across a fixed number of buckets keyed by
// hash(domain, url): writes to the same (domain, url) linearize, and
// concurrent PUT/DELETE on different URLs block each other only when their
// hashes fall in the same bucket.
type keyLock struct {
	stripes []sync.Mutex
}

const keyLockStripes = 256

func newKeyLock() *keyLock {
	return &keyLock{stripes: make([]sync.Mutex, keyLockStripes)}
}

func (k *keyLock) bucket(domain, url string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write([]byte(url))
	return &k.stripes[h.Sum32()%uint32(len(k.stripes))]
}

// Lock blocks until the stripe for (domain, url) is acquired and returns an
// unlock func.
func (k *keyLock) Lock(domain, url string) func() {
	m := k.bucket(domain, url)
	m.Lock()
	return m.Unlock
}
