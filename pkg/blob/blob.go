// Package blob implements the content-addressable blob store: digest-keyed
// storage with reference counting, hot/warm/cold tiering, integrity
// verification, and orphan reclamation. Cold-tier blobs written to a
// durable tier are keyed by their digest prefixed with its first byte (see
// durableKey), so no one key prefix accumulates too many entries.
package blob

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/vfscore/vfscore/pkg/logging"
)

// Tier is an advisory placement label. It never affects content semantics;
// puts and gets must return byte-identical content regardless of tier.
type Tier int

const (
	Hot Tier = iota
	Warm
	Cold
)

// String renders the tier name.
func (t Tier) String() string {
	switch t {
	case Hot:
		return "hot"
	case Warm:
		return "warm"
	case Cold:
		return "cold"
	default:
		return "unknown"
	}
}

// ID is a blob's stable content-addressed identity: the hex-encoded SHA-256
// digest of its bytes.
type ID string

// Digest computes the blob ID for the given content.
func Digest(content []byte) ID {
	sum := sha256.Sum256(content)
	return ID(hex.EncodeToString(sum[:]))
}

// entry is the internal record the store keeps per blob.
type entry struct {
	data     []byte
	refCount int
	tier     Tier
}

// Store is the content-addressable blob store. It is safe for concurrent
// use; all mutations hold the store's lock for their duration so ref-count
// updates stay atomic.
type Store struct {
	logger *logging.Logger

	mu      chan struct{} // binary semaphore; see lock/unlock
	entries map[ID]*entry

	hotThreshold   int64
	durable        durableTier
	emptyBlobID    ID
}

// Option configures a Store at construction.
type Option func(*Store)

// WithHotThreshold sets the size (in bytes) below which an untiered put
// defaults to the hot tier; puts at or above it default to warm.
func WithHotThreshold(bytes int64) Option {
	return func(s *Store) { s.hotThreshold = bytes }
}

// WithDurableTier attaches a persisted backing store (see durable.go) used
// for blobs placed in the cold tier.
func WithDurableTier(d durableTier) Option {
	return func(s *Store) { s.durable = d }
}

// New constructs an empty Store.
func New(logger *logging.Logger, options ...Option) *Store {
	s := &Store{
		logger:       logger,
		mu:           make(chan struct{}, 1),
		entries:      make(map[ID]*entry),
		hotThreshold: 64 * 1024,
	}
	for _, option := range options {
		option(s)
	}
	s.mu <- struct{}{}

	s.emptyBlobID = Digest(nil)
	s.entries[s.emptyBlobID] = &entry{data: []byte{}, refCount: 0, tier: Hot}

	return s
}

func (s *Store) lock()   { <-s.mu }
func (s *Store) unlock() { s.mu <- struct{}{} }

// EmptyID returns the canonical blob ID for zero-length content.
func (s *Store) EmptyID() ID {
	return s.emptyBlobID
}

// Put stores content, computing its digest. If a blob with that digest
// already exists, its reference count is incremented and no additional
// backing storage is allocated. Otherwise a new blob is created with
// ref_count=1 and the default tier selected by size against the hot
// threshold, unless tier is explicitly provided.
func (s *Store) Put(content []byte, tier *Tier) (ID, error) {
	id := Digest(content)

	s.lock()
	defer s.unlock()

	if e, ok := s.entries[id]; ok {
		e.refCount++
		if s.logger != nil {
			s.logger.Tracef("put: existing blob %s ref now %d", id, e.refCount)
		}
		return id, nil
	}

	chosenTier := Hot
	if tier != nil {
		chosenTier = *tier
	} else if int64(len(content)) >= s.hotThreshold {
		chosenTier = Warm
	}

	stored := make([]byte, len(content))
	copy(stored, content)

	if chosenTier == Cold && s.durable != nil {
		if err := s.durable.Put(id, stored); err != nil {
			return "", err
		}
	}

	s.entries[id] = &entry{data: stored, refCount: 1, tier: chosenTier}
	if s.logger != nil {
		s.logger.Debugf("put: new blob %s (%d bytes, tier=%s)", id, len(content), chosenTier)
	}
	return id, nil
}

// Get returns the bytes for id, or ENOENT if no such blob exists.
func (s *Store) Get(id ID) ([]byte, error) {
	s.lock()
	defer s.unlock()
	return s.getLocked(id)
}

func (s *Store) getLocked(id ID) ([]byte, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, errNoSuchBlob(id)
	}
	if e.tier == Cold && s.durable != nil {
		data, err := s.durable.Get(id)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	result := make([]byte, len(e.data))
	copy(result, e.data)
	return result, nil
}

// AddRef increments id's reference count.
func (s *Store) AddRef(id ID) error {
	s.lock()
	defer s.unlock()
	e, ok := s.entries[id]
	if !ok {
		return errNoSuchBlob(id)
	}
	e.refCount++
	return nil
}

// ReleaseRef decrements id's reference count. Releasing to zero marks the
// blob orphan-eligible; reclamation happens via ReclaimOrphans, not
// automatically.
func (s *Store) ReleaseRef(id ID) error {
	s.lock()
	defer s.unlock()
	e, ok := s.entries[id]
	if !ok {
		return errNoSuchBlob(id)
	}
	if e.refCount > 0 {
		e.refCount--
	}
	return nil
}

// RefCount reports id's current reference count.
func (s *Store) RefCount(id ID) (int, error) {
	s.lock()
	defer s.unlock()
	e, ok := s.entries[id]
	if !ok {
		return 0, errNoSuchBlob(id)
	}
	return e.refCount, nil
}

// SetTier moves a blob to a new tier, preserving its content. Moving to or
// from the cold tier copies bytes to or from the durable tier when one is
// configured.
func (s *Store) SetTier(id ID, tier Tier) error {
	s.lock()
	defer s.unlock()
	e, ok := s.entries[id]
	if !ok {
		return errNoSuchBlob(id)
	}
	if e.tier == tier {
		return nil
	}

	if tier == Cold && s.durable != nil {
		data := e.data
		if data == nil {
			loaded, err := s.durable.Get(id)
			if err != nil {
				return err
			}
			data = loaded
		}
		if err := s.durable.Put(id, data); err != nil {
			return err
		}
		e.data = nil
	} else if e.tier == Cold && s.durable != nil {
		data, err := s.durable.Get(id)
		if err != nil {
			return err
		}
		e.data = data
	}

	e.tier = tier
	return nil
}

// GetTier reports id's current tier.
func (s *Store) GetTier(id ID) (Tier, error) {
	s.lock()
	defer s.unlock()
	e, ok := s.entries[id]
	if !ok {
		return 0, errNoSuchBlob(id)
	}
	return e.tier, nil
}

// Verify recomputes id's digest from its stored bytes and compares it
// against id itself, reporting mismatches rather than auto-healing them.
func (s *Store) Verify(id ID) (bool, error) {
	data, err := s.Get(id)
	if err != nil {
		return false, err
	}
	return Digest(data) == id, nil
}

// ListOrphans returns every blob ID currently at ref_count=0 other than the
// canonical empty blob, which is never reclaimed.
func (s *Store) ListOrphans() []ID {
	s.lock()
	defer s.unlock()
	var orphans []ID
	for id, e := range s.entries {
		if id == s.emptyBlobID {
			continue
		}
		if e.refCount == 0 {
			orphans = append(orphans, id)
		}
	}
	return orphans
}

// ReclaimResult summarizes a reclamation pass.
type ReclaimResult struct {
	Count      int
	BytesFreed int64
}

// ReclaimOrphans releases storage for every blob at ref_count=0. A blob
// with ref_count > 0 is never deleted: reclamation re-checks the live ref
// count under the store lock. The canonical empty blob is never reclaimed.
func (s *Store) ReclaimOrphans() (ReclaimResult, error) {
	s.lock()
	defer s.unlock()

	var result ReclaimResult
	for id, e := range s.entries {
		if id == s.emptyBlobID {
			continue
		}
		if e.refCount != 0 {
			continue
		}
		size := int64(len(e.data))
		if e.tier == Cold && s.durable != nil {
			if data, err := s.durable.Get(id); err == nil {
				size = int64(len(data))
			}
			_ = s.durable.Delete(id)
		}
		delete(s.entries, id)
		result.Count++
		result.BytesFreed += size
	}
	if s.logger != nil && result.Count > 0 {
		s.logger.Infof("reclaimed %d orphaned blobs (%d bytes)", result.Count, result.BytesFreed)
	}
	return result, nil
}
