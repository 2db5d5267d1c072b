package blob

import "github.com/dustin/go-humanize"

// TierStats reports the blob count and total stored (physical) size of one
// tier.
type TierStats struct {
	Count int
	Size  int64
}

// Stats summarizes the store's overall state, including deduplication
// effectiveness: logical size is the sum of every binding's content size
// had it not been deduplicated; physical size is the sum of bytes actually
// stored (one copy per distinct digest).
type Stats struct {
	Hot, Warm, Cold TierStats

	LogicalSize  int64
	PhysicalSize int64
	DedupRatio   float64
	BytesSaved   int64

	// HumanPhysicalSize and HumanBytesSaved render PhysicalSize and
	// BytesSaved as human-readable byte counts (e.g. "1.2 MB"), mirroring
	// how dupedog reports reclaimed space.
	HumanPhysicalSize string
	HumanBytesSaved   string
}

// Stats computes a snapshot of the store's current state.
func (s *Store) Stats() Stats {
	s.lock()
	defer s.unlock()

	var result Stats
	for id, e := range s.entries {
		size := int64(len(e.data))
		if e.tier == Cold && s.durable != nil && e.data == nil {
			if data, err := s.durable.Get(id); err == nil {
				size = int64(len(data))
			}
		}

		switch e.tier {
		case Hot:
			result.Hot.Count++
			result.Hot.Size += size
		case Warm:
			result.Warm.Count++
			result.Warm.Size += size
		case Cold:
			result.Cold.Count++
			result.Cold.Size += size
		}

		result.PhysicalSize += size
		result.LogicalSize += size * int64(e.refCount)
	}

	result.BytesSaved = result.LogicalSize - result.PhysicalSize
	if result.LogicalSize > 0 {
		result.DedupRatio = float64(result.LogicalSize) / float64(result.PhysicalSize)
	}
	result.HumanPhysicalSize = humanize.Bytes(uint64(result.PhysicalSize))
	result.HumanBytesSaved = humanize.Bytes(uint64(maxInt64(result.BytesSaved, 0)))

	return result
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
