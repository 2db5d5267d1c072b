package service

import (
	"sync"
	"time"

	"github.com/vfscore/vfscore/pkg/identifier"
	"github.com/vfscore/vfscore/pkg/logging"
)

// defaultIdleTimeout is the interval a session may sit untouched before the
// background sweep reclaims it.
const defaultIdleTimeout = 5 * time.Minute

type streamDirection int

const (
	streamRead streamDirection = iota
	streamWrite
)

// session holds the server-side progress of one multi-chunk streaming
// operation, keyed by an opaque identifier.PrefixSession-prefixed id.
type session struct {
	id        string
	direction streamDirection
	path      string

	totalSize   int64
	chunkSize   int64
	totalChunks int

	// data holds the full content for a read session (sliced into chunks on
	// demand) or the chunks received so far for a write session, keyed by
	// chunk index so out-of-order delivery is tolerated.
	data    []byte
	written map[int][]byte

	lastActivity time.Time
}

// sessionRegistry tracks live streaming sessions and expires idle ones.
type sessionRegistry struct {
	mu          sync.Mutex
	sessions    map[string]*session
	idleTimeout time.Duration
	logger      *logging.Logger
}

func newSessionRegistry(logger *logging.Logger) *sessionRegistry {
	return &sessionRegistry{
		sessions:    make(map[string]*session),
		idleTimeout: defaultIdleTimeout,
		logger:      logger,
	}
}

func (r *sessionRegistry) create(direction streamDirection, path string, totalSize, chunkSize int64) (*session, error) {
	id, err := identifier.New(identifier.PrefixSession)
	if err != nil {
		return nil, newError(InvalidData, "failed to allocate session id: "+err.Error())
	}

	totalChunks := 0
	if chunkSize > 0 {
		totalChunks = int((totalSize + chunkSize - 1) / chunkSize)
	}

	s := &session{
		id:           id,
		direction:    direction,
		path:         path,
		totalSize:    totalSize,
		chunkSize:    chunkSize,
		totalChunks:  totalChunks,
		written:      make(map[int][]byte),
		lastActivity: time.Now(),
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debugf("service: opened session %s for %s", id, path)
	}
	return s, nil
}

// get looks up an active, non-expired session, bumping its activity clock.
func (r *sessionRegistry) get(id string) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, newError(InvalidSession, "unknown session "+id)
	}
	if time.Since(s.lastActivity) > r.idleTimeout {
		delete(r.sessions, id)
		return nil, newError(InvalidSession, "session "+id+" expired")
	}
	s.lastActivity = time.Now()
	return s, nil
}

func (r *sessionRegistry) delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// sweep removes every session that has been idle longer than idleTimeout.
// It is driven by the daemon's shared housekeeping ticker, not a goroutine
// of its own.
func (r *sessionRegistry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if time.Since(s.lastActivity) > r.idleTimeout {
			delete(r.sessions, id)
			removed++
			if r.logger != nil {
				r.logger.Debugf("service: reaped idle session %s", s.id)
			}
		}
	}
	return removed
}
