package room

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"pigwarserver/internal/apperr"
	"pigwarserver/internal/history"
)

// MaxRooms bounds the registry (spec.md §4.3).
const MaxRooms = 1000

const (
	reapInterval   = 180 * time.Second
	idleThreshold  = 300 * time.Second
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLen        = 4
	codeGenRetries = 64
)

// Registry is the process-wide table of live rooms, keyed by numeric id
// with a secondary unique-code index. Grounded on
// apps/server/internal/lobby/lobby.go's tables map + cleanupLoop.
type Registry struct {
	mu      sync.Mutex
	byID    map[uint32]*Room
	byCode  map[string]*Room
	freeIDs []uint32
	nextID  uint32

	rng *rand.Rand

	send Sender
	hist history.Service

	done     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates an empty registry and starts its idle reaper. hist
// may be nil, meaning finished matches are not recorded.
func NewRegistry(send Sender, hist history.Service) *Registry {
	reg := &Registry{
		byID:   make(map[uint32]*Room),
		byCode: make(map[string]*Room),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		send:   send,
		hist:   hist,
		done:   make(chan struct{}),
	}
	go reg.reapLoop()
	return reg
}

// allocID pops from the free-list if non-empty, else increments a
// monotonic counter starting at 1.
func (reg *Registry) allocID() uint32 {
	if n := len(reg.freeIDs); n > 0 {
		id := reg.freeIDs[n-1]
		reg.freeIDs = reg.freeIDs[:n-1]
		return id
	}
	reg.nextID++
	return reg.nextID
}

func (reg *Registry) releaseID(id uint32) {
	reg.freeIDs = append(reg.freeIDs, id)
}

// genCode produces a 4-uppercase-letter code with no collision among
// currently live codes. Caller must hold reg.mu.
func (reg *Registry) genCode() (string, error) {
	for i := 0; i < codeGenRetries; i++ {
		b := make([]byte, codeLen)
		for j := range b {
			b[j] = codeAlphabet[reg.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, taken := reg.byCode[code]; !taken {
			return code, nil
		}
	}
	return "", apperr.UserFacing("could not allocate a room code, try again")
}

// CreateRoom allocates a new room and seats no one yet. Returns
// apperr.ErrCapacity if the registry is at MaxRooms.
func (reg *Registry) CreateRoom(singlePlayer, ignoreTurns, immediateStart bool) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if len(reg.byID) >= MaxRooms {
		return nil, apperr.ErrCapacity
	}
	code, err := reg.genCode()
	if err != nil {
		return nil, err
	}
	id := reg.allocID()
	r := newRoom(id, code, reg.send, reg.hist, singlePlayer, ignoreTurns, immediateStart)
	reg.byID[id] = r
	reg.byCode[code] = r
	log.Printf("[Registry] room created: id=%d code=%s live=%d", id, code, len(reg.byID))
	return r, nil
}

// Lookup finds a room by id.
func (reg *Registry) Lookup(id uint32) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.byID[id]
}

// LookupByCode finds a room by its join code (map lookup).
func (reg *Registry) LookupByCode(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.byCode[code]
}

// Remove drops a room from the registry and returns its id to the
// free-list.
func (reg *Registry) Remove(id uint32) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.byID[id]
	if !ok {
		return
	}
	delete(reg.byID, id)
	delete(reg.byCode, r.Code())
	reg.releaseID(id)
}

// Count returns the number of currently live rooms.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.byID)
}

func (reg *Registry) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reg.reapOnce()
		case <-reg.done:
			return
		}
	}
}

// reapOnce removes every room idle beyond idleThreshold that is not in
// active, unended Play (spec.md §4.3), notifying seated clients first.
func (reg *Registry) reapOnce() {
	cutoff := time.Now().Add(-idleThreshold)

	reg.mu.Lock()
	var victims []*Room
	for id, r := range reg.byID {
		if r.IsIdleSince(cutoff) {
			victims = append(victims, r)
			delete(reg.byID, id)
			delete(reg.byCode, r.Code())
			reg.releaseID(id)
		}
	}
	reg.mu.Unlock()

	for _, r := range victims {
		r.kickAllIdle(reg.send)
	}
	log.Printf("[Registry] idle reaper pruned %d room(s), %d live", len(victims), reg.Count())
}

// Close stops the reaper loop. It does not touch live rooms' timers;
// those are each room's own responsibility to cancel on disconnect.
func (reg *Registry) Close() {
	reg.stopOnce.Do(func() {
		close(reg.done)
	})
}
