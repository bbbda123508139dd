package guard

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	status    string
	claimedAt time.Time
}

// MemoryGuard is a process-local guard, used for dry runs and tests.
type MemoryGuard struct {
	mutex   sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

// WithClock replaces the time source used for claim timestamps.
func (g *MemoryGuard) WithClock(now func() time.Time) *MemoryGuard {
	g.now = now
	return g
}

func memoryKey(subjectID, triggerKey string) string {
	return subjectID + "||" + triggerKey
}

func (g *MemoryGuard) TryClaim(_ context.Context, subjectID, triggerKey string) (bool, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	key := memoryKey(subjectID, triggerKey)
	if _, ok := g.records[key]; ok {
		return false, nil
	}
	g.records[key] = memoryRecord{status: StatusPending, claimedAt: g.now()}
	return true, nil
}

func (g *MemoryGuard) MarkSent(_ context.Context, subjectID, triggerKey string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	key := memoryKey(subjectID, triggerKey)
	rec, ok := g.records[key]
	if !ok || rec.status != StatusPending {
		return ErrClaimNotHeld
	}
	rec.status = StatusSent
	g.records[key] = rec
	return nil
}

func (g *MemoryGuard) Release(_ context.Context, subjectID, triggerKey string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	key := memoryKey(subjectID, triggerKey)
	rec, ok := g.records[key]
	if !ok || rec.status != StatusPending {
		return ErrClaimNotHeld
	}
	delete(g.records, key)
	return nil
}

func (g *MemoryGuard) ReconcileStale(_ context.Context, olderThan time.Duration) (int64, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	cutoff := g.now().Add(-olderThan)
	var removed int64
	for key, rec := range g.records {
		if rec.status == StatusPending && rec.claimedAt.Before(cutoff) {
			delete(g.records, key)
			removed++
		}
	}
	return removed, nil
}

func (g *MemoryGuard) Sent(_ context.Context, subjectID, triggerKey string) (bool, error) {
	return g.Status(subjectID, triggerKey) == StatusSent, nil
}

// Status returns the status of a claim, or "" when there is none.
func (g *MemoryGuard) Status(subjectID, triggerKey string) string {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.records[memoryKey(subjectID, triggerKey)].status
}
