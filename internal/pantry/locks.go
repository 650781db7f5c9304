package pantry

import (
	"context"
	"sort"
	"sync"
)

type recordKey struct {
	userID       uint
	ingredientID uint
}

// recordLocks serializes read-then-write sequences on a single inventory
// record within this process. Each key is a one-slot channel so waiters can
// give up when their context ends. Entries are never evicted; the key space
// is bounded by users times ingredients.
type recordLocks struct {
	mu    sync.Mutex
	locks map[recordKey]chan struct{}
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[recordKey]chan struct{})}
}

func (l *recordLocks) get(key recordKey) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.locks[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.locks[key] = slot
	}
	return slot
}

// acquire locks every (user, ingredient) pair in ascending ingredient order
// and returns the matching release function. If ctx ends while waiting, the
// locks taken so far are released and ctx.Err() is returned.
func (l *recordLocks) acquire(ctx context.Context, userID uint, ingredientIDs ...uint) (func(), error) {
	ids := append([]uint(nil), ingredientIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	held := make([]chan struct{}, 0, len(ids))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	var last uint
	for i, id := range ids {
		if i > 0 && id == last {
			continue
		}
		last = id
		if err := ctx.Err(); err != nil {
			release()
			return nil, err
		}
		slot := l.get(recordKey{userID: userID, ingredientID: id})
		select {
		case slot <- struct{}{}:
			held = append(held, slot)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}
