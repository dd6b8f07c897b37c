package sync

import (
	"encoding/json"
	"fmt"
	"time"
)

// queueKey builds the identity key shared by both dedup-by-key queues.
func queueKey(romID int64, filename string) string {
	return fmt.Sprintf("%d/%s", romID, filename)
}

// ConflictQueue holds pending conflicts keyed by {rom_id, filename} while
// preserving insertion order. It marshals to and from a plain JSON array so
// the persisted state file stays a flat document.
type ConflictQueue struct {
	order []string
	byKey map[string]Conflict
}

// NewConflictQueue returns an empty queue.
func NewConflictQueue() *ConflictQueue {
	return &ConflictQueue{byKey: make(map[string]Conflict)}
}

// Add inserts or replaces the conflict for its identity key. Replacing
// keeps the original queue position so user-facing ordering is stable.
func (q *ConflictQueue) Add(c Conflict) {
	key := queueKey(c.RomID, c.Filename)

	if _, ok := q.byKey[key]; !ok {
		q.order = append(q.order, key)
	}

	q.byKey[key] = c
}

// Get returns the conflict for the key, if present.
func (q *ConflictQueue) Get(romID int64, filename string) (Conflict, bool) {
	c, ok := q.byKey[queueKey(romID, filename)]
	return c, ok
}

// Remove deletes the conflict for the key, reporting whether it existed.
func (q *ConflictQueue) Remove(romID int64, filename string) bool {
	key := queueKey(romID, filename)
	if _, ok := q.byKey[key]; !ok {
		return false
	}

	delete(q.byKey, key)

	for i, k := range q.order {
		if k == key {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}

	return true
}

// Len returns the number of queued conflicts.
func (q *ConflictQueue) Len() int {
	return len(q.byKey)
}

// Items returns the conflicts in insertion order.
func (q *ConflictQueue) Items() []Conflict {
	out := make([]Conflict, 0, len(q.order))
	for _, key := range q.order {
		out = append(out, q.byKey[key])
	}

	return out
}

// MarshalJSON emits the ordered view as a JSON array.
func (q *ConflictQueue) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Items())
}

// UnmarshalJSON rebuilds the keyed map from a JSON array, deduplicating by
// identity key (last occurrence wins, first position kept).
func (q *ConflictQueue) UnmarshalJSON(data []byte) error {
	var items []Conflict
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	q.order = nil
	q.byKey = make(map[string]Conflict, len(items))

	for _, c := range items {
		q.Add(c)
	}

	return nil
}

// OfflineQueue holds failed sync operations keyed by {rom_id, filename}
// with insertion order preserved, exactly like ConflictQueue, but its Add
// carries the insert-or-update retry semantics.
type OfflineQueue struct {
	order []string
	byKey map[string]QueuedFailure

	// nowFunc stamps QueuedAt; injectable for tests.
	nowFunc func() time.Time
}

// NewOfflineQueue returns an empty queue.
func NewOfflineQueue() *OfflineQueue {
	return &OfflineQueue{byKey: make(map[string]QueuedFailure), nowFunc: time.Now}
}

// Add records a failure. An existing key keeps its position, takes the
// latest error text, and increments its retry count; a new key inserts
// with retry_count = 1.
func (q *OfflineQueue) Add(romID int64, filename string, direction Direction, errMsg string) {
	if q.nowFunc == nil {
		q.nowFunc = time.Now
	}

	key := queueKey(romID, filename)

	if existing, ok := q.byKey[key]; ok {
		existing.Direction = direction
		existing.Error = errMsg
		existing.RetryCount++
		existing.QueuedAt = q.nowFunc().UTC()
		q.byKey[key] = existing

		return
	}

	q.order = append(q.order, key)
	q.byKey[key] = QueuedFailure{
		RomID:      romID,
		Filename:   filename,
		Direction:  direction,
		Error:      errMsg,
		RetryCount: 1,
		QueuedAt:   q.nowFunc().UTC(),
	}
}

// Get returns the queued failure for the key, if present.
func (q *OfflineQueue) Get(romID int64, filename string) (QueuedFailure, bool) {
	f, ok := q.byKey[queueKey(romID, filename)]
	return f, ok
}

// Remove deletes the entry for the key, reporting whether it existed.
func (q *OfflineQueue) Remove(romID int64, filename string) bool {
	key := queueKey(romID, filename)
	if _, ok := q.byKey[key]; !ok {
		return false
	}

	delete(q.byKey, key)

	for i, k := range q.order {
		if k == key {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}

	return true
}

// Clear drops every queued failure.
func (q *OfflineQueue) Clear() {
	q.order = nil
	q.byKey = make(map[string]QueuedFailure)
}

// Len returns the number of queued failures.
func (q *OfflineQueue) Len() int {
	return len(q.byKey)
}

// Items returns the failures in insertion order.
func (q *OfflineQueue) Items() []QueuedFailure {
	out := make([]QueuedFailure, 0, len(q.order))
	for _, key := range q.order {
		out = append(out, q.byKey[key])
	}

	return out
}

// MarshalJSON emits the ordered view as a JSON array.
func (q *OfflineQueue) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Items())
}

// UnmarshalJSON rebuilds the keyed map from a JSON array.
func (q *OfflineQueue) UnmarshalJSON(data []byte) error {
	var items []QueuedFailure
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}

	q.order = nil
	q.byKey = make(map[string]QueuedFailure, len(items))
	q.nowFunc = time.Now

	for _, f := range items {
		key := queueKey(f.RomID, f.Filename)
		if _, ok := q.byKey[key]; !ok {
			q.order = append(q.order, key)
		}

		q.byKey[key] = f
	}

	return nil
}
