package cvs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo, safe for concurrent use.
// It applies the same filtering and ordering rules as PGRepo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	seq    uint64
	data   map[int64]memoryRecord
	now    func() time.Time
}

type memoryRecord struct {
	cv  CVAggregate
	seq uint64 // write order, breaks UpdatedAt ties
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[int64]memoryRecord),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a filtered copy of cv under a new id.
func (r *MemoryRepo) Create(ctx context.Context, cv CVAggregate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storageError("create", err)
	}
	stored := cloneAggregate(FilterAggregate(cv))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.seq++
	now := r.now()
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.data[stored.ID] = memoryRecord{cv: stored, seq: r.seq}
	return stored.ID, nil
}

// Replace overwrites everything but the id and creation time.
func (r *MemoryRepo) Replace(ctx context.Context, id int64, cv CVAggregate) error {
	if err := ctx.Err(); err != nil {
		return storageError("replace", err)
	}
	stored := cloneAggregate(FilterAggregate(cv))

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	r.seq++
	stored.ID = id
	stored.CreatedAt = existing.cv.CreatedAt
	stored.UpdatedAt = r.now()
	r.data[id] = memoryRecord{cv: stored, seq: r.seq}
	return nil
}

// Fetch returns a copy of the stored aggregate.
func (r *MemoryRepo) Fetch(ctx context.Context, id int64) (CVAggregate, error) {
	if err := ctx.Err(); err != nil {
		return CVAggregate{}, storageError("fetch", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[id]
	if !ok {
		return CVAggregate{}, ErrNotFound
	}
	return cloneAggregate(rec.cv), nil
}

// ListSummaries returns summaries, most recently updated first.
func (r *MemoryRepo) ListSummaries(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError("list", err)
	}
	r.mu.RLock()
	records := make([]memoryRecord, 0, len(r.data))
	for _, rec := range r.data {
		records = append(records, rec)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.cv.UpdatedAt.Equal(b.cv.UpdatedAt) {
			return a.cv.UpdatedAt.After(b.cv.UpdatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]Summary, 0, len(records))
	for _, rec := range records {
		out = append(out, Summary{
			ID:        rec.cv.ID,
			FullName:  rec.cv.Personal.FullName,
			Title:     rec.cv.Personal.Title,
			Email:     rec.cv.Personal.Email,
			CreatedAt: rec.cv.CreatedAt,
			UpdatedAt: rec.cv.UpdatedAt,
		})
	}
	return out, nil
}

// Delete removes id if present.
func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return storageError("delete", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

func cloneAggregate(cv CVAggregate) CVAggregate {
	out := cv
	out.Skills = append([]string{}, cv.Skills...)
	out.Experiences = append([]Experience{}, cv.Experiences...)
	out.Education = append([]Education{}, cv.Education...)
	out.References = append([]string{}, cv.References...)
	return out
}

var _ Repo = (*MemoryRepo)(nil)
