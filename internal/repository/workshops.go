package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
)

// Retry pacing for lost conditional writes.
const (
	retryInitialInterval = time.Millisecond
	retryMaxInterval     = 50 * time.Millisecond
)

// ErrUnchanged may be returned by an update mutation to signal that the
// record needs no write. Update then returns the current record.
var ErrUnchanged = errors.New("no change")

// WorkshopRepository persists workshops in the single table.
type WorkshopRepository struct {
	table Table
}

// NewWorkshopRepository constructs a WorkshopRepository.
func NewWorkshopRepository(table Table) *WorkshopRepository {
	return &WorkshopRepository{table: table}
}

func workshopItem(w *model.Workshop) (Item, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return Item{}, fmt.Errorf("encode workshop: %w", err)
	}
	return Item{
		PK:      index.WorkshopKey(w.ID),
		SK:      index.SortKeyMarker,
		Indexes: index.ForWorkshop(*w),
		Data:    data,
	}, nil
}

func decodeWorkshop(it Item) (*model.Workshop, error) {
	var w model.Workshop
	if err := json.Unmarshal(it.Data, &w); err != nil {
		return nil, fmt.Errorf("decode workshop %s: %w", it.PK, err)
	}
	w.ID = index.IDFromKey(it.PK)
	return &w, nil
}

// Create writes a new workshop with its index entries.
func (r *WorkshopRepository) Create(ctx context.Context, w *model.Workshop) error {
	it, err := workshopItem(w)
	if err != nil {
		return err
	}
	if _, err := r.table.Put(ctx, it); err != nil {
		return fmt.Errorf("create workshop: %w", err)
	}
	return nil
}

// GetByID returns a workshop or model.ErrNotFound.
func (r *WorkshopRepository) GetByID(ctx context.Context, id string) (*model.Workshop, error) {
	w, _, err := r.get(ctx, id)
	return w, err
}

func (r *WorkshopRepository) get(ctx context.Context, id string) (*model.Workshop, int64, error) {
	it, err := r.table.Get(ctx, index.WorkshopKey(id), index.SortKeyMarker)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, 0, model.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get workshop: %w", err)
	}
	w, err := decodeWorkshop(it)
	if err != nil {
		return nil, 0, err
	}
	return w, it.Version, nil
}

// Update applies mutate to the current workshop and writes the result only
// if nobody else wrote the record in between.
//
// The mutation runs against a freshly read record on every attempt, so any
// check it makes (capacity, uniqueness, capacity-vs-count) is evaluated
// against exactly the state the conditional write is guarded on. Errors from
// mutate are returned as-is and are never retried. A lost conditional write
// means another writer committed, so the loop keeps retrying with jittered
// exponential backoff for as long as the mutation still accepts; it returns
// model.ErrConflict only once ctx is done. Index attributes are re-derived
// from the mutated record and written in the same conditional write as the
// primary fields.
func (r *WorkshopRepository) Update(ctx context.Context, id string, mutate func(*model.Workshop) error) (*model.Workshop, error) {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     retryInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          2,
		MaxInterval:         retryMaxInterval,
	}
	b.Reset()

	contended := false
	for {
		w, version, err := r.get(ctx, id)
		if err != nil {
			if contended && ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", model.ErrConflict, ctx.Err())
			}
			return nil, err
		}
		if err := mutate(w); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return w, nil
			}
			return nil, err
		}
		w.ID = id

		it, err := workshopItem(w)
		if err != nil {
			return nil, err
		}
		_, err = r.table.Replace(ctx, it, version)
		switch {
		case err == nil:
			return w, nil
		case errors.Is(err, ErrNotFound):
			return nil, model.ErrNotFound
		case !errors.Is(err, ErrVersionMismatch):
			if contended && ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", model.ErrConflict, ctx.Err())
			}
			return nil, fmt.Errorf("update workshop: %w", err)
		}
		contended = true

		timer := time.NewTimer(b.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", model.ErrConflict, ctx.Err())
		case <-timer.C:
		}
	}
}

// Delete removes a workshop together with its embedded registrations and
// index entries.
func (r *WorkshopRepository) Delete(ctx context.Context, id string) error {
	if err := r.table.Delete(ctx, index.WorkshopKey(id), index.SortKeyMarker); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("delete workshop: %w", err)
	}
	return nil
}

// List returns workshops from one partition ordered by date then time.
func (r *WorkshopRepository) List(ctx context.Context, q Query) ([]model.Workshop, error) {
	items, err := r.table.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list workshops: %w", err)
	}
	out := make([]model.Workshop, 0, len(items))
	for _, it := range items {
		w, err := decodeWorkshop(it)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, nil
}

// ListAll returns every live workshop ordered by date then time.
func (r *WorkshopRepository) ListAll(ctx context.Context) ([]model.Workshop, error) {
	return r.List(ctx, Query{Index: index.ByDate, Partition: index.AllWorkshops})
}

// Count returns the number of live workshops.
func (r *WorkshopRepository) Count(ctx context.Context) (int, error) {
	n, err := r.table.Count(ctx, index.ByDate, index.AllWorkshops)
	if err != nil {
		return 0, fmt.Errorf("count workshops: %w", err)
	}
	return n, nil
}
