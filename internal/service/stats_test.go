package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
)

func TestStats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.Equal(t, model.Stats{}, f.stats.Stats(ctx), "empty platform")

	a := f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Capacity = 10 })
	f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Capacity = 20 })
	for i := range 5 {
		s := student(fmt.Sprintf("s%d", i))
		_, err := f.students.EnsureProfile(ctx, s)
		require.NoError(t, err)
		_, err = f.registrations.Register(ctx, s, a.ID)
		require.NoError(t, err)
	}

	require.Equal(t, model.Stats{
		Workshops:     2,
		Students:      5,
		Registrations: 5,
		Capacity:      30,
		Occupancy:     17,
	}, f.stats.Stats(ctx))
}

func TestOccupancy(t *testing.T) {
	require.Zero(t, occupancy(0, 0))
	require.Zero(t, occupancy(3, 0))
	require.Equal(t, 17, occupancy(5, 30))
	require.Equal(t, 50, occupancy(1, 2))
	require.Equal(t, 100, occupancy(7, 7))
}

func TestStats_Cached(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table := repository.NewMemoryTable()
	wr := repository.NewWorkshopRepository(table)
	stats := NewStatsService(wr, repository.NewUserRepository(table), time.Minute, logger)
	ctx := context.Background()

	require.Zero(t, stats.Stats(ctx).Workshops)
	require.NoError(t, wr.Create(ctx, &model.Workshop{ID: "w1", Date: "2025-01-01", Time: "10:00", Capacity: 3}))
	require.Zero(t, stats.Stats(ctx).Workshops, "served from cache within the ttl")
}

// failingTable fails every query.
type failingTable struct {
	*repository.MemoryTable
}

func (failingTable) Query(context.Context, repository.Query) ([]repository.Item, error) {
	return nil, errors.New("store unavailable")
}

func (failingTable) Count(context.Context, index.Name, string) (int, error) {
	return 0, errors.New("store unavailable")
}

func TestStats_DegradesToZero(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table := failingTable{repository.NewMemoryTable()}
	wr := repository.NewWorkshopRepository(table)
	stats := NewStatsService(wr, repository.NewUserRepository(table), 0, logger)
	ctx := context.Background()

	require.Equal(t, model.Stats{}, stats.Stats(ctx))

	cats := stats.CategoryBreakdown(ctx)
	require.Len(t, cats, len(Categories))
	for _, c := range cats {
		require.Zero(t, c.Count)
	}

	ws := NewWorkshopService(wr, nil, logger)
	list := ws.List(ctx, model.ListWorkshopsFilter{})
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestCategoryBreakdown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, c := range []string{"backend", "backend", "cloud", "underwater-basket-weaving"} {
		f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Category = c })
	}

	counts := map[string]int{}
	cats := f.stats.CategoryBreakdown(ctx)
	require.Len(t, cats, len(Categories))
	for _, c := range cats {
		counts[c.ID] = c.Count
	}
	require.Equal(t, 2, counts["backend"])
	require.Equal(t, 1, counts["cloud"])
	require.Zero(t, counts["mobile"])
	require.Equal(t, "programming", cats[0].ID, "definitions keep their fixed order")
}

func TestCategoryBucket(t *testing.T) {
	require.Equal(t, "devops", categoryBucket("devops"))
	require.Equal(t, OtherCategory, categoryBucket("astronomy"))
	require.Equal(t, OtherCategory, categoryBucket(""))
}
