package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/notify"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
)

func TestRegister_SeatAccounting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Capacity = 5 })

	for _, id := range []string{"s1", "s2", "s3"} {
		_, err := f.registrations.Register(ctx, student(id), w.ID)
		require.NoError(t, err)
	}

	got, err := f.workshops.Get(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Registrations, 3)
	require.Equal(t, 2, got.Available())

	reg, ok := got.RegistrationFor("s2")
	require.True(t, ok)
	require.Equal(t, "Student s2", reg.StudentName)
	require.Equal(t, "s2@skillsforge.dev", reg.StudentEmail)
	require.False(t, reg.RegisteredAt.IsZero())

	sent := f.events.ofType(notify.StudentRegistered)
	require.Len(t, sent, 3)
	detail, ok := sent[0].Detail.(notify.StudentRegisteredDetail)
	require.True(t, ok)
	require.Equal(t, w.ID, detail.WorkshopID)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.createWorkshop(t, nil)

	_, err := f.registrations.Register(ctx, student("s1"), w.ID)
	require.NoError(t, err)

	_, err = f.registrations.Register(ctx, student("s1"), w.ID)
	require.ErrorIs(t, err, model.ErrAlreadyRegistered)

	got, err := f.workshops.Get(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Registrations, 1)
}

func TestRegister_Full(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Capacity = 1 })

	_, err := f.registrations.Register(ctx, student("s1"), w.ID)
	require.NoError(t, err)
	_, err = f.registrations.Register(ctx, student("s2"), w.ID)
	require.ErrorIs(t, err, model.ErrCapacityExceeded)
}

func TestRegister_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.createWorkshop(t, nil)

	_, err := f.registrations.Register(ctx, admin, w.ID)
	require.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.registrations.Register(ctx, model.Caller{}, w.ID)
	require.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.registrations.Register(ctx, student("s1"), "does-not-exist")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.registrations.Register(ctx, student("s1"), "  ")
	require.True(t, model.IsValidation(err))
}

func TestRegister_ConcurrentNeverOverbooks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	const capacity, contenders = 3, 12
	w := f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Capacity = capacity })

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := make(chan struct{})
	for i := range contenders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.registrations.Register(ctx, student(fmt.Sprintf("s%d", i)), w.ID)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, model.ErrCapacityExceeded)
	}
	require.Equal(t, capacity, ok)

	got, err := f.workshops.Get(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Registrations, capacity)
	require.Zero(t, got.Available())
}

// slowTable delays every conditional write like a remote store would.
type slowTable struct {
	*repository.MemoryTable
	delay time.Duration
}

func (s *slowTable) Replace(ctx context.Context, item repository.Item, expected int64) (int64, error) {
	time.Sleep(s.delay)
	return s.MemoryTable.Replace(ctx, item, expected)
}

func TestRegister_ConcurrentFillsExactlyUnderStoreLatency(t *testing.T) {
	tests := []struct {
		name       string
		capacity   int
		contenders int
		delay      time.Duration
	}{
		{name: "small workshop", capacity: 5, contenders: 15, delay: time.Millisecond},
		{name: "busy workshop", capacity: 20, contenders: 50, delay: time.Millisecond},
		{name: "slow store", capacity: 8, contenders: 24, delay: 3 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixtureOn(&slowTable{MemoryTable: repository.NewMemoryTable(), delay: tt.delay})
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			w := f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Capacity = tt.capacity })

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				errs []error
			)
			start := make(chan struct{})
			for i := range tt.contenders {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := f.registrations.Register(ctx, student(fmt.Sprintf("s%d", i)), w.ID)
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}()
			}
			close(start)
			wg.Wait()

			ok, full := 0, 0
			for _, err := range errs {
				switch {
				case err == nil:
					ok++
				case errors.Is(err, model.ErrCapacityExceeded):
					full++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
			require.Equal(t, tt.capacity, ok)
			require.Equal(t, tt.contenders-tt.capacity, full)

			got, err := f.workshops.Get(context.Background(), w.ID)
			require.NoError(t, err)
			require.Len(t, got.Registrations, tt.capacity)
		})
	}
}

func TestRegister_ConcurrentSameStudentOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.createWorkshop(t, nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.registrations.Register(ctx, student("s1"), w.ID)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, model.ErrAlreadyRegistered)
	}
	require.Equal(t, 1, ok)
	got, err := f.workshops.Get(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Registrations, 1)
}

func TestUnregister(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	w := f.createWorkshop(t, nil)

	for _, id := range []string{"s1", "s2", "s3"} {
		_, err := f.registrations.Register(ctx, student(id), w.ID)
		require.NoError(t, err)
	}

	got, err := f.registrations.Unregister(ctx, student("s2"), w.ID)
	require.NoError(t, err)
	require.Len(t, got.Registrations, 2)
	_, still := got.RegistrationFor("s2")
	require.False(t, still)
	_, kept := got.RegistrationFor("s3")
	require.True(t, kept, "only the caller's entry is removed")

	_, err = f.registrations.Unregister(ctx, student("s2"), w.ID)
	require.ErrorIs(t, err, model.ErrRegistrationNotFound)

	_, err = f.registrations.Unregister(ctx, student("never"), w.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.registrations.Unregister(ctx, student("s1"), "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestListForStudent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first := f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Name = "First" })
	second := f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Name = "Second" })
	f.createWorkshop(t, func(r *model.CreateWorkshopRequest) { r.Name = "Unrelated" })

	_, err := f.registrations.Register(ctx, student("s1"), first.ID)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = f.registrations.Register(ctx, student("s1"), second.ID)
	require.NoError(t, err)
	_, err = f.registrations.Register(ctx, student("s2"), second.ID)
	require.NoError(t, err)

	mine, err := f.registrations.ListForStudent(ctx, student("s1"))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "Second", mine[0].Name, "most recent registration first")
	require.Equal(t, "First", mine[1].Name)
	require.Equal(t, "s1", mine[0].MyRegistration.StudentID)
	require.Equal(t, 3, mine[0].AvailableSeats)

	none, err := f.registrations.ListForStudent(ctx, student("nobody"))
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)

	_, err = f.registrations.ListForStudent(ctx, admin)
	require.ErrorIs(t, err, model.ErrForbidden)
}

// Any interleaving of register and unregister calls keeps the seat list
// unique and within capacity, and each call succeeds exactly when a simple
// set model says it should.
func TestProperty_RegistrationInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture()
		ctx := context.Background()
		capacity := rapid.IntRange(1, 4).Draw(rt, "capacity")
		w, err := f.workshops.Create(ctx, admin, func() model.CreateWorkshopRequest {
			r := validRequest()
			r.Capacity = capacity
			return r
		}())
		require.NoError(rt, err)

		held := map[string]bool{}
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for range steps {
			id := rapid.SampledFrom([]string{"a", "b", "c", "d", "e", "f"}).Draw(rt, "student")
			if rapid.Bool().Draw(rt, "register") {
				_, err := f.registrations.Register(ctx, student(id), w.ID)
				switch {
				case len(held) >= capacity:
					require.ErrorIs(rt, err, model.ErrCapacityExceeded)
				case held[id]:
					require.ErrorIs(rt, err, model.ErrAlreadyRegistered)
				default:
					require.NoError(rt, err)
					held[id] = true
				}
			} else {
				_, err := f.registrations.Unregister(ctx, student(id), w.ID)
				if held[id] {
					require.NoError(rt, err)
					delete(held, id)
				} else {
					require.ErrorIs(rt, err, model.ErrNotFound)
				}
			}

			got, err := f.workshops.Get(ctx, w.ID)
			require.NoError(rt, err)
			require.LessOrEqual(rt, len(got.Registrations), got.Capacity)
			require.Len(rt, got.Registrations, len(held))
			seen := map[string]bool{}
			for _, r := range got.Registrations {
				require.False(rt, seen[r.StudentID], "duplicate seat for %s", r.StudentID)
				seen[r.StudentID] = true
				require.True(rt, held[r.StudentID])
			}
			require.Equal(rt, got.Capacity-len(held), got.Available())
		}
	})
}
