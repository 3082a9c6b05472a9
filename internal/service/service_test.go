package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/notify"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
)

var (
	admin = model.Caller{ID: "admin-1", Name: "Root", Email: "root@skillsforge.dev", Role: model.RoleAdmin}
)

func student(id string) model.Caller {
	return model.Caller{ID: id, Name: "Student " + id, Email: id + "@skillsforge.dev", Role: model.RoleStudent}
}

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Emit(_ context.Context, evt notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) ofType(typ string) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	workshopRepo  *repository.WorkshopRepository
	userRepo      *repository.UserRepository
	workshops     *WorkshopService
	registrations *RegistrationService
	students      *StudentService
	stats         *StatsService
	reminders     *ReminderService
	events        *recorder
}

func newFixture() *fixture {
	return newFixtureOn(repository.NewMemoryTable())
}

// newFixtureOn wires every service over table.
func newFixtureOn(table repository.Table) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wr := repository.NewWorkshopRepository(table)
	ur := repository.NewUserRepository(table)
	rec := &recorder{}
	return &fixture{
		workshopRepo:  wr,
		userRepo:      ur,
		workshops:     NewWorkshopService(wr, rec, logger),
		registrations: NewRegistrationService(wr, rec, logger),
		students:      NewStudentService(ur, wr, logger),
		stats:         NewStatsService(wr, ur, 0, logger),
		reminders:     NewReminderService(wr, rec, logger),
		events:        rec,
	}
}

func validRequest() model.CreateWorkshopRequest {
	return model.CreateWorkshopRequest{
		Name:        "Intro to Go",
		Description: "Concurrency and the standard library",
		Date:        "2025-06-01",
		Time:        "10:00",
		Location:    "Room 101",
		Category:    "backend",
		Type:        "presencial",
		Instructor:  "Ada",
		Capacity:    5,
	}
}

func (f *fixture) createWorkshop(t *testing.T, mutate func(*model.CreateWorkshopRequest)) *model.Workshop {
	t.Helper()
	req := validRequest()
	if mutate != nil {
		mutate(&req)
	}
	w, err := f.workshops.Create(context.Background(), admin, req)
	require.NoError(t, err)
	return w
}
