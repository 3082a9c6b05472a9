package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/notify"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
)

// RegistrationService coordinates students joining and leaving workshops.
type RegistrationService struct {
	workshops *repository.WorkshopRepository
	events    EventSink
	logger    *slog.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(workshops *repository.WorkshopRepository, events EventSink, logger *slog.Logger) *RegistrationService {
	if events == nil {
		events = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{workshops: workshops, events: events, logger: logger}
}

// Register claims one seat for the calling student.
//
// The capacity and duplicate checks run inside the conditional update, so
// they always see the exact record version the write is guarded on. Two
// concurrent calls that read the same version cannot both commit; the loser
// re-reads and re-checks, and fails with ErrCapacityExceeded or
// ErrAlreadyRegistered if the winner consumed the last seat or was itself.
func (s *RegistrationService) Register(ctx context.Context, caller model.Caller, workshopID string) (w *model.Workshop, err error) {
	student, err := caller.Student()
	if err != nil {
		return nil, err
	}
	workshopID = strings.TrimSpace(workshopID)
	if workshopID == "" {
		return nil, model.NewValidationError("workshop id is required")
	}

	ctx, span := tracer.Start(ctx, "RegistrationService.Register", trace.WithAttributes(
		attribute.String("workshop.id", workshopID),
		attribute.String("student.id", student.ID),
	))
	defer func() { endSpan(span, err) }()

	var reg model.Registration
	w, err = s.workshops.Update(ctx, workshopID, func(w *model.Workshop) error {
		if w.IsFull() {
			return model.ErrCapacityExceeded
		}
		if _, ok := w.RegistrationFor(student.ID); ok {
			return model.ErrAlreadyRegistered
		}
		reg = model.Registration{
			StudentID:    student.ID,
			StudentName:  student.Name,
			StudentEmail: student.Email,
			RegisteredAt: time.Now().UTC(),
		}
		w.Registrations = append(w.Registrations, reg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "student registered",
		"workshop_id", workshopID, "student_id", student.ID, "registrations", len(w.Registrations), "capacity", w.Capacity)

	s.events.Emit(ctx, notify.Event{
		Source: notify.SourceRegistrations,
		Type:   notify.StudentRegistered,
		Detail: notify.StudentRegisteredDetail{
			WorkshopID:   workshopID,
			WorkshopName: w.Name,
			StudentID:    student.ID,
			StudentName:  student.Name,
			StudentEmail: student.Email,
			RegisteredAt: reg.RegisteredAt.Format(time.RFC3339Nano),
		},
	})
	return w, nil
}

// Unregister releases the calling student's seat. The entry is removed by
// student id on the freshly read record, never by position.
func (s *RegistrationService) Unregister(ctx context.Context, caller model.Caller, workshopID string) (w *model.Workshop, err error) {
	student, err := caller.Student()
	if err != nil {
		return nil, err
	}
	workshopID = strings.TrimSpace(workshopID)
	if workshopID == "" {
		return nil, model.NewValidationError("workshop id is required")
	}

	ctx, span := tracer.Start(ctx, "RegistrationService.Unregister", trace.WithAttributes(
		attribute.String("workshop.id", workshopID),
		attribute.String("student.id", student.ID),
	))
	defer func() { endSpan(span, err) }()

	w, err = s.workshops.Update(ctx, workshopID, func(w *model.Workshop) error {
		removed := w.WithoutStudent(func(r model.Registration) bool {
			return r.StudentID == student.ID
		})
		if removed == 0 {
			return model.ErrRegistrationNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "student unregistered", "workshop_id", workshopID, "student_id", student.ID)
	return w, nil
}

// ListForStudent returns the workshops the calling student is registered
// in, most recent registration first.
func (s *RegistrationService) ListForStudent(ctx context.Context, caller model.Caller) ([]model.MyWorkshop, error) {
	student, err := caller.Student()
	if err != nil {
		return nil, err
	}

	all, err := s.workshops.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	mine := make([]model.MyWorkshop, 0)
	for _, w := range all {
		reg, ok := w.RegistrationFor(student.ID)
		if !ok {
			continue
		}
		mine = append(mine, model.MyWorkshop{
			WorkshopView:   model.NewWorkshopView(w),
			MyRegistration: reg,
		})
	}
	slices.SortStableFunc(mine, func(a, b model.MyWorkshop) int {
		return b.MyRegistration.RegisteredAt.Compare(a.MyRegistration.RegisteredAt)
	})
	return mine, nil
}
