package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
)

// StudentService manages student records and their removal.
type StudentService struct {
	users     *repository.UserRepository
	workshops *repository.WorkshopRepository
	logger    *slog.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(users *repository.UserRepository, workshops *repository.WorkshopRepository, logger *slog.Logger) *StudentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudentService{users: users, workshops: workshops, logger: logger}
}

// EnsureProfile materialises the calling student's record from identity
// claims. An existing record is returned unchanged.
func (s *StudentService) EnsureProfile(ctx context.Context, caller model.Caller) (*model.User, error) {
	student, err := caller.Student()
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, student.ID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	u = &model.User{
		ID:        student.ID,
		Name:      strings.TrimSpace(student.Name),
		Email:     strings.ToLower(strings.TrimSpace(student.Email)),
		Role:      model.RoleStudent,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "student profile created", "student_id", u.ID)
	return u, nil
}

// List returns all students ordered by creation time.
func (s *StudentService) List(ctx context.Context, caller model.Caller) ([]model.User, error) {
	if err := caller.Admin(); err != nil {
		return nil, err
	}
	return s.users.ListStudents(ctx)
}

// Delete removes a student, looked up by id or, failing that, by email,
// and strips their registrations from every workshop. Registrations are
// removed first so a failed run can be repeated.
func (s *StudentService) Delete(ctx context.Context, caller model.Caller, idOrEmail string) (u *model.User, err error) {
	if err := caller.Admin(); err != nil {
		return nil, err
	}
	idOrEmail = strings.TrimSpace(idOrEmail)
	if idOrEmail == "" {
		return nil, model.NewValidationError("student id is required")
	}

	ctx, span := tracer.Start(ctx, "StudentService.Delete", trace.WithAttributes(attribute.String("student.ref", idOrEmail)))
	defer func() { endSpan(span, err) }()

	u, err = s.users.GetByID(ctx, idOrEmail)
	if errors.Is(err, model.ErrNotFound) {
		u, err = s.users.FindStudentByEmail(ctx, idOrEmail)
	}
	if err != nil {
		return nil, err
	}

	removed, err := s.removeRegistrations(ctx, u)
	if err != nil {
		return nil, err
	}
	if err = s.users.Delete(ctx, u.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	s.logger.InfoContext(ctx, "student deleted", "student_id", u.ID, "registrations_removed", removed)
	return u, nil
}

func (s *StudentService) removeRegistrations(ctx context.Context, u *model.User) (int, error) {
	match := func(r model.Registration) bool {
		return r.StudentID == u.ID || (u.Email != "" && strings.EqualFold(r.StudentEmail, u.Email))
	}

	all, err := s.workshops.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, w := range all {
		if !hasRegistration(w, match) {
			continue
		}
		n := 0
		_, err := s.workshops.Update(ctx, w.ID, func(w *model.Workshop) error {
			n = w.WithoutStudent(match)
			if n == 0 {
				return repository.ErrUnchanged
			}
			return nil
		})
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return total, fmt.Errorf("remove registrations from workshop %s: %w", w.ID, err)
		}
		total += n
	}
	return total, nil
}

func hasRegistration(w model.Workshop, match func(model.Registration) bool) bool {
	for _, r := range w.Registrations {
		if match(r) {
			return true
		}
	}
	return false
}
