package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/notify"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
	maxCapacity      = 100_000
)

// WorkshopService handles workshop administration and listing.
type WorkshopService struct {
	workshops *repository.WorkshopRepository
	events    EventSink
	logger    *slog.Logger
}

// NewWorkshopService constructs a WorkshopService.
func NewWorkshopService(workshops *repository.WorkshopRepository, events EventSink, logger *slog.Logger) *WorkshopService {
	if events == nil {
		events = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkshopService{workshops: workshops, events: events, logger: logger}
}

// Create validates the request and stores a new workshop with no
// registrations.
func (s *WorkshopService) Create(ctx context.Context, caller model.Caller, req model.CreateWorkshopRequest) (w *model.Workshop, err error) {
	if err := caller.Admin(); err != nil {
		return nil, err
	}
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "WorkshopService.Create")
	defer func() { endSpan(span, err) }()

	w = &model.Workshop{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Description:   req.Description,
		Date:          req.Date,
		Time:          req.Time,
		Location:      req.Location,
		Category:      req.Category,
		Type:          req.Type,
		Instructor:    req.Instructor,
		Capacity:      req.Capacity,
		Registrations: []model.Registration{},
		CreatedAt:     time.Now().UTC(),
	}
	if req.Rating != nil {
		w.Rating = *req.Rating
	}
	span.SetAttributes(attribute.String("workshop.id", w.ID))

	if err = s.workshops.Create(ctx, w); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "workshop created", "workshop_id", w.ID, "category", w.Category, "capacity", w.Capacity)

	s.events.Emit(ctx, notify.Event{
		Source: notify.SourceWorkshops,
		Type:   notify.WorkshopCreated,
		Detail: notify.WorkshopCreatedDetail{
			WorkshopID: w.ID,
			Name:       w.Name,
			Date:       w.Date,
			Category:   w.Category,
		},
	})
	return w, nil
}

// Get returns a single workshop.
func (s *WorkshopService) Get(ctx context.Context, id string) (*model.Workshop, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.NewValidationError("workshop id is required")
	}
	return s.workshops.GetByID(ctx, id)
}

// List returns workshops ordered by date and time. The store is asked for
// one partition page; text, category and date filters run over that page.
// Store failures are logged and yield an empty list.
func (s *WorkshopService) List(ctx context.Context, f model.ListWorkshopsFilter) []model.Workshop {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	q := repository.Query{Index: index.ByDate, Partition: index.AllWorkshops, Limit: limit}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = repository.Query{Index: index.ByCategory, Partition: index.CategoryPartition(c), Limit: limit}
	}

	page, err := s.workshops.List(ctx, q)
	if err != nil {
		s.logger.ErrorContext(ctx, "list workshops failed", "error", err)
		return []model.Workshop{}
	}
	return filterWorkshops(page, f)
}

func filterWorkshops(page []model.Workshop, f model.ListWorkshopsFilter) []model.Workshop {
	category := strings.TrimSpace(f.Category)
	from := strings.TrimSpace(f.DateFrom)
	to := strings.TrimSpace(f.DateTo)
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]model.Workshop, 0, len(page))
	for _, w := range page {
		if category != "" && w.Category != category {
			continue
		}
		if from != "" && w.Date < from {
			continue
		}
		if to != "" && w.Date > to {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(w.Name), q) &&
			!strings.Contains(strings.ToLower(w.Description), q) &&
			!strings.Contains(strings.ToLower(w.Location), q) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Update applies the provided fields. A new capacity below the current
// registration count is rejected against the same record version the write
// is conditioned on.
func (s *WorkshopService) Update(ctx context.Context, caller model.Caller, id string, req model.UpdateWorkshopRequest) (w *model.Workshop, err error) {
	if err := caller.Admin(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.NewValidationError("workshop id is required")
	}
	if err := validateUpdate(&req); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "WorkshopService.Update", trace.WithAttributes(attribute.String("workshop.id", id)))
	defer func() { endSpan(span, err) }()

	w, err = s.workshops.Update(ctx, id, func(w *model.Workshop) error {
		if req.Capacity != nil && *req.Capacity < len(w.Registrations) {
			return model.NewValidationError("capacity cannot be lower than current registrations", "cupo")
		}
		// A rescheduled workshop is owed a fresh reminder.
		if (req.Date != nil && *req.Date != w.Date) || (req.Time != nil && *req.Time != w.Time) {
			w.ReminderSent = false
		}
		applyUpdate(w, req)
		now := time.Now().UTC()
		w.UpdatedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "workshop updated", "workshop_id", id)
	return w, nil
}

func applyUpdate(w *model.Workshop, req model.UpdateWorkshopRequest) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&w.Name, req.Name)
	set(&w.Description, req.Description)
	set(&w.Date, req.Date)
	set(&w.Time, req.Time)
	set(&w.Location, req.Location)
	set(&w.Category, req.Category)
	set(&w.Type, req.Type)
	set(&w.Instructor, req.Instructor)
	if req.Rating != nil {
		w.Rating = *req.Rating
	}
	if req.Capacity != nil {
		w.Capacity = *req.Capacity
	}
}

// Delete removes a workshop and, with it, all embedded registrations.
func (s *WorkshopService) Delete(ctx context.Context, caller model.Caller, id string) (err error) {
	if err := caller.Admin(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return model.NewValidationError("workshop id is required")
	}

	ctx, span := tracer.Start(ctx, "WorkshopService.Delete", trace.WithAttributes(attribute.String("workshop.id", id)))
	defer func() { endSpan(span, err) }()

	if err = s.workshops.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "workshop deleted", "workshop_id", id)
	return nil
}
