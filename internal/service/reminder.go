package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
	"github.com/Shivanand-hulikatti/skillsforge/internal/notify"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
)

const (
	reminderLead   = 24 * time.Hour
	reminderWindow = 24 * time.Hour
)

// ReminderService notifies registered students of upcoming workshops.
type ReminderService struct {
	workshops *repository.WorkshopRepository
	events    EventSink
	logger    *slog.Logger
}

// NewReminderService constructs a ReminderService.
func NewReminderService(workshops *repository.WorkshopRepository, events EventSink, logger *slog.Logger) *ReminderService {
	if events == nil {
		events = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderService{workshops: workshops, events: events, logger: logger}
}

// SendDue emits a reminder for every workshop starting between 24 and 48
// hours after now that has registrations and has not been reminded yet.
// Each workshop is claimed with a conditional write before its event is
// emitted, so concurrent runs never remind twice. It returns the number of
// reminders sent.
func (s *ReminderService) SendDue(ctx context.Context, now time.Time) (int, error) {
	start := now.Add(reminderLead)
	end := start.Add(reminderWindow)
	due, err := s.workshops.List(ctx, repository.Query{
		Index:     index.ByDate,
		Partition: index.AllWorkshops,
		Range: repository.SortRange{
			From: index.DateSortKey(start.Format(dateLayout), start.Format(timeLayout)),
			To:   index.DateSortKey(end.Format(dateLayout), end.Format(timeLayout)),
		},
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, w := range due {
		if w.ReminderSent || len(w.Registrations) == 0 {
			continue
		}
		claimed := false
		updated, err := s.workshops.Update(ctx, w.ID, func(w *model.Workshop) error {
			claimed = false
			if w.ReminderSent || len(w.Registrations) == 0 {
				return repository.ErrUnchanged
			}
			w.ReminderSent = true
			claimed = true
			return nil
		})
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.WarnContext(ctx, "reminder claim failed", "workshop_id", w.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		s.events.Emit(ctx, notify.Event{
			Source: notify.SourceReminders,
			Type:   notify.WorkshopReminder,
			Detail: notify.WorkshopReminderDetail{
				WorkshopID: updated.ID,
				Name:       updated.Name,
				Date:       updated.Date,
				Time:       updated.Time,
				Location:   updated.Location,
				Students:   updated.Registrations,
			},
		})
		s.logger.InfoContext(ctx, "reminder sent", "workshop_id", updated.ID, "students", len(updated.Registrations))
		sent++
	}
	return sent, nil
}
