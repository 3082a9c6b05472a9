package service

import (
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func validateCreate(req *model.CreateWorkshopRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Location = strings.TrimSpace(req.Location)
	req.Category = strings.TrimSpace(req.Category)
	req.Type = strings.TrimSpace(req.Type)
	req.Instructor = strings.TrimSpace(req.Instructor)

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"nombre", req.Name},
		{"descripcion", req.Description},
		{"fecha", req.Date},
		{"hora", req.Time},
		{"lugar", req.Location},
		{"categoria", req.Category},
		{"tipo", req.Type},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if req.Capacity <= 0 {
		missing = append(missing, "cupo")
	}
	if len(missing) > 0 {
		return model.NewValidationError("missing required fields", missing...)
	}

	if err := validateSchedule(&req.Date, &req.Time); err != nil {
		return err
	}
	if req.Capacity > maxCapacity {
		return model.NewValidationError("capacity cannot exceed 100,000", "cupo")
	}
	return validateRating(req.Rating)
}

func validateUpdate(req *model.UpdateWorkshopRequest) error {
	for name, v := range map[string]*string{
		"nombre":      req.Name,
		"descripcion": req.Description,
		"lugar":       req.Location,
		"categoria":   req.Category,
		"tipo":        req.Type,
	} {
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if *v == "" {
			return model.NewValidationError("field cannot be empty", name)
		}
	}
	if err := validateSchedule(req.Date, req.Time); err != nil {
		return err
	}
	if req.Capacity != nil {
		if *req.Capacity < 0 {
			return model.NewValidationError("capacity must be non-negative", "cupo")
		}
		if *req.Capacity > maxCapacity {
			return model.NewValidationError("capacity cannot exceed 100,000", "cupo")
		}
	}
	return validateRating(req.Rating)
}

// validateSchedule checks that date and time are zero-padded ISO values, the
// form the date index relies on for chronological ordering.
func validateSchedule(date, clock *string) error {
	if date != nil {
		*date = strings.TrimSpace(*date)
		if _, err := time.Parse(dateLayout, *date); err != nil {
			return model.NewValidationError("date must be YYYY-MM-DD", "fecha")
		}
	}
	if clock != nil {
		*clock = strings.TrimSpace(*clock)
		if _, err := time.Parse(timeLayout, *clock); err != nil || len(*clock) != len(timeLayout) {
			return model.NewValidationError("time must be HH:MM", "hora")
		}
	}
	return nil
}

func validateRating(r *float64) error {
	if r != nil && (*r < 0 || *r > 5) {
		return model.NewValidationError("rating must be between 0 and 5", "rating")
	}
	return nil
}
