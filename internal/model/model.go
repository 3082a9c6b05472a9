// Package model defines the core domain types for the workshop catalog.
package model

import "time"

// Workshop is a scheduled session with bounded seating.
type Workshop struct {
	ID            string         `json:"_id"`
	Name          string         `json:"nombre"`
	Description   string         `json:"descripcion"`
	Date          string         `json:"fecha"`
	Time          string         `json:"hora"`
	Location      string         `json:"lugar"`
	Category      string         `json:"categoria"`
	Type          string         `json:"tipo"`
	Instructor    string         `json:"instructor"`
	Rating        float64        `json:"rating"`
	Capacity      int            `json:"cupo"`
	Registrations []Registration `json:"inscripciones"`
	ReminderSent  bool           `json:"reminder_sent,omitempty"`
	CreatedAt     time.Time      `json:"creado_en"`
	UpdatedAt     *time.Time     `json:"actualizado_en"`
}

// Available returns the number of free seats. It is derived on every read
// and never persisted.
func (w *Workshop) Available() int {
	return max(w.Capacity-len(w.Registrations), 0)
}

// IsFull reports whether another registration would exceed capacity.
// A non-positive capacity is always full.
func (w *Workshop) IsFull() bool {
	return w.Capacity <= 0 || len(w.Registrations) >= w.Capacity
}

// RegistrationFor returns the entry held by studentID, if any.
func (w *Workshop) RegistrationFor(studentID string) (Registration, bool) {
	for _, r := range w.Registrations {
		if r.StudentID == studentID {
			return r, true
		}
	}
	return Registration{}, false
}

// WithoutStudent drops every entry matching the predicate and reports how
// many were removed. Entries are matched by identity, never by position.
func (w *Workshop) WithoutStudent(match func(Registration) bool) int {
	kept := make([]Registration, 0, len(w.Registrations))
	for _, r := range w.Registrations {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	removed := len(w.Registrations) - len(kept)
	w.Registrations = kept
	return removed
}

// Registration is a student's claim on one seat. It is embedded in the
// workshop and holds a snapshot of the student's name and email.
type Registration struct {
	StudentID    string    `json:"estudiante_id"`
	StudentName  string    `json:"nombre"`
	StudentEmail string    `json:"email"`
	RegisteredAt time.Time `json:"registrado_en"`
}

// User is a platform account as recorded in the catalog store.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"nombre"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"creado_en"`
}

// WorkshopView is the wire representation of a workshop, carrying the
// derived seat count.
type WorkshopView struct {
	Workshop
	AvailableSeats int `json:"cupos_disponibles"`
}

// NewWorkshopView derives the read-side representation.
func NewWorkshopView(w Workshop) WorkshopView {
	if w.Registrations == nil {
		w.Registrations = []Registration{}
	}
	return WorkshopView{Workshop: w, AvailableSeats: w.Available()}
}

// MyWorkshop is a workshop annotated with the caller's own registration.
type MyWorkshop struct {
	WorkshopView
	MyRegistration Registration `json:"mi_inscripcion"`
}

// Stats summarises platform-wide activity.
type Stats struct {
	Workshops     int `json:"talleres"`
	Students      int `json:"estudiantes"`
	Registrations int `json:"registros"`
	Capacity      int `json:"cupos"`
	Occupancy     int `json:"ocupacion"`
}

// Category is a predefined workshop category definition.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Icon        string `json:"icono"`
}

// CategoryCount annotates a category with its live workshop count.
type CategoryCount struct {
	Category
	Count int `json:"cantidad"`
}

// CreateWorkshopRequest is the payload for creating a workshop.
type CreateWorkshopRequest struct {
	Name        string   `json:"nombre"`
	Description string   `json:"descripcion"`
	Date        string   `json:"fecha"`
	Time        string   `json:"hora"`
	Location    string   `json:"lugar"`
	Category    string   `json:"categoria"`
	Type        string   `json:"tipo"`
	Instructor  string   `json:"instructor"`
	Rating      *float64 `json:"rating"`
	Capacity    int      `json:"cupo"`
}

// UpdateWorkshopRequest carries the subset of mutable fields to change.
// Nil fields are left untouched.
type UpdateWorkshopRequest struct {
	Name        *string  `json:"nombre"`
	Description *string  `json:"descripcion"`
	Date        *string  `json:"fecha"`
	Time        *string  `json:"hora"`
	Location    *string  `json:"lugar"`
	Category    *string  `json:"categoria"`
	Type        *string  `json:"tipo"`
	Instructor  *string  `json:"instructor"`
	Rating      *float64 `json:"rating"`
	Capacity    *int     `json:"cupo"`
}

// ListWorkshopsFilter narrows a workshop listing. Only the partition choice
// reaches the store; the remaining filters run over the fetched page.
type ListWorkshopsFilter struct {
	Query    string
	Category string
	DateFrom string
	DateTo   string
	Limit    int
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"mensaje"`
}
