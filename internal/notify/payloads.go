package notify

import "github.com/Shivanand-hulikatti/skillsforge/internal/model"

// WorkshopCreatedDetail is the payload of a WORKSHOP_CREATED event.
type WorkshopCreatedDetail struct {
	WorkshopID string `json:"workshopId"`
	Name       string `json:"nombre"`
	Date       string `json:"fecha"`
	Category   string `json:"categoria"`
}

// StudentRegisteredDetail is the payload of a STUDENT_REGISTERED event.
type StudentRegisteredDetail struct {
	WorkshopID   string `json:"workshopId"`
	WorkshopName string `json:"workshopName"`
	StudentID    string `json:"studentId"`
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`
	RegisteredAt string `json:"registeredAt"`
}

// WorkshopReminderDetail is the payload of a WORKSHOP_REMINDER event.
type WorkshopReminderDetail struct {
	WorkshopID string               `json:"workshop_id"`
	Name       string               `json:"nombre"`
	Date       string               `json:"fecha"`
	Time       string               `json:"hora"`
	Location   string               `json:"lugar"`
	Students   []model.Registration `json:"estudiantes"`
}
