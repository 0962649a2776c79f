package dtos

import "time"

type EmployerRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Industry    string `json:"industry"`
	Website     string `json:"website" binding:"omitempty,url"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type ApplicationStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type InterviewRequest struct {
	ApplicationID   string    `json:"application_id" binding:"required"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	Mode            string    `json:"mode" binding:"required"`
	Location        string    `json:"location"`
	MeetingLink     string    `json:"meeting_link"`
	Notes           string    `json:"notes"`
}

// InterviewUpdateRequest only touches the fields that are present.
type InterviewUpdateRequest struct {
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	Mode            *string    `json:"mode"`
	Location        *string    `json:"location"`
	MeetingLink     *string    `json:"meeting_link"`
	Notes           *string    `json:"notes"`
	Status          *string    `json:"status"`
}
