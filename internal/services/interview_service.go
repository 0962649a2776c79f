package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
)

const defaultInterviewMinutes = 30

type InterviewService struct {
	DB    *gorm.DB
	Email *EmailService
	now   func() time.Time
}

func NewInterviewService(db *gorm.DB, email *EmailService) *InterviewService {
	return &InterviewService{DB: db, Email: email, now: time.Now}
}

// InterviewView carries the labels both sides show next to an interview.
type InterviewView struct {
	models.InterviewSchedule
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name"`
	StudentName string `json:"student_name"`
}

// Schedule books an interview for an application and moves the application to
// waitlisted. The two writes are separate: if the status update fails the
// interview stays booked and the error is returned.
func (s *InterviewService) Schedule(ctx context.Context, employerUserID string, req *dtos.InterviewRequest) (*models.InterviewSchedule, error) {
	mode := models.InterviewMode(req.Mode)
	if !mode.Valid() {
		return nil, invalid("mode must be online, onsite or phone")
	}
	if req.ScheduledAt.IsZero() {
		return nil, invalid("scheduled_at is required")
	}
	if !req.ScheduledAt.After(s.now()) {
		return nil, invalid("scheduled_at must be in the future")
	}

	var app models.Application
	if err := s.DB.WithContext(ctx).First(&app, "id = ?", req.ApplicationID).Error; err != nil {
		return nil, lookup(err, "application")
	}
	_, employer, err := ownedJob(ctx, s.DB, employerUserID, app.JobID)
	if err != nil {
		return nil, err
	}
	if app.Status == models.ApplicationWithdrawn {
		return nil, conflict("the student withdrew this application")
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultInterviewMinutes
	}
	interview := &models.InterviewSchedule{
		ApplicationID:   app.ID,
		JobID:           app.JobID,
		StudentID:       app.StudentID,
		EmployerID:      employer.ID,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: duration,
		Mode:            mode,
		Location:        strings.TrimSpace(req.Location),
		MeetingLink:     strings.TrimSpace(req.MeetingLink),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          models.InterviewScheduled,
	}
	if err := s.DB.WithContext(ctx).Create(interview).Error; err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(&app).Update("status", models.ApplicationWaitlisted).Error; err != nil {
		logging.L.Error("❌ interview booked but application not updated", "interview_id", interview.ID, "error", err)
		return interview, fmt.Errorf("interview %s booked but application status not updated: %w", interview.ID, err)
	}

	logging.L.Info("Interview scheduled", "interview_id", interview.ID, "application_id", app.ID)
	s.Email.InterviewScheduled(ctx, *interview)
	return interview, nil
}

// Update changes the fields present in req. Moving the time re-arms the reminder.
func (s *InterviewService) Update(ctx context.Context, employerUserID, id string, req *dtos.InterviewUpdateRequest) (*models.InterviewSchedule, error) {
	interview, err := s.owned(ctx, employerUserID, id)
	if err != nil {
		return nil, err
	}
	if interview.Status == models.InterviewCancelled {
		return nil, conflict("interview is cancelled")
	}

	moved := false
	if req.ScheduledAt != nil {
		if !req.ScheduledAt.After(s.now()) {
			return nil, invalid("scheduled_at must be in the future")
		}
		if !req.ScheduledAt.Equal(interview.ScheduledAt) {
			moved = true
			interview.ScheduledAt = req.ScheduledAt.UTC()
			interview.ReminderSent = false
		}
	}
	if req.DurationMinutes != nil {
		interview.DurationMinutes = *req.DurationMinutes
	}
	if req.Mode != nil {
		mode := models.InterviewMode(*req.Mode)
		if !mode.Valid() {
			return nil, invalid("mode must be online, onsite or phone")
		}
		interview.Mode = mode
	}
	if req.Location != nil {
		interview.Location = strings.TrimSpace(*req.Location)
	}
	if req.MeetingLink != nil {
		interview.MeetingLink = strings.TrimSpace(*req.MeetingLink)
	}
	if req.Notes != nil {
		interview.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Status != nil {
		status := models.InterviewStatus(*req.Status)
		if !status.Valid() {
			return nil, invalid("unknown interview status %q", *req.Status)
		}
		interview.Status = status
	}

	if err := s.DB.WithContext(ctx).Save(&interview).Error; err != nil {
		return nil, err
	}
	switch {
	case interview.Status == models.InterviewCancelled:
		s.Email.InterviewCancelled(ctx, interview)
	case moved:
		s.Email.InterviewUpdated(ctx, interview)
	}
	return &interview, nil
}

// Cancel marks the interview cancelled and tells the student. Cancelling twice is a no-op.
func (s *InterviewService) Cancel(ctx context.Context, employerUserID, id string) (*models.InterviewSchedule, error) {
	interview, err := s.owned(ctx, employerUserID, id)
	if err != nil {
		return nil, err
	}
	if interview.Status == models.InterviewCancelled {
		return &interview, nil
	}
	if err := s.DB.WithContext(ctx).Model(&interview).Update("status", models.InterviewCancelled).Error; err != nil {
		return nil, err
	}
	interview.Status = models.InterviewCancelled
	s.Email.InterviewCancelled(ctx, interview)
	return &interview, nil
}

func (s *InterviewService) ListForEmployer(ctx context.Context, employerUserID string) ([]InterviewView, error) {
	employer, err := employerFor(ctx, s.DB, employerUserID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, s.DB.WithContext(ctx).Where("employer_id = ?", employer.ID))
}

func (s *InterviewService) ListForStudent(ctx context.Context, studentID string) ([]InterviewView, error) {
	return s.list(ctx, s.DB.WithContext(ctx).Where("student_id = ?", studentID))
}

// Upcoming returns scheduled interviews that have not started, soonest first.
func (s *InterviewService) Upcoming(views []InterviewView) []InterviewView {
	now := s.now()
	out := []InterviewView{}
	for _, v := range views {
		if v.Status == models.InterviewScheduled && v.ScheduledAt.After(now) {
			out = append(out, v)
		}
	}
	return out
}

func (s *InterviewService) owned(ctx context.Context, employerUserID, id string) (models.InterviewSchedule, error) {
	var interview models.InterviewSchedule
	employer, err := employerFor(ctx, s.DB, employerUserID)
	if err != nil {
		return interview, err
	}
	if err := s.DB.WithContext(ctx).First(&interview, "id = ?", id).Error; err != nil {
		return interview, lookup(err, "interview")
	}
	if interview.EmployerID != employer.ID {
		return interview, forbidden("interview belongs to another employer")
	}
	return interview, nil
}

func (s *InterviewService) list(ctx context.Context, q *gorm.DB) ([]InterviewView, error) {
	var interviews []models.InterviewSchedule
	if err := q.Order("scheduled_at ASC").Find(&interviews).Error; err != nil {
		return nil, err
	}
	out := make([]InterviewView, 0, len(interviews))
	if len(interviews) == 0 {
		return out, nil
	}

	jobIDs := make([]string, 0, len(interviews))
	employerIDs := make([]string, 0, len(interviews))
	studentIDs := make([]string, 0, len(interviews))
	for _, iv := range interviews {
		jobIDs = append(jobIDs, iv.JobID)
		employerIDs = append(employerIDs, iv.EmployerID)
		studentIDs = append(studentIDs, iv.StudentID)
	}
	var jobs []models.JobPosting
	if err := s.DB.WithContext(ctx).Select("id", "title").Where("id IN ?", jobIDs).Find(&jobs).Error; err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(jobs))
	for _, j := range jobs {
		titles[j.ID] = j.Title
	}
	names, err := companyNames(ctx, s.DB, employerIDs)
	if err != nil {
		return nil, err
	}
	var profiles []models.StudentProfile
	if err := s.DB.WithContext(ctx).Select("user_id", "full_name").Where("user_id IN ?", studentIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	students := make(map[string]string, len(profiles))
	for _, p := range profiles {
		students[p.UserID] = p.FullName
	}

	for _, iv := range interviews {
		out = append(out, InterviewView{
			InterviewSchedule: iv,
			JobTitle:          titles[iv.JobID],
			CompanyName:       names[iv.EmployerID],
			StudentName:       students[iv.StudentID],
		})
	}
	return out, nil
}
