package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/justsurfingit/InternConnect/internal/storage"
	"gorm.io/gorm"
)

type ApplicationService struct {
	DB     *gorm.DB
	Store  storage.Store
	LLM    *LLMService
	Email  *EmailService
	URLTTL time.Duration
	now    func() time.Time
}

func NewApplicationService(db *gorm.DB, store storage.Store, llm *LLMService, email *EmailService, urlTTL time.Duration) *ApplicationService {
	return &ApplicationService{DB: db, Store: store, LLM: llm, Email: email, URLTTL: urlTTL, now: time.Now}
}

// StudentApplication is an application as its student sees it.
type StudentApplication struct {
	models.Application
	JobTitle    string           `json:"job_title"`
	CompanyName string           `json:"company_name"`
	JobStatus   models.JobStatus `json:"job_status"`
}

// Applicant is an application as the employer sees it.
type Applicant struct {
	models.Application
	Student   *models.StudentProfile `json:"student,omitempty"`
	Email     string                 `json:"email"`
	ResumeURL string                 `json:"resume_url,omitempty"`
}

// withdrawable lists the states a student may still pull out of.
var withdrawable = map[models.ApplicationStatus]bool{
	models.ApplicationPending:    true,
	models.ApplicationReviewing:  true,
	models.ApplicationWaitlisted: true,
}

func (s *ApplicationService) Apply(ctx context.Context, studentID string, req *dtos.ApplyRequest) (*models.Application, error) {
	var job models.JobPosting
	if err := s.DB.WithContext(ctx).Omit("embedding").First(&job, "id = ?", req.JobID).Error; err != nil {
		return nil, lookup(err, "job")
	}
	var employer models.Employer
	if err := s.DB.WithContext(ctx).Select("id", "verification_status").First(&employer, "id = ?", job.EmployerID).Error; err != nil {
		return nil, lookup(err, "job")
	}
	if employer.VerificationStatus != models.VerificationVerified {
		return nil, notFound("job")
	}
	if !job.AcceptsApplications(s.now()) {
		return nil, invalid("this job is no longer accepting applications")
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.Application{}).
		Where("job_id = ? AND student_id = ?", job.ID, studentID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, conflict("you have already applied to this job")
	}

	app := &models.Application{
		JobID:       job.ID,
		StudentID:   studentID,
		CoverLetter: strings.TrimSpace(req.CoverLetter),
		Status:      models.ApplicationPending,
	}
	if err := s.DB.WithContext(ctx).Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("you have already applied to this job")
		}
		return nil, err
	}
	logging.L.Info("Application submitted", "application_id", app.ID, "job_id", job.ID, "student_id", studentID)
	return app, nil
}

// ListForStudent returns the student's applications, newest first.
func (s *ApplicationService) ListForStudent(ctx context.Context, studentID string) ([]StudentApplication, error) {
	var apps []models.Application
	if err := s.DB.WithContext(ctx).Where("student_id = ?", studentID).
		Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	out := make([]StudentApplication, 0, len(apps))
	if len(apps) == 0 {
		return out, nil
	}

	jobIDs := make([]string, 0, len(apps))
	for _, a := range apps {
		jobIDs = append(jobIDs, a.JobID)
	}
	var jobs []models.JobPosting
	if err := s.DB.WithContext(ctx).Select("id", "title", "employer_id", "status").
		Where("id IN ?", jobIDs).Find(&jobs).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.JobPosting, len(jobs))
	employerIDs := make([]string, 0, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
		employerIDs = append(employerIDs, j.EmployerID)
	}
	names, err := companyNames(ctx, s.DB, employerIDs)
	if err != nil {
		return nil, err
	}

	for _, a := range apps {
		job := byID[a.JobID]
		out = append(out, StudentApplication{
			Application: a,
			JobTitle:    job.Title,
			CompanyName: names[job.EmployerID],
			JobStatus:   job.Status,
		})
	}
	return out, nil
}

// Withdraw lets a student pull out of an application that is still undecided.
// Interviews still scheduled for it are cancelled so no reminder goes out.
func (s *ApplicationService) Withdraw(ctx context.Context, studentID, appID string) (*models.Application, error) {
	var app models.Application
	if err := s.DB.WithContext(ctx).First(&app, "id = ?", appID).Error; err != nil {
		return nil, lookup(err, "application")
	}
	if app.StudentID != studentID {
		return nil, forbidden("application belongs to another student")
	}
	if !withdrawable[app.Status] {
		return nil, conflict("an application that is %s cannot be withdrawn", app.Status)
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&app).Update("status", models.ApplicationWithdrawn).Error; err != nil {
			return err
		}
		return tx.Model(&models.InterviewSchedule{}).
			Where("application_id = ? AND status = ?", app.ID, models.InterviewScheduled).
			Update("status", models.InterviewCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	app.Status = models.ApplicationWithdrawn
	return &app, nil
}

// ListForJob returns the applicants of a posting owned by the employer.
func (s *ApplicationService) ListForJob(ctx context.Context, employerUserID, jobID string) ([]Applicant, error) {
	job, _, err := ownedJob(ctx, s.DB, employerUserID, jobID)
	if err != nil {
		return nil, err
	}
	var apps []models.Application
	if err := s.DB.WithContext(ctx).Where("job_id = ?", job.ID).
		Order("created_at ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	out := make([]Applicant, 0, len(apps))
	if len(apps) == 0 {
		return out, nil
	}

	studentIDs := make([]string, 0, len(apps))
	for _, a := range apps {
		studentIDs = append(studentIDs, a.StudentID)
	}
	var profiles []models.StudentProfile
	if err := s.DB.WithContext(ctx).Omit("resume_embedding").
		Where("user_id IN ?", studentIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	profileByUser := make(map[string]models.StudentProfile, len(profiles))
	for _, p := range profiles {
		profileByUser[p.UserID] = p
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Select("id", "email").Where("id IN ?", studentIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	emails := make(map[string]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	for _, a := range apps {
		applicant := Applicant{Application: a, Email: emails[a.StudentID]}
		if p, ok := profileByUser[a.StudentID]; ok {
			applicant.Student = &p
			if p.ResumeKey != "" && s.Store != nil {
				if url, err := s.Store.SignedURL(ctx, p.ResumeKey, s.URLTTL); err == nil {
					applicant.ResumeURL = url
				} else {
					logging.L.Warn("resume url not signed", "student_id", a.StudentID, "error", err)
				}
			}
		}
		out = append(out, applicant)
	}
	return out, nil
}

// UpdateStatus records the employer's decision. Students own the withdrawn state.
func (s *ApplicationService) UpdateStatus(ctx context.Context, employerUserID, appID string, req *dtos.ApplicationStatusRequest) (*models.Application, error) {
	next := models.ApplicationStatus(req.Status)
	if !next.Valid() {
		return nil, invalid("unknown application status %q", req.Status)
	}
	if next == models.ApplicationWithdrawn {
		return nil, invalid("only the student can withdraw an application")
	}

	var app models.Application
	if err := s.DB.WithContext(ctx).First(&app, "id = ?", appID).Error; err != nil {
		return nil, lookup(err, "application")
	}
	if _, _, err := ownedJob(ctx, s.DB, employerUserID, app.JobID); err != nil {
		return nil, err
	}
	if app.Status == models.ApplicationWithdrawn {
		return nil, conflict("the student withdrew this application")
	}

	// Updates writes the map back into app, so read the old status first.
	previous := app.Status
	updates := map[string]interface{}{"status": next}
	if note := strings.TrimSpace(req.Note); note != "" {
		updates["employer_note"] = note
		app.EmployerNote = note
	}
	if err := s.DB.WithContext(ctx).Model(&app).Updates(updates).Error; err != nil {
		return nil, err
	}
	app.Status = next

	if next != previous && (next == models.ApplicationAccepted || next == models.ApplicationRejected) {
		s.Email.ApplicationDecision(ctx, app)
	}
	return &app, nil
}

// DraftCoverLetter asks the model for a cover letter for one posting.
func (s *ApplicationService) DraftCoverLetter(ctx context.Context, studentID, jobID string) (string, error) {
	var profile models.StudentProfile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", studentID).First(&profile).Error; err != nil {
		return "", lookup(err, "student profile")
	}
	var job models.JobPosting
	if err := s.DB.WithContext(ctx).Omit("embedding").First(&job, "id = ?", jobID).Error; err != nil {
		return "", lookup(err, "job")
	}
	names, err := companyNames(ctx, s.DB, []string{job.EmployerID})
	if err != nil {
		return "", err
	}
	return s.LLM.DraftCoverLetter(ctx, profile, job, names[job.EmployerID])
}
