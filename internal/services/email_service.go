package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/mailer"
	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
)

// EmailService sends the notification emails and runs the interview reminder watcher.
// Send failures are logged and never surface to the request that triggered them.
type EmailService struct {
	DB     *gorm.DB
	Mailer mailer.Mailer
	now    func() time.Time
}

func NewEmailService(db *gorm.DB, m mailer.Mailer) *EmailService {
	if m == nil {
		m = mailer.LogMailer{}
	}
	return &EmailService{DB: db, Mailer: m, now: time.Now}
}

// StartWatcher starts the background reminder polling. It stops when ctx is cancelled.
func (s *EmailService) StartWatcher(ctx context.Context, interval, lead time.Duration) {
	if interval <= 0 {
		logging.L.Warn("⚠️ Interview reminder watcher disabled (interval is zero)")
		return
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		// Run immediately on startup
		s.runReminders(ctx, lead)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runReminders(ctx, lead)
			}
		}
	}()
}

func (s *EmailService) runReminders(ctx context.Context, lead time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	sent, err := s.SendDueReminders(ctx, lead)
	if err != nil {
		logging.L.Error("❌ Reminder cycle failed", "error", err)
		return
	}
	if sent > 0 {
		logging.L.Info("📧 Interview reminders sent", "count", sent)
	}
}

// SendDueReminders emails every student whose scheduled interview starts within lead
// and marks the interview so it is not reminded twice.
func (s *EmailService) SendDueReminders(ctx context.Context, lead time.Duration) (int, error) {
	var interviews []models.InterviewSchedule
	err := s.DB.WithContext(ctx).
		Where("status = ? AND reminder_sent = ?", models.InterviewScheduled, false).
		Find(&interviews).Error
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	sent := 0
	for _, iv := range interviews {
		if iv.ScheduledAt.Before(now) || iv.ScheduledAt.After(now.Add(lead)) {
			continue
		}
		title, company := s.jobLabel(ctx, iv.JobID)
		body := fmt.Sprintf("Reminder: your interview for %s at %s is on %s.\n\n%s",
			title, company, iv.ScheduledAt.UTC().Format(time.RFC1123), interviewDetails(iv))
		if err := s.sendToUser(ctx, iv.StudentID, "Interview reminder: "+title, body); err != nil {
			logging.L.Warn("reminder not sent", "interview_id", iv.ID, "error", err)
			continue
		}
		if err := s.DB.WithContext(ctx).Model(&models.InterviewSchedule{}).
			Where("id = ?", iv.ID).Update("reminder_sent", true).Error; err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (s *EmailService) InterviewScheduled(ctx context.Context, iv models.InterviewSchedule) {
	title, company := s.jobLabel(ctx, iv.JobID)
	body := fmt.Sprintf("Good news! %s has invited you to interview for %s on %s.\n\n%s",
		company, title, iv.ScheduledAt.UTC().Format(time.RFC1123), interviewDetails(iv))
	s.notify(ctx, iv.StudentID, "Interview scheduled: "+title, body)
}

func (s *EmailService) InterviewUpdated(ctx context.Context, iv models.InterviewSchedule) {
	title, company := s.jobLabel(ctx, iv.JobID)
	body := fmt.Sprintf("%s updated your interview for %s. It is now on %s.\n\n%s",
		company, title, iv.ScheduledAt.UTC().Format(time.RFC1123), interviewDetails(iv))
	s.notify(ctx, iv.StudentID, "Interview updated: "+title, body)
}

func (s *EmailService) InterviewCancelled(ctx context.Context, iv models.InterviewSchedule) {
	title, company := s.jobLabel(ctx, iv.JobID)
	body := fmt.Sprintf("%s cancelled your interview for %s that was planned for %s.",
		company, title, iv.ScheduledAt.UTC().Format(time.RFC1123))
	s.notify(ctx, iv.StudentID, "Interview cancelled: "+title, body)
}

func (s *EmailService) ApplicationDecision(ctx context.Context, app models.Application) {
	title, company := s.jobLabel(ctx, app.JobID)
	var body string
	switch app.Status {
	case models.ApplicationAccepted:
		body = fmt.Sprintf("Congratulations! %s accepted your application for %s.", company, title)
	case models.ApplicationRejected:
		body = fmt.Sprintf("Thank you for applying to %s at %s. The employer decided not to move forward with your application.", title, company)
	default:
		return
	}
	if app.EmployerNote != "" {
		body += "\n\nNote from the employer:\n" + app.EmployerNote
	}
	s.notify(ctx, app.StudentID, "Application update: "+title, body)
}

func (s *EmailService) VerificationChanged(ctx context.Context, employer models.Employer) {
	var body string
	switch employer.VerificationStatus {
	case models.VerificationVerified:
		body = fmt.Sprintf("%s has been verified. You can now publish job postings on InternConnect.", employer.CompanyName)
	case models.VerificationRejected:
		body = fmt.Sprintf("The verification request for %s was not approved.", employer.CompanyName)
	default:
		body = fmt.Sprintf("The verification of %s is pending review again.", employer.CompanyName)
	}
	if employer.VerificationNote != "" {
		body += "\n\nNote from the reviewer:\n" + employer.VerificationNote
	}
	s.notify(ctx, employer.UserID, "Company verification: "+string(employer.VerificationStatus), body)
}

func (s *EmailService) notify(ctx context.Context, userID, subject, body string) {
	if err := s.sendToUser(ctx, userID, subject, body); err != nil {
		logging.L.Warn("⚠️ notification not sent", "user_id", userID, "subject", subject, "error", err)
	}
}

func (s *EmailService) sendToUser(ctx context.Context, userID, subject, body string) error {
	var user models.User
	if err := s.DB.WithContext(ctx).Select("id", "email", "full_name").First(&user, "id = ?", userID).Error; err != nil {
		return lookup(err, "user")
	}
	greeting := "Hello"
	if name := strings.TrimSpace(user.FullName); name != "" {
		greeting += " " + name
	}
	msg := mailer.Message{
		To:      user.Email,
		Subject: subject,
		Body:    greeting + ",\n\n" + body + "\n\nThe InternConnect team",
	}
	return retry(ctx, 2, retryBackoff/2, func() error {
		return s.Mailer.Send(ctx, msg)
	})
}

func (s *EmailService) jobLabel(ctx context.Context, jobID string) (title, company string) {
	title, company = "your application", "The employer"
	var job models.JobPosting
	if err := s.DB.WithContext(ctx).Select("id", "title", "employer_id").First(&job, "id = ?", jobID).Error; err != nil {
		return
	}
	title = job.Title
	var employer models.Employer
	if err := s.DB.WithContext(ctx).Select("id", "company_name").First(&employer, "id = ?", job.EmployerID).Error; err == nil {
		company = employer.CompanyName
	}
	return
}

func interviewDetails(iv models.InterviewSchedule) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mode: %s\nDuration: %d minutes\n", iv.Mode, iv.DurationMinutes)
	if iv.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", iv.Location)
	}
	if iv.MeetingLink != "" {
		fmt.Fprintf(&sb, "Meeting link: %s\n", iv.MeetingLink)
	}
	if iv.Notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", iv.Notes)
	}
	return sb.String()
}
