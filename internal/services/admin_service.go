package services

import (
	"context"
	"strings"
	"time"

	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
)

type AdminService struct {
	DB        *gorm.DB
	Employers *EmployerService
	Email     *EmailService
	now       func() time.Time
}

func NewAdminService(db *gorm.DB, employers *EmployerService, email *EmailService) *AdminService {
	return &AdminService{DB: db, Employers: employers, Email: email, now: time.Now}
}

// Stats is the platform overview on the admin dashboard.
type Stats struct {
	UsersByRole          map[string]int64 `json:"users_by_role"`
	EmployersByStatus    map[string]int64 `json:"employers_by_status"`
	JobsByStatus         map[string]int64 `json:"jobs_by_status"`
	ApplicationsByStatus map[string]int64 `json:"applications_by_status"`
	TopCompanies         []CompanyRank    `json:"top_companies"`
}

// ListEmployers returns companies, optionally filtered by verification status, oldest first
// so the review queue is worked in order.
func (s *AdminService) ListEmployers(ctx context.Context, status string) ([]EmployerView, error) {
	q := s.DB.WithContext(ctx).Order("created_at ASC")
	if status != "" {
		if !models.VerificationStatus(status).Valid() {
			return nil, invalid("unknown verification status %q", status)
		}
		q = q.Where("verification_status = ?", status)
	}
	var employers []models.Employer
	if err := q.Find(&employers).Error; err != nil {
		return nil, err
	}
	out := make([]EmployerView, 0, len(employers))
	for _, e := range employers {
		out = append(out, *s.Employers.view(ctx, e))
	}
	return out, nil
}

// SetVerification records the review outcome and emails the employer.
func (s *AdminService) SetVerification(ctx context.Context, employerID string, req *dtos.VerificationRequest) (*models.Employer, error) {
	status := models.VerificationStatus(req.Status)
	if !status.Valid() {
		return nil, invalid("status must be pending, verified or rejected")
	}
	var employer models.Employer
	if err := s.DB.WithContext(ctx).First(&employer, "id = ?", employerID).Error; err != nil {
		return nil, lookup(err, "employer")
	}

	changed := employer.VerificationStatus != status
	employer.VerificationStatus = status
	employer.VerificationNote = strings.TrimSpace(req.Note)
	if status == models.VerificationVerified {
		if changed || employer.VerifiedAt == nil {
			now := s.now().UTC()
			employer.VerifiedAt = &now
		}
	} else {
		employer.VerifiedAt = nil
	}
	if err := s.DB.WithContext(ctx).Save(&employer).Error; err != nil {
		return nil, err
	}

	logging.L.Info("Employer verification updated", "employer_id", employer.ID, "status", status)
	if changed {
		s.Email.VerificationChanged(ctx, employer)
	}
	return &employer, nil
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var err error
	stats := &Stats{}
	if stats.UsersByRole, err = s.tally(ctx, &models.User{}, "role"); err != nil {
		return nil, err
	}
	if stats.EmployersByStatus, err = s.tally(ctx, &models.Employer{}, "verification_status"); err != nil {
		return nil, err
	}
	if stats.JobsByStatus, err = s.tally(ctx, &models.JobPosting{}, "status"); err != nil {
		return nil, err
	}
	if stats.ApplicationsByStatus, err = s.tally(ctx, &models.Application{}, "status"); err != nil {
		return nil, err
	}
	withZeros(stats.UsersByRole, string(models.RoleStudent), string(models.RoleEmployer), string(models.RoleAdmin))
	withZeros(stats.EmployersByStatus, string(models.VerificationPending), string(models.VerificationVerified), string(models.VerificationRejected))
	if stats.TopCompanies, err = s.Employers.TopCompanies(ctx, 5, false); err != nil {
		return nil, err
	}
	return stats, nil
}

// ListUsers returns accounts, optionally of one role, newest first.
func (s *AdminService) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if role != "" {
		if !models.Role(role).Valid() {
			return nil, invalid("unknown role %q", role)
		}
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteJob removes any posting as moderation.
func (s *AdminService) DeleteJob(ctx context.Context, jobID string) error {
	return deleteJobCascade(ctx, s.DB, jobID)
}

// tally counts rows of model grouped by column.
func (s *AdminService) tally(ctx context.Context, model interface{}, column string) (map[string]int64, error) {
	return countBy(ctx, s.DB.Model(model), column)
}

func withZeros(m map[string]int64, keys ...string) {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			m[k] = 0
		}
	}
}
