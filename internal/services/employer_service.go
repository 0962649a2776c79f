package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/justsurfingit/InternConnect/internal/storage"
	"gorm.io/gorm"
)

type EmployerService struct {
	DB     *gorm.DB
	Store  storage.Store
	URLTTL time.Duration
	now    func() time.Time
}

func NewEmployerService(db *gorm.DB, store storage.Store, urlTTL time.Duration) *EmployerService {
	return &EmployerService{DB: db, Store: store, URLTTL: urlTTL, now: time.Now}
}

// EmployerView adds a download URL for the logo.
type EmployerView struct {
	models.Employer
	LogoURL string `json:"logo_url,omitempty"`
}

// CompanyPage is the public profile of a verified company.
type CompanyPage struct {
	EmployerView
	Jobs []models.JobPosting `json:"jobs"`
}

// CompanyRank is a company ordered by how many students applied to it.
type CompanyRank struct {
	EmployerID  string `json:"employer_id"`
	CompanyName string `json:"company_name"`
	Applicants  int64  `json:"applicants"`
	OpenJobs    int64  `json:"open_jobs"`
}

// Register creates the company of an employer user. It starts out pending verification.
func (s *EmployerService) Register(ctx context.Context, userID string, req *dtos.EmployerRequest) (*models.Employer, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Employer{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, conflict("company already registered")
	}
	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		return nil, invalid("company_name is required")
	}

	employer := &models.Employer{
		UserID:             userID,
		VerificationStatus: models.VerificationPending,
	}
	fillEmployer(employer, req)
	if err := s.DB.WithContext(ctx).Create(employer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("company already registered")
		}
		return nil, err
	}
	logging.L.Info("Employer registered", "employer_id", employer.ID, "company", employer.CompanyName)
	return employer, nil
}

func (s *EmployerService) Profile(ctx context.Context, userID string) (*EmployerView, error) {
	employer, err := employerFor(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, employer), nil
}

func (s *EmployerService) UpdateProfile(ctx context.Context, userID string, req *dtos.EmployerRequest) (*EmployerView, error) {
	employer, err := employerFor(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return nil, invalid("company_name is required")
	}
	fillEmployer(&employer, req)
	if err := s.DB.WithContext(ctx).Save(&employer).Error; err != nil {
		return nil, err
	}
	return s.view(ctx, employer), nil
}

// UploadLogo stores the company logo and replaces the previous one.
func (s *EmployerService) UploadLogo(ctx context.Context, userID string, up Upload) (*EmployerView, error) {
	employer, err := employerFor(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	mimeType, ext, err := sniff(up, logoTypes)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("logos/%s/%s%s", employer.ID, uuid.NewString(), ext)
	if err := s.Store.Put(ctx, key, mimeType, bytes.NewReader(up.Data)); err != nil {
		return nil, fmt.Errorf("store logo: %w", err)
	}
	previous := employer.LogoKey
	if err := s.DB.WithContext(ctx).Model(&employer).Update("logo_key", key).Error; err != nil {
		return nil, err
	}
	employer.LogoKey = key
	if previous != "" {
		if err := s.Store.Delete(ctx, previous); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logging.L.Warn("old logo not deleted", "key", previous, "error", err)
		}
	}
	return s.view(ctx, employer), nil
}

// PublicProfile returns a verified company with its open postings.
func (s *EmployerService) PublicProfile(ctx context.Context, employerID string) (*CompanyPage, error) {
	var employer models.Employer
	if err := s.DB.WithContext(ctx).First(&employer, "id = ?", employerID).Error; err != nil {
		return nil, lookup(err, "company")
	}
	if employer.VerificationStatus != models.VerificationVerified {
		return nil, notFound("company")
	}
	var jobs []models.JobPosting
	if err := s.DB.WithContext(ctx).Omit("embedding").
		Where("employer_id = ? AND status = ?", employer.ID, models.JobOpen).
		Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return &CompanyPage{EmployerView: *s.view(ctx, employer), Jobs: jobs}, nil
}

// TopCompanies ranks companies by non-withdrawn applications across their postings.
// With verifiedOnly set, unverified companies are left out.
func (s *EmployerService) TopCompanies(ctx context.Context, limit int, verifiedOnly bool) ([]CompanyRank, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var applicants []struct {
		EmployerID string
		Total      int64
	}
	err := s.DB.WithContext(ctx).Table("applications").
		Select("job_postings.employer_id AS employer_id, COUNT(applications.id) AS total").
		Joins("JOIN job_postings ON job_postings.id = applications.job_id").
		Where("applications.status <> ?", models.ApplicationWithdrawn).
		Group("job_postings.employer_id").
		Scan(&applicants).Error
	if err != nil {
		return nil, err
	}
	if len(applicants) == 0 {
		return []CompanyRank{}, nil
	}

	ids := make([]string, 0, len(applicants))
	for _, a := range applicants {
		ids = append(ids, a.EmployerID)
	}
	q := s.DB.WithContext(ctx).Where("id IN ?", ids)
	if verifiedOnly {
		q = q.Where("verification_status = ?", models.VerificationVerified)
	}
	var employers []models.Employer
	if err := q.Find(&employers).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Employer, len(employers))
	for _, e := range employers {
		byID[e.ID] = e
	}

	var open []struct {
		EmployerID string
		Total      int64
	}
	if err := s.DB.WithContext(ctx).Model(&models.JobPosting{}).
		Select("employer_id, COUNT(*) AS total").
		Where("status = ? AND employer_id IN ?", models.JobOpen, ids).
		Group("employer_id").Scan(&open).Error; err != nil {
		return nil, err
	}
	openByID := make(map[string]int64, len(open))
	for _, o := range open {
		openByID[o.EmployerID] = o.Total
	}

	ranks := make([]CompanyRank, 0, len(applicants))
	for _, a := range applicants {
		e, ok := byID[a.EmployerID]
		if !ok {
			continue
		}
		ranks = append(ranks, CompanyRank{
			EmployerID:  e.ID,
			CompanyName: e.CompanyName,
			Applicants:  a.Total,
			OpenJobs:    openByID[e.ID],
		})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Applicants != ranks[j].Applicants {
			return ranks[i].Applicants > ranks[j].Applicants
		}
		return ranks[i].CompanyName < ranks[j].CompanyName
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

func (s *EmployerService) view(ctx context.Context, employer models.Employer) *EmployerView {
	v := &EmployerView{Employer: employer}
	if employer.LogoKey != "" && s.Store != nil {
		url, err := s.Store.SignedURL(ctx, employer.LogoKey, s.URLTTL)
		if err != nil {
			logging.L.Warn("logo url not signed", "employer_id", employer.ID, "error", err)
		} else {
			v.LogoURL = url
		}
	}
	return v
}

func fillEmployer(e *models.Employer, req *dtos.EmployerRequest) {
	e.CompanyName = strings.TrimSpace(req.CompanyName)
	e.Industry = strings.TrimSpace(req.Industry)
	e.Website = strings.TrimSpace(req.Website)
	e.Description = strings.TrimSpace(req.Description)
	e.Location = strings.TrimSpace(req.Location)
}
