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

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type JobService struct {
	DB  *gorm.DB
	LLM *LLMService
	now func() time.Time
}

func NewJobService(db *gorm.DB, llm *LLMService) *JobService {
	return &JobService{
		DB:  db,
		LLM: llm,
		now: time.Now,
	}
}

// JobView is a posting with the fields the board shows next to it.
type JobView struct {
	models.JobPosting
	CompanyName           string `json:"company_name"`
	ApplicantCount        int64  `json:"applicant_count"`
	AcceptingApplications bool   `json:"accepting_applications"`
}

// JobPage is one page of the public job board.
type JobPage struct {
	Jobs  []JobView `json:"jobs"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int64     `json:"total"`
}

func (s *JobService) CreateJob(ctx context.Context, employerUserID string, req *dtos.JobCreationRequest) (*models.JobPosting, error) {
	employer, err := employerFor(ctx, s.DB, employerUserID)
	if err != nil {
		return nil, err
	}
	if employer.VerificationStatus != models.VerificationVerified {
		return nil, forbidden("only verified employers can publish job postings")
	}

	job := &models.JobPosting{
		EmployerID: employer.ID,
		Status:     models.JobOpen,
	}
	if err := s.apply(job, req); err != nil {
		return nil, err
	}
	s.embedJob(ctx, job)

	if err := s.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	logging.L.Info("Job created", "job_id", job.ID, "employer_id", employer.ID)
	return job, nil
}

func (s *JobService) UpdateJob(ctx context.Context, employerUserID, jobID string, req *dtos.JobCreationRequest) (*models.JobPosting, error) {
	job, _, err := ownedJob(ctx, s.DB, employerUserID, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(&job, req); err != nil {
		return nil, err
	}
	s.embedJob(ctx, &job)

	if err := s.DB.WithContext(ctx).Save(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// SetStatus opens or closes a posting. Reopening needs a verified employer.
func (s *JobService) SetStatus(ctx context.Context, employerUserID, jobID, status string) (*models.JobPosting, error) {
	next := models.JobStatus(status)
	if !next.Valid() {
		return nil, invalid("status must be open or closed")
	}
	job, employer, err := ownedJob(ctx, s.DB, employerUserID, jobID)
	if err != nil {
		return nil, err
	}
	if next == models.JobOpen && employer.VerificationStatus != models.VerificationVerified {
		return nil, forbidden("only verified employers can publish job postings")
	}
	if err := s.DB.WithContext(ctx).Model(&job).Update("status", next).Error; err != nil {
		return nil, err
	}
	job.Status = next
	return &job, nil
}

func (s *JobService) DeleteJob(ctx context.Context, employerUserID, jobID string) error {
	job, _, err := ownedJob(ctx, s.DB, employerUserID, jobID)
	if err != nil {
		return err
	}
	return deleteJobCascade(ctx, s.DB, job.ID)
}

// ListEmployerJobs returns every posting of the employer, newest first, with applicant counts.
func (s *JobService) ListEmployerJobs(ctx context.Context, employerUserID string) ([]JobView, error) {
	employer, err := employerFor(ctx, s.DB, employerUserID)
	if err != nil {
		return nil, err
	}
	var jobs []models.JobPosting
	if err := s.DB.WithContext(ctx).Where("employer_id = ?", employer.ID).
		Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return s.views(ctx, jobs)
}

// ListPublic serves the job board: open postings of verified employers, newest first.
func (s *JobService) ListPublic(ctx context.Context, f dtos.JobFilter) (*JobPage, error) {
	if f.Type != "" && !models.JobType(f.Type).Valid() {
		return nil, invalid("unknown job type %q", f.Type)
	}
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var verified []string
	if err := s.DB.WithContext(ctx).Model(&models.Employer{}).
		Where("verification_status = ?", models.VerificationVerified).
		Pluck("id", &verified).Error; err != nil {
		return nil, err
	}
	result := &JobPage{Jobs: []JobView{}, Page: page, Limit: limit}
	if len(verified) == 0 {
		return result, nil
	}

	q := s.DB.WithContext(ctx).Model(&models.JobPosting{}).
		Where("status = ? AND employer_id IN ?", models.JobOpen, verified)
	if term := strings.ToLower(strings.TrimSpace(f.Q)); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where(likeQuery("LOWER(title)")+" OR "+likeQuery("LOWER(description)"), like, like)
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" {
		q = q.Where(likeQuery("LOWER(location)"), "%"+escapeLike(loc)+"%")
	}
	if f.Type != "" {
		q = q.Where("job_type = ?", f.Type)
	}
	if f.Remote != nil {
		q = q.Where("remote = ?", *f.Remote)
	}
	if tags := normalizeTags([]string{f.Hashtag}); len(tags) == 1 {
		// hashtags are stored as a JSON array of lowercase strings
		q = q.Where(likeQuery("hashtags"), `%"`+escapeLike(tags[0])+`"%`)
	}

	q = q.Session(&gorm.Session{})
	if err := q.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	var jobs []models.JobPosting
	if err := q.Omit("embedding").Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	views, err := s.views(ctx, jobs)
	if err != nil {
		return nil, err
	}
	result.Jobs = views
	return result, nil
}

// GetPublic returns one posting if its employer is verified.
func (s *JobService) GetPublic(ctx context.Context, jobID string) (*JobView, error) {
	var job models.JobPosting
	if err := s.DB.WithContext(ctx).Omit("embedding").First(&job, "id = ?", jobID).Error; err != nil {
		return nil, lookup(err, "job")
	}
	var employer models.Employer
	if err := s.DB.WithContext(ctx).First(&employer, "id = ?", job.EmployerID).Error; err != nil {
		return nil, lookup(err, "job")
	}
	if employer.VerificationStatus != models.VerificationVerified {
		return nil, notFound("job")
	}
	views, err := s.views(ctx, []models.JobPosting{job})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// apply copies the request onto job after validating it.
func (s *JobService) apply(job *models.JobPosting, req *dtos.JobCreationRequest) error {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return invalid("title and description are required")
	}
	jobType := models.JobTypeInternship
	if req.JobType != "" {
		jobType = models.JobType(req.JobType)
		if !jobType.Valid() {
			return invalid("unknown job type %q", req.JobType)
		}
	}
	if req.Deadline != nil && !req.Deadline.After(s.now()) {
		return invalid("deadline must be in the future")
	}

	job.Title = title
	job.Description = description
	job.Location = strings.TrimSpace(req.Location)
	job.JobType = jobType
	job.Remote = req.Remote
	job.SalaryRange = strings.TrimSpace(req.SalaryRange)
	job.Skills = normalizeTags(req.Skills)
	job.Hashtags = normalizeTags(req.Hashtags)
	if req.Deadline != nil {
		d := req.Deadline.UTC()
		job.Deadline = &d
	} else {
		job.Deadline = nil
	}
	return nil
}

// embedJob refreshes the posting embedding. Failures only cost match quality.
func (s *JobService) embedJob(ctx context.Context, job *models.JobPosting) {
	if !s.LLM.enabled() {
		return
	}
	vec, err := s.LLM.Embed(ctx, jobDocument(*job))
	if err != nil {
		logging.L.Warn("⚠️ job embedding failed", "title", job.Title, "error", err)
		return
	}
	job.Embedding = vec
}

func (s *JobService) views(ctx context.Context, jobs []models.JobPosting) ([]JobView, error) {
	out := make([]JobView, 0, len(jobs))
	if len(jobs) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(jobs))
	employerIDs := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
		employerIDs = append(employerIDs, j.EmployerID)
	}
	names, err := companyNames(ctx, s.DB, employerIDs)
	if err != nil {
		return nil, err
	}
	counts, err := applicantCounts(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, j := range jobs {
		out = append(out, JobView{
			JobPosting:            j,
			CompanyName:           names[j.EmployerID],
			ApplicantCount:        counts[j.ID],
			AcceptingApplications: j.AcceptsApplications(now),
		})
	}
	return out, nil
}

// applicantCounts counts non-withdrawn applications per posting.
func applicantCounts(ctx context.Context, db *gorm.DB, jobIDs []string) (map[string]int64, error) {
	var rows []struct {
		JobID string
		Total int64
	}
	err := db.WithContext(ctx).Model(&models.Application{}).
		Select("job_id, COUNT(*) AS total").
		Where("job_id IN ? AND status <> ?", jobIDs, models.ApplicationWithdrawn).
		Group("job_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.JobID] = r.Total
	}
	return counts, nil
}

// employerFor loads the company registered by an employer user.
func employerFor(ctx context.Context, db *gorm.DB, userID string) (models.Employer, error) {
	var employer models.Employer
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&employer).Error; err != nil {
		return employer, lookup(err, "employer profile")
	}
	return employer, nil
}

// ownedJob loads a posting and checks it belongs to the employer user.
func ownedJob(ctx context.Context, db *gorm.DB, employerUserID, jobID string) (models.JobPosting, models.Employer, error) {
	var job models.JobPosting
	employer, err := employerFor(ctx, db, employerUserID)
	if err != nil {
		return job, employer, err
	}
	if err := db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return job, employer, lookup(err, "job")
	}
	if job.EmployerID != employer.ID {
		return job, employer, forbidden("job belongs to another employer")
	}
	return job, employer, nil
}

// deleteJobCascade removes a posting with its applications, interviews and matches.
func deleteJobCascade(ctx context.Context, db *gorm.DB, jobID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.InterviewSchedule{},
			&models.Application{},
			&models.JobMatch{},
		} {
			if err := tx.Where("job_id = ?", jobID).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", jobID).Delete(&models.JobPosting{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("job")
		}
		logging.L.Info("Job deleted", "job_id", jobID)
		return nil
	})
}
