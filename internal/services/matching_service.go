package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxMatches      = 20
	embeddingWeight = 0.8
	skillWeight     = 0.2
)

type MatcherService struct {
	DB  *gorm.DB
	LLM *LLMService
	now func() time.Time
}

func NewMatcherService(db *gorm.DB, llm *LLMService) *MatcherService {
	return &MatcherService{DB: db, LLM: llm, now: time.Now}
}

// MatchView is a stored match joined with the posting it points at.
type MatchView struct {
	models.JobMatch
	Title       string         `json:"title"`
	CompanyName string         `json:"company_name"`
	Location    string         `json:"location"`
	JobType     models.JobType `json:"job_type"`
	Remote      bool           `json:"remote"`
}

// Candidate is a student ranked against one posting.
type Candidate struct {
	StudentID     string   `json:"student_id"`
	FullName      string   `json:"full_name"`
	University    string   `json:"university"`
	Degree        string   `json:"degree"`
	Skills        []string `json:"skills"`
	Score         float64  `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
	Applied       bool     `json:"applied"`
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// SkillOverlap is the Jaccard index of two skill lists compared case-insensitively.
// It also returns the shared skills in the order they appear in b.
func SkillOverlap(a, b []string) (float64, []string) {
	left, right := normalizeTags(a), normalizeTags(b)
	if len(left) == 0 || len(right) == 0 {
		return 0, []string{}
	}
	inLeft := make(map[string]bool, len(left))
	for _, s := range left {
		inLeft[s] = true
	}
	shared := []string{}
	for _, s := range right {
		if inLeft[s] {
			shared = append(shared, s)
		}
	}
	union := len(left) + len(right) - len(shared)
	return float64(len(shared)) / float64(union), shared
}

func blend(a, b []float32, skillsA, skillsB []string) (float64, []string) {
	overlap, shared := SkillOverlap(skillsA, skillsB)
	return embeddingWeight*Cosine(a, b) + skillWeight*overlap, shared
}

// RefreshForStudent recomputes the stored matches of one student against every
// posting that currently accepts applications.
func (s *MatcherService) RefreshForStudent(ctx context.Context, studentID string) ([]MatchView, error) {
	var profile models.StudentProfile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", studentID).First(&profile).Error; err != nil {
		return nil, lookup(err, "student profile")
	}
	if len(profile.ResumeEmbedding) == 0 {
		return nil, invalid("upload a resume before requesting matches")
	}

	jobs, err := openJobs(ctx, s.DB, s.now())
	if err != nil {
		return nil, err
	}

	matches := make([]models.JobMatch, 0, len(jobs))
	for _, job := range jobs {
		if len(job.Embedding) == 0 {
			continue
		}
		score, shared := blend(profile.ResumeEmbedding, job.Embedding, profile.Skills, job.Skills)
		matches = append(matches, models.JobMatch{
			StudentID:     studentID,
			JobID:         job.ID,
			Score:         score,
			MatchedSkills: shared,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep := make([]string, 0, len(matches))
		for _, m := range matches {
			keep = append(keep, m.JobID)
		}
		stale := tx.Where("student_id = ?", studentID)
		if len(keep) > 0 {
			stale = stale.Where("job_id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.JobMatch{}).Error; err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "matched_skills", "updated_at"}),
		}).Create(&matches).Error
	})
	if err != nil {
		return nil, err
	}

	logging.L.Debug("matches refreshed", "student_id", studentID, "count", len(matches))
	return s.MatchesForStudent(ctx, studentID)
}

// MatchesForStudent lists stored matches, best first.
func (s *MatcherService) MatchesForStudent(ctx context.Context, studentID string) ([]MatchView, error) {
	var matches []models.JobMatch
	if err := s.DB.WithContext(ctx).Where("student_id = ?", studentID).
		Order("score DESC").Find(&matches).Error; err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []MatchView{}, nil
	}

	jobIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		jobIDs = append(jobIDs, m.JobID)
	}
	var jobs []models.JobPosting
	if err := s.DB.WithContext(ctx).Omit("embedding").Where("id IN ?", jobIDs).Find(&jobs).Error; err != nil {
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

	out := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		job, ok := byID[m.JobID]
		if !ok {
			continue
		}
		out = append(out, MatchView{
			JobMatch:    m,
			Title:       job.Title,
			CompanyName: names[job.EmployerID],
			Location:    job.Location,
			JobType:     job.JobType,
			Remote:      job.Remote,
		})
	}
	return out, nil
}

// CandidatesForJob ranks every student with a resume against a posting owned by
// the employer. Without embeddings on either side only skill overlap counts.
func (s *MatcherService) CandidatesForJob(ctx context.Context, employerUserID, jobID string) ([]Candidate, error) {
	job, _, err := ownedJob(ctx, s.DB, employerUserID, jobID)
	if err != nil {
		return nil, err
	}
	if len(job.Embedding) == 0 && s.LLM.enabled() {
		if vec, err := s.LLM.Embed(ctx, jobDocument(job)); err == nil {
			job.Embedding = vec
			if err := s.DB.WithContext(ctx).Model(&job).Select("embedding").
				Updates(models.JobPosting{Embedding: vec}).Error; err != nil {
				logging.L.Warn("job embedding not saved", "job_id", job.ID, "error", err)
			}
		} else {
			logging.L.Warn("job embedding failed", "job_id", job.ID, "error", err)
		}
	}

	var profiles []models.StudentProfile
	if err := s.DB.WithContext(ctx).Omit("resume_text").
		Where("resume_key <> ?", "").Find(&profiles).Error; err != nil {
		return nil, err
	}

	var appliedIDs []string
	if err := s.DB.WithContext(ctx).Model(&models.Application{}).
		Where("job_id = ?", job.ID).Pluck("student_id", &appliedIDs).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(appliedIDs))
	for _, id := range appliedIDs {
		applied[id] = true
	}

	out := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		score, shared := blend(p.ResumeEmbedding, job.Embedding, p.Skills, job.Skills)
		if score <= 0 {
			continue
		}
		out = append(out, Candidate{
			StudentID:     p.UserID,
			FullName:      p.FullName,
			University:    p.University,
			Degree:        p.Degree,
			Skills:        p.Skills,
			Score:         score,
			MatchedSkills: shared,
			Applied:       applied[p.UserID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxMatches {
		out = out[:maxMatches]
	}
	return out, nil
}

// StaleStudents returns students whose resume embedding is newer than their
// newest stored match, including students that have no matches yet.
func (s *MatcherService) StaleStudents(ctx context.Context) ([]string, error) {
	var profiles []models.StudentProfile
	if err := s.DB.WithContext(ctx).Select("user_id", "embedding_updated_at").
		Where("embedding_updated_at IS NOT NULL").Find(&profiles).Error; err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}

	var matches []models.JobMatch
	if err := s.DB.WithContext(ctx).Select("student_id", "updated_at").Find(&matches).Error; err != nil {
		return nil, err
	}
	newest := make(map[string]time.Time, len(matches))
	for _, m := range matches {
		if m.UpdatedAt.After(newest[m.StudentID]) {
			newest[m.StudentID] = m.UpdatedAt
		}
	}

	var stale []string
	for _, p := range profiles {
		last, ok := newest[p.UserID]
		if !ok || p.EmbeddingUpdatedAt.After(last) {
			stale = append(stale, p.UserID)
		}
	}
	return stale, nil
}

// StartRefresher recomputes stale matches on every tick until ctx is cancelled.
func (s *MatcherService) StartRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		logging.L.Warn("⚠️ Match refresher disabled (interval is zero)")
		return
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		s.refreshStale(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshStale(ctx)
			}
		}
	}()
}

func (s *MatcherService) refreshStale(ctx context.Context) {
	ids, err := s.StaleStudents(ctx)
	if err != nil {
		logging.L.Error("❌ Could not load stale students", "error", err)
		return
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.RefreshForStudent(ctx, id); err != nil {
			logging.L.Warn("match refresh failed", "student_id", id, "error", err)
		}
	}
	if len(ids) > 0 {
		logging.L.Info("🔁 Matches refreshed", "students", len(ids))
	}
}

// openJobs returns postings of verified employers that accept applications at now.
func openJobs(ctx context.Context, db *gorm.DB, now time.Time) ([]models.JobPosting, error) {
	var verified []string
	if err := db.WithContext(ctx).Model(&models.Employer{}).
		Where("verification_status = ?", models.VerificationVerified).
		Pluck("id", &verified).Error; err != nil {
		return nil, err
	}
	if len(verified) == 0 {
		return nil, nil
	}
	var jobs []models.JobPosting
	if err := db.WithContext(ctx).
		Where("status = ? AND employer_id IN ?", models.JobOpen, verified).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	out := jobs[:0]
	for _, j := range jobs {
		if j.AcceptsApplications(now) {
			out = append(out, j)
		}
	}
	return out, nil
}

// companyNames maps employer ids to company names.
func companyNames(ctx context.Context, db *gorm.DB, employerIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(employerIDs))
	if len(employerIDs) == 0 {
		return names, nil
	}
	var employers []models.Employer
	if err := db.WithContext(ctx).Select("id", "company_name").
		Where("id IN ?", employerIDs).Find(&employers).Error; err != nil {
		return nil, err
	}
	for _, e := range employers {
		names[e.ID] = e.CompanyName
	}
	return names, nil
}
