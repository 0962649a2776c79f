package services

import (
	"context"

	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
)

const dashboardMatches = 5

// DashboardService assembles the landing pages of the three roles from the other services.
type DashboardService struct {
	DB         *gorm.DB
	Students   *StudentService
	Employers  *EmployerService
	Interviews *InterviewService
	Matcher    *MatcherService
	Admin      *AdminService
}

type StudentDashboard struct {
	Profile            *ProfileView     `json:"profile"`
	Applications       map[string]int64 `json:"applications"`
	UpcomingInterviews []InterviewView  `json:"upcoming_interviews"`
	TopMatches         []MatchView      `json:"top_matches"`
}

type EmployerDashboard struct {
	Company            *EmployerView    `json:"company"`
	Jobs               map[string]int64 `json:"jobs"`
	Applications       map[string]int64 `json:"applications"`
	UpcomingInterviews []InterviewView  `json:"upcoming_interviews"`
}

type AdminDashboard struct {
	Stats                *Stats `json:"stats"`
	PendingVerifications int64  `json:"pending_verifications"`
}

func (s *DashboardService) Student(ctx context.Context, userID string) (*StudentDashboard, error) {
	profile, err := s.Students.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	apps, err := countBy(ctx, s.DB.Model(&models.Application{}).Where("student_id = ?", userID), "status")
	if err != nil {
		return nil, err
	}
	interviews, err := s.Interviews.ListForStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	matches, err := s.Matcher.MatchesForStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matches) > dashboardMatches {
		matches = matches[:dashboardMatches]
	}
	return &StudentDashboard{
		Profile:            profile,
		Applications:       apps,
		UpcomingInterviews: s.Interviews.Upcoming(interviews),
		TopMatches:         matches,
	}, nil
}

func (s *DashboardService) Employer(ctx context.Context, userID string) (*EmployerDashboard, error) {
	company, err := s.Employers.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	jobs, err := countBy(ctx, s.DB.Model(&models.JobPosting{}).Where("employer_id = ?", company.ID), "status")
	if err != nil {
		return nil, err
	}
	withZeros(jobs, string(models.JobOpen), string(models.JobClosed))

	var jobIDs []string
	if err := s.DB.WithContext(ctx).Model(&models.JobPosting{}).
		Where("employer_id = ?", company.ID).Pluck("id", &jobIDs).Error; err != nil {
		return nil, err
	}
	apps := map[string]int64{}
	if len(jobIDs) > 0 {
		apps, err = countBy(ctx, s.DB.Model(&models.Application{}).Where("job_id IN ?", jobIDs), "status")
		if err != nil {
			return nil, err
		}
	}
	interviews, err := s.Interviews.ListForEmployer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &EmployerDashboard{
		Company:            company,
		Jobs:               jobs,
		Applications:       apps,
		UpcomingInterviews: s.Interviews.Upcoming(interviews),
	}, nil
}

func (s *DashboardService) AdminOverview(ctx context.Context) (*AdminDashboard, error) {
	stats, err := s.Admin.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{
		Stats:                stats,
		PendingVerifications: stats.EmployersByStatus[string(models.VerificationPending)],
	}, nil
}

// countBy groups the rows selected by q on column.
func countBy(ctx context.Context, q *gorm.DB, column string) (map[string]int64, error) {
	var rows []struct {
		Bucket string
		Total  int64
	}
	if err := q.WithContext(ctx).Select(column + " AS bucket, COUNT(*) AS total").
		Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Bucket] = r.Total
	}
	return out, nil
}
