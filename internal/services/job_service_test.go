package services

import (
	"context"
	"testing"
	"time"

	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/justsurfingit/InternConnect/internal/testutil"
)

func newJobService(t *testing.T) *JobService {
	db := testutil.SetupTestDB(t)
	ai, _ := newAI("")
	svc := NewJobService(db, ai)
	svc.now = clock
	return svc
}

func TestCreateJob_RequiresVerifiedEmployer(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	pendingUser, _ := testutil.CreateEmployer(t, svc.DB, "p@x.io", "Pending Co", models.VerificationPending)

	_, err := svc.CreateJob(ctx, pendingUser.ID, &dtos.JobCreationRequest{Title: "Intern", Description: "Go work"})
	wantKind(t, err, ErrForbidden)

	student := testutil.CreateUser(t, svc.DB, "s@x.io", models.RoleStudent)
	_, err = svc.CreateJob(ctx, student.ID, &dtos.JobCreationRequest{Title: "Intern", Description: "Go work"})
	wantKind(t, err, ErrNotFound)
}

func TestCreateJob_NormalizesAndEmbeds(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	user, employer := testutil.CreateEmployer(t, svc.DB, "v@x.io", "Gopher Inc", models.VerificationVerified)

	job, err := svc.CreateJob(ctx, user.ID, &dtos.JobCreationRequest{
		Title:       " Backend Intern ",
		Description: "Write Go services backed by SQL",
		Skills:      []string{"Go", "go", " SQL "},
		Hashtags:    []string{"#Backend", "backend"},
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.EmployerID != employer.ID || job.Status != models.JobOpen || job.JobType != models.JobTypeInternship {
		t.Errorf("job = %+v", job)
	}
	if len(job.Skills) != 2 || job.Skills[0] != "go" || job.Skills[1] != "sql" {
		t.Errorf("skills = %v", job.Skills)
	}
	if len(job.Hashtags) != 1 || job.Hashtags[0] != "backend" {
		t.Errorf("hashtags = %v", job.Hashtags)
	}

	var stored models.JobPosting
	if err := svc.DB.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if len(stored.Embedding) == 0 {
		t.Error("embedding not stored")
	}
}

func TestCreateJob_Validation(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	user, _ := testutil.CreateEmployer(t, svc.DB, "v@x.io", "Gopher Inc", models.VerificationVerified)
	past := fixedNow.Add(-time.Hour)

	cases := []struct {
		name string
		req  dtos.JobCreationRequest
	}{
		{"blank title", dtos.JobCreationRequest{Title: " ", Description: "d"}},
		{"unknown type", dtos.JobCreationRequest{Title: "t", Description: "d", JobType: "gig"}},
		{"past deadline", dtos.JobCreationRequest{Title: "t", Description: "d", Deadline: &past}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateJob(ctx, user.ID, &tc.req)
			wantKind(t, err, ErrValidation)
		})
	}
}

func TestJobOwnership(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	_, owner := testutil.CreateEmployer(t, svc.DB, "o@x.io", "Owner", models.VerificationVerified)
	otherUser, _ := testutil.CreateEmployer(t, svc.DB, "other@x.io", "Other", models.VerificationVerified)
	job := testutil.CreateJob(t, svc.DB, owner.ID, "Data Intern")

	_, err := svc.UpdateJob(ctx, otherUser.ID, job.ID, &dtos.JobCreationRequest{Title: "x", Description: "y"})
	wantKind(t, err, ErrForbidden)
	_, err = svc.SetStatus(ctx, otherUser.ID, job.ID, "closed")
	wantKind(t, err, ErrForbidden)
	wantKind(t, svc.DeleteJob(ctx, otherUser.ID, job.ID), ErrForbidden)
	wantKind(t, svc.DeleteJob(ctx, otherUser.ID, "missing"), ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	user, employer := testutil.CreateEmployer(t, svc.DB, "o@x.io", "Owner", models.VerificationVerified)
	job := testutil.CreateJob(t, svc.DB, employer.ID, "Data Intern")

	_, err := svc.SetStatus(ctx, user.ID, job.ID, "archived")
	wantKind(t, err, ErrValidation)

	closed, err := svc.SetStatus(ctx, user.ID, job.ID, "closed")
	if err != nil || closed.Status != models.JobClosed {
		t.Fatalf("close: %+v, %v", closed, err)
	}

	// a company that lost verification can close but not reopen
	svc.DB.Model(&employer).Update("verification_status", models.VerificationRejected)
	_, err = svc.SetStatus(ctx, user.ID, job.ID, "open")
	wantKind(t, err, ErrForbidden)
}

func TestDeleteJob_Cascades(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	user, employer := testutil.CreateEmployer(t, svc.DB, "o@x.io", "Owner", models.VerificationVerified)
	student := testutil.CreateUser(t, svc.DB, "s@x.io", models.RoleStudent)
	job := testutil.CreateJob(t, svc.DB, employer.ID, "Data Intern")
	keep := testutil.CreateJob(t, svc.DB, employer.ID, "Other Intern")

	app := models.Application{JobID: job.ID, StudentID: student.ID, Status: models.ApplicationPending}
	svc.DB.Create(&app)
	svc.DB.Create(&models.Application{JobID: keep.ID, StudentID: student.ID, Status: models.ApplicationPending})
	svc.DB.Create(&models.InterviewSchedule{ApplicationID: app.ID, JobID: job.ID, StudentID: student.ID,
		EmployerID: employer.ID, ScheduledAt: fixedNow.Add(time.Hour), Mode: models.InterviewOnline})
	svc.DB.Create(&models.JobMatch{StudentID: student.ID, JobID: job.ID, Score: 0.5})

	if err := svc.DeleteJob(ctx, user.ID, job.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	for name, model := range map[string]interface{}{
		"applications": &models.Application{},
		"interviews":   &models.InterviewSchedule{},
		"matches":      &models.JobMatch{},
	} {
		var n int64
		svc.DB.Model(model).Where("job_id = ?", job.ID).Count(&n)
		if n != 0 {
			t.Errorf("%s left behind: %d", name, n)
		}
	}
	var remaining int64
	svc.DB.Model(&models.Application{}).Where("job_id = ?", keep.ID).Count(&remaining)
	if remaining != 1 {
		t.Errorf("unrelated application removed")
	}
}

func TestListPublic_Filters(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	_, verified := testutil.CreateEmployer(t, svc.DB, "v@x.io", "Verified", models.VerificationVerified)
	_, pending := testutil.CreateEmployer(t, svc.DB, "p@x.io", "Pending", models.VerificationPending)

	goJob := testutil.CreateJob(t, svc.DB, verified.ID, "Go Backend Intern", "go")
	svc.DB.Model(&goJob).Updates(map[string]interface{}{"location": "Berlin", "remote": true})
	svc.DB.Model(&goJob).Select("hashtags").Updates(models.JobPosting{Hashtags: []string{"backend"}})
	design := testutil.CreateJob(t, svc.DB, verified.ID, "Design Intern", "figma")
	svc.DB.Model(&design).Update("job_type", models.JobTypePartTime)
	closed := testutil.CreateJob(t, svc.DB, verified.ID, "Closed Intern")
	svc.DB.Model(&closed).Update("status", models.JobClosed)
	testutil.CreateJob(t, svc.DB, pending.ID, "Hidden Intern")

	remote := true
	cases := []struct {
		name   string
		filter dtos.JobFilter
		want   int64
	}{
		{"all open verified", dtos.JobFilter{}, 2},
		{"query", dtos.JobFilter{Q: "BACKEND"}, 1},
		{"location", dtos.JobFilter{Location: "berl"}, 1},
		{"type", dtos.JobFilter{Type: "part_time"}, 1},
		{"remote", dtos.JobFilter{Remote: &remote}, 1},
		{"hashtag", dtos.JobFilter{Hashtag: "#Backend"}, 1},
		{"no match", dtos.JobFilter{Q: "rust"}, 0},
		{"percent is literal", dtos.JobFilter{Q: "%"}, 0},
		{"hashtag percent is literal", dtos.JobFilter{Hashtag: "%"}, 0},
		{"hashtag underscore is literal", dtos.JobFilter{Hashtag: "backen_"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := svc.ListPublic(ctx, tc.filter)
			if err != nil {
				t.Fatalf("ListPublic: %v", err)
			}
			if page.Total != tc.want || int64(len(page.Jobs)) != tc.want {
				t.Errorf("total = %d, jobs = %d, want %d", page.Total, len(page.Jobs), tc.want)
			}
			for _, j := range page.Jobs {
				if j.CompanyName != "Verified" {
					t.Errorf("company = %q", j.CompanyName)
				}
			}
		})
	}

	_, err := svc.ListPublic(ctx, dtos.JobFilter{Type: "gig"})
	wantKind(t, err, ErrValidation)

	page, err := svc.ListPublic(ctx, dtos.JobFilter{Limit: 500, Page: 1})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if page.Limit != maxPageSize {
		t.Errorf("limit = %d, want %d", page.Limit, maxPageSize)
	}
	page, _ = svc.ListPublic(ctx, dtos.JobFilter{Limit: 1, Page: 2})
	if len(page.Jobs) != 1 || page.Total != 2 {
		t.Errorf("second page = %d jobs of %d", len(page.Jobs), page.Total)
	}
}

func TestGetPublic_HidesUnverified(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	_, verified := testutil.CreateEmployer(t, svc.DB, "v@x.io", "Verified", models.VerificationVerified)
	_, pending := testutil.CreateEmployer(t, svc.DB, "p@x.io", "Pending", models.VerificationPending)
	visible := testutil.CreateJob(t, svc.DB, verified.ID, "Visible")
	hidden := testutil.CreateJob(t, svc.DB, pending.ID, "Hidden")

	view, err := svc.GetPublic(ctx, visible.ID)
	if err != nil || view.CompanyName != "Verified" || !view.AcceptingApplications {
		t.Fatalf("GetPublic = %+v, %v", view, err)
	}
	_, err = svc.GetPublic(ctx, hidden.ID)
	wantKind(t, err, ErrNotFound)
	_, err = svc.GetPublic(ctx, "nope")
	wantKind(t, err, ErrNotFound)
}

func TestListEmployerJobs_CountsApplicants(t *testing.T) {
	svc := newJobService(t)
	ctx := context.Background()
	user, employer := testutil.CreateEmployer(t, svc.DB, "o@x.io", "Owner", models.VerificationVerified)
	job := testutil.CreateJob(t, svc.DB, employer.ID, "Data Intern")
	for i, status := range []models.ApplicationStatus{models.ApplicationPending, models.ApplicationAccepted, models.ApplicationWithdrawn} {
		s := testutil.CreateUser(t, svc.DB, string(rune('a'+i))+"@x.io", models.RoleStudent)
		svc.DB.Create(&models.Application{JobID: job.ID, StudentID: s.ID, Status: status})
	}

	jobs, err := svc.ListEmployerJobs(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListEmployerJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ApplicantCount != 2 {
		t.Errorf("jobs = %+v", jobs)
	}
}
