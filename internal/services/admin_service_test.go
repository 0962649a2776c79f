package services

import (
	"context"
	"testing"
	"time"

	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/justsurfingit/InternConnect/internal/testutil"
	"gorm.io/gorm"
)

func newAdminService(t *testing.T) (*AdminService, *testutil.RecordingMailer) {
	db := testutil.SetupTestDB(t)
	mail := &testutil.RecordingMailer{}
	employers := NewEmployerService(db, testutil.NewMemoryStore(), time.Minute)
	svc := NewAdminService(db, employers, NewEmailService(db, mail))
	svc.now = clock
	return svc, mail
}

func applyTo(t *testing.T, db *gorm.DB, job models.JobPosting, n int, status models.ApplicationStatus) {
	t.Helper()
	for i := 0; i < n; i++ {
		s := testutil.CreateUser(t, db, job.ID[:8]+string(status)+string(rune('a'+i))+"@x.io", models.RoleStudent)
		if err := db.Create(&models.Application{JobID: job.ID, StudentID: s.ID, Status: status}).Error; err != nil {
			t.Fatalf("create application: %v", err)
		}
	}
}

func TestSetVerification(t *testing.T) {
	svc, mail := newAdminService(t)
	ctx := context.Background()
	user, company := testutil.CreateEmployer(t, svc.DB, "hr@x.io", "Gopher Inc", models.VerificationPending)

	_, err := svc.SetVerification(ctx, company.ID, &dtos.VerificationRequest{Status: "approved"})
	wantKind(t, err, ErrValidation)
	_, err = svc.SetVerification(ctx, "missing", &dtos.VerificationRequest{Status: "verified"})
	wantKind(t, err, ErrNotFound)

	verified, err := svc.SetVerification(ctx, company.ID, &dtos.VerificationRequest{Status: "verified", Note: " ok "})
	if err != nil {
		t.Fatalf("SetVerification: %v", err)
	}
	if verified.VerificationStatus != models.VerificationVerified || verified.VerifiedAt == nil || verified.VerificationNote != "ok" {
		t.Errorf("employer = %+v", verified)
	}
	if msgs := mail.Sent(); len(msgs) != 1 || msgs[0].To != user.Email {
		t.Errorf("messages = %+v", msgs)
	}

	// same status again does not re-send
	if _, err := svc.SetVerification(ctx, company.ID, &dtos.VerificationRequest{Status: "verified"}); err != nil {
		t.Fatalf("SetVerification: %v", err)
	}
	if n := len(mail.Sent()); n != 1 {
		t.Errorf("sent %d emails, want 1", n)
	}

	rejected, err := svc.SetVerification(ctx, company.ID, &dtos.VerificationRequest{Status: "rejected"})
	if err != nil || rejected.VerifiedAt != nil {
		t.Errorf("rejected = %+v, %v", rejected, err)
	}
}

func TestListEmployers(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()
	testutil.CreateEmployer(t, svc.DB, "a@x.io", "A", models.VerificationPending)
	testutil.CreateEmployer(t, svc.DB, "b@x.io", "B", models.VerificationVerified)
	testutil.CreateEmployer(t, svc.DB, "c@x.io", "C", models.VerificationPending)

	pending, err := svc.ListEmployers(ctx, "pending")
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
	all, err := svc.ListEmployers(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("all = %d, %v", len(all), err)
	}
	_, err = svc.ListEmployers(ctx, "maybe")
	wantKind(t, err, ErrValidation)
}

func TestStats(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()
	_, big := testutil.CreateEmployer(t, svc.DB, "big@x.io", "Big Co", models.VerificationVerified)
	_, small := testutil.CreateEmployer(t, svc.DB, "small@x.io", "Small Co", models.VerificationPending)
	bigJob := testutil.CreateJob(t, svc.DB, big.ID, "Big Intern")
	bigClosed := testutil.CreateJob(t, svc.DB, big.ID, "Big Closed")
	svc.DB.Model(&bigClosed).Update("status", models.JobClosed)
	smallJob := testutil.CreateJob(t, svc.DB, small.ID, "Small Intern")

	applyTo(t, svc.DB, bigJob, 3, models.ApplicationPending)
	applyTo(t, svc.DB, bigClosed, 1, models.ApplicationAccepted)
	applyTo(t, svc.DB, smallJob, 1, models.ApplicationPending)
	applyTo(t, svc.DB, smallJob, 2, models.ApplicationWithdrawn)

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.UsersByRole["student"] != 7 || stats.UsersByRole["employer"] != 2 || stats.UsersByRole["admin"] != 0 {
		t.Errorf("users = %v", stats.UsersByRole)
	}
	if stats.EmployersByStatus["verified"] != 1 || stats.EmployersByStatus["pending"] != 1 || stats.EmployersByStatus["rejected"] != 0 {
		t.Errorf("employers = %v", stats.EmployersByStatus)
	}
	if stats.JobsByStatus["open"] != 2 || stats.JobsByStatus["closed"] != 1 {
		t.Errorf("jobs = %v", stats.JobsByStatus)
	}
	if stats.ApplicationsByStatus["pending"] != 4 || stats.ApplicationsByStatus["withdrawn"] != 2 {
		t.Errorf("applications = %v", stats.ApplicationsByStatus)
	}

	if len(stats.TopCompanies) != 2 {
		t.Fatalf("top = %+v", stats.TopCompanies)
	}
	first, second := stats.TopCompanies[0], stats.TopCompanies[1]
	if first.CompanyName != "Big Co" || first.Applicants != 4 || first.OpenJobs != 1 {
		t.Errorf("first = %+v", first)
	}
	if second.CompanyName != "Small Co" || second.Applicants != 1 {
		t.Errorf("second = %+v", second)
	}

	public, err := svc.Employers.TopCompanies(ctx, 10, true)
	if err != nil || len(public) != 1 || public[0].CompanyName != "Big Co" {
		t.Errorf("public top = %+v, %v", public, err)
	}
}

func TestListUsersAndDeleteJob(t *testing.T) {
	svc, _ := newAdminService(t)
	ctx := context.Background()
	_, company := testutil.CreateEmployer(t, svc.DB, "hr@x.io", "Gopher Inc", models.VerificationVerified)
	testutil.CreateUser(t, svc.DB, "s@x.io", models.RoleStudent)
	job := testutil.CreateJob(t, svc.DB, company.ID, "Intern")

	students, err := svc.ListUsers(ctx, "student")
	if err != nil || len(students) != 1 {
		t.Fatalf("students = %+v, %v", students, err)
	}
	_, err = svc.ListUsers(ctx, "robot")
	wantKind(t, err, ErrValidation)

	if err := svc.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	wantKind(t, svc.DeleteJob(ctx, job.ID), ErrNotFound)
}
