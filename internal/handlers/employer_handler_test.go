package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/justsurfingit/InternConnect/internal/testutil"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestEmployerRegistrationAndProfile(t *testing.T) {
	s := newTestServer(t)
	hr := testutil.CreateUser(t, s.db, "hr@acme.test", models.RoleEmployer)
	token := s.token(hr)

	wantStatus(t, s.do(http.MethodGet, "/api/employer/profile", nil, token), http.StatusNotFound)
	wantStatus(t, s.do(http.MethodPost, "/api/employer/register", gin.H{"company_name": "Acme", "website": "not a url"}, token), http.StatusBadRequest)

	w := s.do(http.MethodPost, "/api/employer/register", gin.H{"company_name": "Acme", "website": "https://acme.test"}, token)
	wantStatus(t, w, http.StatusCreated)
	var employer models.Employer
	decode(t, w, &employer)
	if employer.VerificationStatus != models.VerificationPending {
		t.Errorf("status = %s, want pending", employer.VerificationStatus)
	}
	wantStatus(t, s.do(http.MethodPost, "/api/employer/register", gin.H{"company_name": "Acme again"}, token), http.StatusConflict)

	w = s.upload("/api/employer/logo", "logo.png", pngHeader, token)
	wantStatus(t, w, http.StatusOK)

	w = s.do(http.MethodGet, "/api/employer/profile", nil, token)
	wantStatus(t, w, http.StatusOK)
	var view struct {
		CompanyName string `json:"company_name"`
		LogoURL     string `json:"logo_url"`
	}
	decode(t, w, &view)
	if view.CompanyName != "Acme" || !strings.HasPrefix(view.LogoURL, "http://api.test/files/logos/"+employer.ID+"/") {
		t.Errorf("profile = %+v", view)
	}

	// unverified companies have no public page yet
	wantStatus(t, s.do(http.MethodGet, "/api/employers/"+employer.ID, nil, ""), http.StatusNotFound)
}

func TestApplicationStatusAndInterviews(t *testing.T) {
	s := newTestServer(t)
	hr, employer := testutil.CreateEmployer(t, s.db, "hr@acme.test", "Acme", models.VerificationVerified)
	rival, _ := testutil.CreateEmployer(t, s.db, "hr@rival.test", "Rival", models.VerificationVerified)
	student := testutil.CreateUser(t, s.db, "s@uni.test", models.RoleStudent)
	job := testutil.CreateJob(t, s.db, employer.ID, "Go Intern", "go")

	w := s.do(http.MethodPost, "/api/student/applications", gin.H{"job_id": job.ID}, s.token(student))
	wantStatus(t, w, http.StatusCreated)
	var app models.Application
	decode(t, w, &app)

	statusPath := "/api/employer/applications/" + app.ID + "/status"
	wantStatus(t, s.do(http.MethodPatch, statusPath, gin.H{"status": "hired"}, s.token(hr)), http.StatusBadRequest)
	wantStatus(t, s.do(http.MethodPatch, statusPath, gin.H{"status": "withdrawn"}, s.token(hr)), http.StatusBadRequest)
	wantStatus(t, s.do(http.MethodPatch, statusPath, gin.H{"status": "reviewing"}, s.token(rival)), http.StatusForbidden)
	wantStatus(t, s.do(http.MethodPatch, statusPath, gin.H{"status": "reviewing"}, s.token(hr)), http.StatusOK)

	interview := gin.H{
		"application_id": app.ID,
		"scheduled_at":   time.Now().Add(48 * time.Hour).UTC(),
		"mode":           "online",
		"meeting_link":   "https://meet.test/abc",
	}
	past := gin.H{"application_id": app.ID, "scheduled_at": time.Now().Add(-time.Hour).UTC(), "mode": "online"}
	wantStatus(t, s.do(http.MethodPost, "/api/employer/interviews", past, s.token(hr)), http.StatusBadRequest)

	before := len(s.mail.Sent())
	w = s.do(http.MethodPost, "/api/employer/interviews", interview, s.token(hr))
	wantStatus(t, w, http.StatusCreated)
	var iv models.InterviewSchedule
	decode(t, w, &iv)
	if iv.DurationMinutes != 30 || iv.Status != models.InterviewScheduled {
		t.Errorf("interview = %+v", iv)
	}
	if sent := s.mail.Sent(); len(sent) != before+1 || sent[len(sent)-1].To != "s@uni.test" {
		t.Errorf("scheduling mail not sent: %+v", sent)
	}

	var stored models.Application
	if err := s.db.First(&stored, "id = ?", app.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.ApplicationWaitlisted {
		t.Errorf("application status = %s, want waitlisted", stored.Status)
	}

	w = s.do(http.MethodGet, "/api/student/interviews", nil, s.token(student))
	wantStatus(t, w, http.StatusOK)
	var studentView struct {
		Interviews []struct {
			ID       string `json:"id"`
			JobTitle string `json:"job_title"`
		} `json:"interviews"`
	}
	decode(t, w, &studentView)
	if len(studentView.Interviews) != 1 || studentView.Interviews[0].JobTitle != "Go Intern" {
		t.Errorf("student interviews = %+v", studentView.Interviews)
	}

	wantStatus(t, s.do(http.MethodPut, "/api/employer/interviews/"+iv.ID, gin.H{"notes": "Bring a laptop"}, s.token(hr)), http.StatusOK)
	wantStatus(t, s.do(http.MethodDelete, "/api/employer/interviews/"+iv.ID, nil, s.token(rival)), http.StatusForbidden)
	w = s.do(http.MethodDelete, "/api/employer/interviews/"+iv.ID, nil, s.token(hr))
	wantStatus(t, w, http.StatusOK)
	decode(t, w, &iv)
	if iv.Status != models.InterviewCancelled {
		t.Errorf("status = %s, want cancelled", iv.Status)
	}

	before = len(s.mail.Sent())
	wantStatus(t, s.do(http.MethodPatch, statusPath, gin.H{"status": "accepted", "note": "Welcome aboard"}, s.token(hr)), http.StatusOK)
	sent := s.mail.Sent()
	if len(sent) != before+1 || !strings.Contains(sent[len(sent)-1].Body, "Welcome aboard") {
		t.Errorf("decision mail = %+v", sent)
	}
}

func TestTopCompaniesAndPublicProfile(t *testing.T) {
	s := newTestServer(t)
	_, acme := testutil.CreateEmployer(t, s.db, "hr@acme.test", "Acme", models.VerificationVerified)
	_, globex := testutil.CreateEmployer(t, s.db, "hr@globex.test", "Globex", models.VerificationVerified)
	acmeJob := testutil.CreateJob(t, s.db, acme.ID, "Go Intern")
	globexJob := testutil.CreateJob(t, s.db, globex.ID, "Design Intern")

	for i, email := range []string{"a@uni.test", "b@uni.test", "c@uni.test"} {
		student := testutil.CreateUser(t, s.db, email, models.RoleStudent)
		jobID := globexJob.ID
		if i == 0 {
			jobID = acmeJob.ID
		}
		wantStatus(t, s.do(http.MethodPost, "/api/student/applications", gin.H{"job_id": jobID}, s.token(student)), http.StatusCreated)
	}

	w := s.do(http.MethodGet, "/api/companies/top?limit=1", nil, "")
	wantStatus(t, w, http.StatusOK)
	var top struct {
		Companies []struct {
			CompanyName string `json:"company_name"`
			Applicants  int64  `json:"applicants"`
		} `json:"companies"`
	}
	decode(t, w, &top)
	if len(top.Companies) != 1 || top.Companies[0].CompanyName != "Globex" || top.Companies[0].Applicants != 2 {
		t.Errorf("top = %+v", top.Companies)
	}

	w = s.do(http.MethodGet, "/api/employers/"+acme.ID, nil, "")
	wantStatus(t, w, http.StatusOK)
	var page struct {
		CompanyName string `json:"company_name"`
		Jobs        []struct {
			ID string `json:"id"`
		} `json:"jobs"`
	}
	decode(t, w, &page)
	if page.CompanyName != "Acme" || len(page.Jobs) != 1 || page.Jobs[0].ID != acmeJob.ID {
		t.Errorf("company page = %+v", page)
	}
}
