package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// Base carries the id and timestamps shared by every table.
// IDs are generated here so they are known before the row is written.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type User struct {
	Base

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(16);index;not null" json:"role"`
	FullName     string `json:"full_name"`
}

type StudentProfile struct {
	Base

	UserID         string   `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	FullName       string   `json:"full_name"`
	University     string   `json:"university"`
	Degree         string   `json:"degree"`
	GraduationYear int      `json:"graduation_year"`
	Bio            string   `gorm:"type:text" json:"bio"`
	Skills         []string `gorm:"type:text;serializer:json" json:"skills"`
	Phone          string   `json:"phone"`
	Location       string   `json:"location"`

	ResumeKey          string     `json:"resume_key,omitempty"`
	ResumeText         string     `gorm:"type:text" json:"-"`
	ResumeSummary      string     `gorm:"type:text" json:"resume_summary,omitempty"`
	ResumeEmbedding    []float32  `gorm:"type:text;serializer:json" json:"-"`
	EmbeddingUpdatedAt *time.Time `json:"embedding_updated_at,omitempty"`
}

func (StudentProfile) TableName() string { return "student_profile" }

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

type Employer struct {
	Base

	UserID             string             `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	CompanyName        string             `gorm:"not null" json:"company_name"`
	Industry           string             `json:"industry"`
	Website            string             `json:"website"`
	Description        string             `gorm:"type:text" json:"description"`
	Location           string             `json:"location"`
	LogoKey            string             `json:"logo_key,omitempty"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(16);index;default:'pending'" json:"verification_status"`
	VerificationNote   string             `json:"verification_note,omitempty"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
}

func (Employer) TableName() string { return "registered_employers" }

type JobType string

const (
	JobTypeInternship JobType = "internship"
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeInternship, JobTypeFullTime, JobTypePartTime, JobTypeContract:
		return true
	}
	return false
}

type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

func (s JobStatus) Valid() bool {
	return s == JobOpen || s == JobClosed
}

type JobPosting struct {
	Base

	EmployerID  string     `gorm:"type:varchar(36);index;not null" json:"employer_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Location    string     `json:"location"`
	JobType     JobType    `gorm:"type:varchar(16);default:'internship'" json:"job_type"`
	Remote      bool       `json:"remote"`
	SalaryRange string     `json:"salary_range"`
	Skills      []string   `gorm:"type:text;serializer:json" json:"skills"`
	Hashtags    []string   `gorm:"type:text;serializer:json" json:"hashtags"`
	Status      JobStatus  `gorm:"type:varchar(16);index;default:'open'" json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Embedding   []float32  `gorm:"type:text;serializer:json" json:"-"`
}

// AcceptsApplications reports whether a student may still apply at now.
func (j JobPosting) AcceptsApplications(now time.Time) bool {
	if j.Status != JobOpen {
		return false
	}
	return j.Deadline == nil || now.Before(*j.Deadline)
}

type ApplicationStatus string

const (
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationReviewing  ApplicationStatus = "reviewing"
	ApplicationWaitlisted ApplicationStatus = "waitlisted"
	ApplicationAccepted   ApplicationStatus = "accepted"
	ApplicationRejected   ApplicationStatus = "rejected"
	ApplicationWithdrawn  ApplicationStatus = "withdrawn"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationReviewing, ApplicationWaitlisted,
		ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn:
		return true
	}
	return false
}

type Application struct {
	Base

	JobID        string            `gorm:"type:varchar(36);uniqueIndex:idx_application_job_student;not null" json:"job_id"`
	StudentID    string            `gorm:"type:varchar(36);uniqueIndex:idx_application_job_student;index;not null" json:"student_id"`
	CoverLetter  string            `gorm:"type:text" json:"cover_letter"`
	Status       ApplicationStatus `gorm:"type:varchar(16);index;default:'pending'" json:"status"`
	EmployerNote string            `gorm:"type:text" json:"employer_note,omitempty"`
}

type InterviewMode string

const (
	InterviewOnline InterviewMode = "online"
	InterviewOnsite InterviewMode = "onsite"
	InterviewPhone  InterviewMode = "phone"
)

func (m InterviewMode) Valid() bool {
	switch m {
	case InterviewOnline, InterviewOnsite, InterviewPhone:
		return true
	}
	return false
}

type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewScheduled, InterviewCompleted, InterviewCancelled:
		return true
	}
	return false
}

type InterviewSchedule struct {
	Base

	ApplicationID   string          `gorm:"type:varchar(36);index;not null" json:"application_id"`
	JobID           string          `gorm:"type:varchar(36);index;not null" json:"job_id"`
	StudentID       string          `gorm:"type:varchar(36);index;not null" json:"student_id"`
	EmployerID      string          `gorm:"type:varchar(36);index;not null" json:"employer_id"`
	ScheduledAt     time.Time       `gorm:"index;not null" json:"scheduled_at"`
	DurationMinutes int             `gorm:"default:30" json:"duration_minutes"`
	Mode            InterviewMode   `gorm:"type:varchar(16)" json:"mode"`
	Location        string          `json:"location,omitempty"`
	MeetingLink     string          `json:"meeting_link,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	Status          InterviewStatus `gorm:"type:varchar(16);index;default:'scheduled'" json:"status"`
	ReminderSent    bool            `gorm:"default:false" json:"reminder_sent"`
}

type JobMatch struct {
	Base

	StudentID     string   `gorm:"type:varchar(36);uniqueIndex:idx_match_student_job;not null" json:"student_id"`
	JobID         string   `gorm:"type:varchar(36);uniqueIndex:idx_match_student_job;not null" json:"job_id"`
	Score         float64  `json:"score"`
	MatchedSkills []string `gorm:"type:text;serializer:json" json:"matched_skills"`
}

type Post struct {
	Base

	AuthorID string   `gorm:"type:varchar(36);index;not null" json:"author_id"`
	Body     string   `gorm:"type:text;not null" json:"body"`
	Hashtags []string `gorm:"type:text;serializer:json" json:"hashtags"`
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&StudentProfile{},
		&Employer{},
		&JobPosting{},
		&Application{},
		&InterviewSchedule{},
		&JobMatch{},
		&Post{},
	}
}
