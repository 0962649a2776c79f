package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/justsurfingit/InternConnect/internal/storage"
	"gorm.io/gorm"
)

type StudentService struct {
	DB     *gorm.DB
	Store  storage.Store
	LLM    *LLMService
	URLTTL time.Duration
	now    func() time.Time
}

func NewStudentService(db *gorm.DB, store storage.Store, llm *LLMService, urlTTL time.Duration) *StudentService {
	return &StudentService{DB: db, Store: store, LLM: llm, URLTTL: urlTTL, now: time.Now}
}

// ProfileView is the profile plus derived fields.
type ProfileView struct {
	models.StudentProfile
	Complete  bool `json:"complete"`
	HasResume bool `json:"has_resume"`
}

// ResumeResult reports an upload. ParseError is set when the file was stored
// but could not be read by the model.
type ResumeResult struct {
	Profile    ProfileView `json:"profile"`
	ParseError string      `json:"parse_error,omitempty"`
}

func (s *StudentService) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileView(profile), nil
}

// UpdateProfile creates the profile on first use and overwrites the editable fields.
func (s *StudentService) UpdateProfile(ctx context.Context, userID string, req *dtos.StudentProfileRequest) (*ProfileView, error) {
	var profile models.StudentProfile
	err := s.DB.WithContext(ctx).Where(models.StudentProfile{UserID: userID}).FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}

	profile.FullName = strings.TrimSpace(req.FullName)
	profile.University = strings.TrimSpace(req.University)
	profile.Degree = strings.TrimSpace(req.Degree)
	profile.GraduationYear = req.GraduationYear
	profile.Bio = strings.TrimSpace(req.Bio)
	profile.Skills = normalizeTags(req.Skills)
	profile.Phone = strings.TrimSpace(req.Phone)
	profile.Location = strings.TrimSpace(req.Location)
	if profile.ResumeKey != "" {
		s.embedProfile(ctx, &profile)
	}

	if err := s.DB.WithContext(ctx).Save(&profile).Error; err != nil {
		return nil, err
	}
	return profileView(profile), nil
}

// UploadResume stores the file, then asks the model to read it and embeds the result.
// AI failures keep the stored file and are reported in ParseError.
func (s *StudentService) UploadResume(ctx context.Context, userID string, up Upload) (*ResumeResult, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	mimeType, ext, err := sniff(up, resumeTypes)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("resumes/%s/%s%s", userID, uuid.NewString(), ext)
	if err := s.Store.Put(ctx, key, mimeType, bytes.NewReader(up.Data)); err != nil {
		return nil, fmt.Errorf("store resume: %w", err)
	}
	previous := profile.ResumeKey
	profile.ResumeKey = key
	result := &ResumeResult{}

	parsed, err := s.LLM.ParseResume(ctx, mimeType, up.Data)
	if err != nil {
		logging.L.Warn("⚠️ resume parsing failed", "student_id", userID, "error", err)
		result.ParseError = parseErrorMessage(err)
		profile.ResumeText = ""
		profile.ResumeSummary = ""
		if mimeType == "text/plain" {
			profile.ResumeText = string(up.Data)
		}
	} else {
		profile.ResumeText = parsed.Text
		profile.ResumeSummary = parsed.Summary
		profile.Skills = normalizeTags(append(profile.Skills, parsed.Skills...))
	}
	if !s.embedProfile(ctx, &profile) && result.ParseError == "" {
		result.ParseError = "resume stored but embedding failed; matches will refresh later"
	}

	if err := s.DB.WithContext(ctx).Save(&profile).Error; err != nil {
		return nil, err
	}
	if previous != "" && previous != key {
		if err := s.Store.Delete(ctx, previous); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logging.L.Warn("old resume not deleted", "key", previous, "error", err)
		}
	}
	logging.L.Info("Resume uploaded", "student_id", userID, "key", key, "parsed", result.ParseError == "")
	result.Profile = *profileView(profile)
	return result, nil
}

// ResumeURL returns a time-limited download link for the student's resume.
func (s *StudentService) ResumeURL(ctx context.Context, userID string) (string, time.Time, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	if profile.ResumeKey == "" {
		return "", time.Time{}, notFound("resume")
	}
	url, err := s.Store.SignedURL(ctx, profile.ResumeKey, s.URLTTL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", time.Time{}, notFound("resume")
		}
		return "", time.Time{}, err
	}
	return url, s.now().Add(s.URLTTL).UTC(), nil
}

func (s *StudentService) profile(ctx context.Context, userID string) (models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return profile, lookup(err, "student profile")
	}
	return profile, nil
}

// embedProfile refreshes the resume embedding and reports whether it succeeded.
func (s *StudentService) embedProfile(ctx context.Context, p *models.StudentProfile) bool {
	doc := studentDocument(*p)
	if strings.TrimSpace(doc) == "" {
		return false
	}
	vec, err := s.LLM.Embed(ctx, doc)
	if err != nil {
		if !errors.Is(err, ErrAIUnavailable) {
			logging.L.Warn("⚠️ resume embedding failed", "student_id", p.UserID, "error", err)
		}
		return false
	}
	now := s.now().UTC()
	p.ResumeEmbedding = vec
	p.EmbeddingUpdatedAt = &now
	return true
}

func profileView(p models.StudentProfile) *ProfileView {
	return &ProfileView{StudentProfile: p, Complete: isComplete(p), HasResume: p.ResumeKey != ""}
}

func parseErrorMessage(err error) string {
	if errors.Is(err, ErrAIUnavailable) {
		return "resume stored; automatic parsing is not configured"
	}
	return "resume stored but could not be parsed"
}
