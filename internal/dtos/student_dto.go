package dtos

type StudentProfileRequest struct {
	FullName       string   `json:"full_name"`
	University     string   `json:"university"`
	Degree         string   `json:"degree"`
	GraduationYear int      `json:"graduation_year" binding:"omitempty,min=1950,max=2100"`
	Bio            string   `json:"bio"`
	Skills         []string `json:"skills"`
	Phone          string   `json:"phone"`
	Location       string   `json:"location"`
}

type ApplyRequest struct {
	JobID       string `json:"job_id" binding:"required"`
	CoverLetter string `json:"cover_letter"`
}

type CoverLetterRequest struct {
	JobID string `json:"job_id" binding:"required"`
}

// ParsedResume is what the resume OCR prompt returns.
type ParsedResume struct {
	Summary string   `json:"summary"`
	Skills  []string `json:"skills"`
	Text    string   `json:"text"`
}
