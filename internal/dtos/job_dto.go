package dtos

import "time"

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

type JobCreationRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`

	// Optional Fields
	Location    string     `json:"location"`
	JobType     string     `json:"job_type"` // Defaults to "internship" if empty
	Remote      bool       `json:"remote"`
	SalaryRange string     `json:"salary_range"`
	Skills      []string   `json:"skills"`
	Hashtags    []string   `json:"hashtags"`
	Deadline    *time.Time `json:"deadline"`
}

type JobStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// JobFilter is bound from the query string of the public job board.
type JobFilter struct {
	Q        string `form:"q"`
	Location string `form:"location"`
	Type     string `form:"type"`
	Remote   *bool  `form:"remote"`
	Hashtag  string `form:"hashtag"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// ExtractedJob is the shape the extraction prompt asks the model for.
type ExtractedJob struct {
	CompanyName string   `json:"company_name"`
	Title       string   `json:"role_title"`
	Location    *string  `json:"location"`
	Description string   `json:"description"`
	TechStack   []string `json:"tech_stack"`
	SalaryRange *string  `json:"salary_range"`
}
