package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const maxPromptInput = 20000

// ErrAIUnavailable is returned when no Gemini key is configured.
var ErrAIUnavailable = errors.New("AI features are not configured")

// Embedder is satisfied by the langchaingo Google AI client.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type LLMService struct {
	Client   llms.Model
	Embedder Embedder
}

// NewLLMService initializes the Gemini client used for generation and embeddings.
func NewLLMService(ctx context.Context, apiKey, chatModel, embeddingModel string) (*LLMService, error) {
	if apiKey == "" {
		return nil, ErrAIUnavailable
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(chatModel),
		googleai.WithDefaultEmbeddingModel(embeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &LLMService{Client: llm, Embedder: llm}, nil
}

func (s *LLMService) enabled() bool {
	return s != nil && s.Client != nil
}

// ExtractJobDetails takes raw HTML and returns a structured object
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (string, error) {
	if !s.enabled() {
		return "", ErrAIUnavailable
	}
	const JobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company (e.g., Google, StartupInc)",
    "role_title": "Job title (e.g., Software Engineering Intern)",
    "location": "Job location or 'Remote'",
    "description": "A clean summary of the job. Focus on Responsibilities and Requirements. Remove HTML tags.",
    "tech_stack": ["Array", "of", "technologies", "mentioned", "e.g., Go, React, AWS"],
    "salary_range": "The salary string if explicitly mentioned (e.g., '$25/hour'), otherwise null"
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`
	prompt := fmt.Sprintf(JobExtractionPrompt, truncate(rawHTML, maxPromptInput))
	var resp string
	err := retry(ctx, 3, retryBackoff, func() error {
		var e error
		resp, e = llms.GenerateFromSinglePrompt(ctx, s.Client, prompt, llms.WithTemperature(0.1))
		return e
	})
	if err != nil {
		return "", err
	}
	resp = cleanJSON(resp)
	var extracted dtos.ExtractedJob
	if err := json.Unmarshal([]byte(resp), &extracted); err != nil {
		return "", fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return resp, nil
}

const resumePrompt = `
You are a resume parsing assistant. Read the attached resume (it may be a scanned document; perform OCR as needed).

Return a single JSON object with exactly these fields:
{
  "summary": "Three sentence professional summary of the candidate",
  "skills": ["technical and professional skills, one per entry, short names"],
  "text": "The full plain text of the resume"
}

Return only valid JSON. Do not include explanations or markdown.
`

// ParseResume extracts plain text, a summary and skills from an uploaded resume.
// Images and PDFs are sent to the model as binary parts; plain text is inlined.
func (s *LLMService) ParseResume(ctx context.Context, mimeType string, data []byte) (*dtos.ParsedResume, error) {
	if !s.enabled() {
		return nil, ErrAIUnavailable
	}
	var parts []llms.ContentPart
	if strings.HasPrefix(mimeType, "text/") {
		parts = append(parts, llms.TextPart(resumePrompt+"\n### RESUME:\n"+truncate(string(data), maxPromptInput)))
	} else {
		parts = append(parts, llms.BinaryPart(mimeType, data), llms.TextPart(resumePrompt))
	}
	messages := []llms.MessageContent{{Role: llms.ChatMessageTypeHuman, Parts: parts}}

	var content string
	err := retry(ctx, 3, retryBackoff, func() error {
		resp, e := s.Client.GenerateContent(ctx, messages, llms.WithTemperature(0))
		if e != nil {
			return e
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty response from model")
		}
		content = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		return nil, err
	}

	var parsed dtos.ParsedResume
	if err := json.Unmarshal([]byte(cleanJSON(content)), &parsed); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	if strings.HasPrefix(mimeType, "text/") && parsed.Text == "" {
		parsed.Text = string(data)
	}
	parsed.Skills = normalizeTags(parsed.Skills)
	return &parsed, nil
}

// DraftCoverLetter writes a short cover letter for profile applying to job.
func (s *LLMService) DraftCoverLetter(ctx context.Context, profile models.StudentProfile, job models.JobPosting, company string) (string, error) {
	if !s.enabled() {
		return "", ErrAIUnavailable
	}
	var sb strings.Builder
	sb.WriteString("You are a career assistant helping a student write a cover letter.\n")
	sb.WriteString("Write a concise, professional cover letter (under 250 words). Use only facts given below. Return plain text only.\n\n")
	sb.WriteString("## JOB\n")
	fmt.Fprintf(&sb, "Company: %s\nTitle: %s\n", company, job.Title)
	fmt.Fprintf(&sb, "Description: %s\n", truncate(job.Description, 3000))
	if len(job.Skills) > 0 {
		fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(job.Skills, ", "))
	}
	sb.WriteString("\n## CANDIDATE\n")
	fmt.Fprintf(&sb, "Name: %s\nUniversity: %s\nDegree: %s\n", profile.FullName, profile.University, profile.Degree)
	if len(profile.Skills) > 0 {
		fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(profile.Skills, ", "))
	}
	if profile.ResumeSummary != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", profile.ResumeSummary)
	}

	var letter string
	err := retry(ctx, 3, retryBackoff, func() error {
		var e error
		letter, e = llms.GenerateFromSinglePrompt(ctx, s.Client, sb.String(), llms.WithTemperature(0.7))
		return e
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(letter), nil
}

// Embed returns the embedding vector for text.
func (s *LLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	if s == nil || s.Embedder == nil {
		return nil, ErrAIUnavailable
	}
	var vectors [][]float32
	err := retry(ctx, 3, retryBackoff, func() error {
		var e error
		vectors, e = s.Embedder.CreateEmbedding(ctx, []string{truncate(text, maxPromptInput)})
		return e
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return vectors[0], nil
}

// cleanJSON strips the markdown fences models add despite being told not to.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
