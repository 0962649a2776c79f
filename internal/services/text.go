package services

import (
	"fmt"
	"strings"

	"github.com/justsurfingit/InternConnect/internal/models"
)

// normalizeTags lowercases, trims and de-duplicates skills or hashtags, keeping first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), "#")))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeQuery is the SQL condition column LIKE ? with a backslash escape.
func likeQuery(column string) string {
	return column + ` LIKE ? ESCAPE '\'`
}

// escapeLike makes s match literally inside a LIKE pattern built with likeQuery.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// studentDocument is the text embedded for a student.
func studentDocument(p models.StudentProfile) string {
	var sb strings.Builder
	if p.Degree != "" {
		fmt.Fprintf(&sb, "Degree: %s\n", p.Degree)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(p.Skills, ", "))
	}
	if p.ResumeSummary != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", p.ResumeSummary)
	}
	if p.Bio != "" {
		fmt.Fprintf(&sb, "Bio: %s\n", p.Bio)
	}
	if p.ResumeText != "" {
		fmt.Fprintf(&sb, "Resume:\n%s\n", truncate(p.ResumeText, 8000))
	}
	return sb.String()
}

// jobDocument is the text embedded for a job posting.
func jobDocument(j models.JobPosting) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", j.Title)
	if len(j.Skills) > 0 {
		fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(j.Skills, ", "))
	}
	if j.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", j.Location)
	}
	fmt.Fprintf(&sb, "Type: %s\n", j.JobType)
	fmt.Fprintf(&sb, "Description:\n%s\n", truncate(j.Description, 8000))
	return sb.String()
}

// isComplete reports whether a student profile has the fields employers rely on.
func isComplete(p models.StudentProfile) bool {
	return strings.TrimSpace(p.FullName) != "" &&
		strings.TrimSpace(p.University) != "" &&
		len(p.Skills) > 0 &&
		p.ResumeKey != ""
}
