package services

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/justsurfingit/InternConnect/internal/dtos"
	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

type PostService struct {
	DB *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{DB: db}
}

// PostView is a post with its author's display name and role.
type PostView struct {
	models.Post
	AuthorName string      `json:"author_name"`
	AuthorRole models.Role `json:"author_role"`
}

// HashtagCount is one row of the trending list.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ExtractHashtags returns the lowercased #tags of body, each once, in order of appearance.
func ExtractHashtags(body string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(body, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return normalizeTags(tags)
}

func (s *PostService) Create(ctx context.Context, authorID string, req *dtos.PostRequest) (*models.Post, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, invalid("body is required")
	}
	post := &models.Post{
		AuthorID: authorID,
		Body:     body,
		Hashtags: ExtractHashtags(body),
	}
	if err := s.DB.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// List returns the newest posts, optionally only those carrying hashtag.
func (s *PostService) List(ctx context.Context, hashtag string, page, limit int) ([]PostView, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if tags := normalizeTags([]string{hashtag}); len(tags) == 1 {
		q = q.Where(likeQuery("hashtags"), `%"`+escapeLike(tags[0])+`"%`)
	}
	var posts []models.Post
	if err := q.Offset((page - 1) * limit).Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	out := make([]PostView, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Select("id", "full_name", "role").
		Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, p := range posts {
		author := byID[p.AuthorID]
		out = append(out, PostView{Post: p, AuthorName: author.FullName, AuthorRole: author.Role})
	}
	return out, nil
}

// TrendingHashtags counts hashtags over posts and open job postings.
func (s *PostService) TrendingHashtags(ctx context.Context, limit int) ([]HashtagCount, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var posts []models.Post
	if err := s.DB.WithContext(ctx).Select("id", "hashtags").Find(&posts).Error; err != nil {
		return nil, err
	}
	var jobs []models.JobPosting
	if err := s.DB.WithContext(ctx).Select("id", "hashtags").
		Where("status = ?", models.JobOpen).Find(&jobs).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, p := range posts {
		for _, tag := range p.Hashtags {
			counts[tag]++
		}
	}
	for _, j := range jobs {
		for _, tag := range j.Hashtags {
			counts[tag]++
		}
	}

	out := make([]HashtagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, HashtagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
