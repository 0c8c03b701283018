package skills

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillsync/skillsync-server/internal/apperrors"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// CreateTagInput carries the fields for a new tag.
type CreateTagInput struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

// AssignTagsInput lists the tag slugs to attach to a skill.
type AssignTagsInput struct {
	TagSlugs []string `json:"tagSlugs" validate:"required,min=1,unique,dive,required"`
}

// Service implements skill search and tag management over a Repo.
type Service struct {
	repo     Repo
	validate *validator.Validate
	nowTime  func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime overrides the clock, used by tests.
func WithNowTime(fn func() time.Time) ServiceOption {
	return func(s *Service) { s.nowTime = fn }
}

func NewService(repo Repo, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[skills.NewService] nil repo")
	}
	s := &Service{
		repo:     repo,
		validate: validator.New(),
		nowTime:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search runs a full-text query over the catalog, ranked by relevance with
// name as tiebreak. tagSlugs narrows results to skills carrying all of them.
func (s *Service) Search(ctx context.Context, query string, page, limit int, tagSlugs []string) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchResult{Results: []*Skill{}, Page: page}, nil
	}

	offset := (page - 1) * limit
	results, total, err := s.repo.Search(ctx, query, tagSlugs, offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[Search] searching skills")
	}
	return &SearchResult{
		Results:   results,
		Total:     total,
		Page:      page,
		PageCount: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// AssignTags attaches the tags named by slug to a skill, skipping slugs the
// skill already carries. All slugs must exist and at least one must be new.
func (s *Service) AssignTags(ctx context.Context, skillID string, input AssignTagsInput) (*Skill, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid tag assignment: %v", err)
	}

	skill, err := s.repo.GetSkill(ctx, skillID)
	if err != nil {
		return nil, errors.Wrap(err, "[AssignTags] fetching skill")
	}

	tags, err := s.repo.TagsBySlugs(ctx, input.TagSlugs)
	if err != nil {
		return nil, errors.Wrap(err, "[AssignTags] fetching tags")
	}
	if len(tags) != len(input.TagSlugs) {
		return nil, apperrors.ErrUnknownTags
	}

	existing := make(map[string]struct{}, len(skill.Tags))
	for _, t := range skill.Tags {
		existing[t.Slug] = struct{}{}
	}
	newIDs := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := existing[t.Slug]; !ok {
			newIDs = append(newIDs, t.ID)
		}
	}
	if len(newIDs) == 0 {
		return nil, apperrors.ErrTagsAlreadyAssigned
	}

	if err := s.repo.AddSkillTags(ctx, skillID, newIDs); err != nil {
		return nil, errors.Wrap(err, "[AssignTags] saving assignments")
	}

	updated, err := s.repo.GetSkill(ctx, skillID)
	if err != nil {
		return nil, errors.Wrap(err, "[AssignTags] reloading skill")
	}
	return updated, nil
}

// CreateTag adds a new tag, rejecting duplicates by name or slug.
func (s *Service) CreateTag(ctx context.Context, input CreateTagInput) (*Tag, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid tag: %v", err)
	}

	exists, err := s.repo.TagExists(ctx, input.Name, input.Slug)
	if err != nil {
		return nil, errors.Wrap(err, "[CreateTag] checking for existing tag")
	}
	if exists {
		return nil, apperrors.ErrTagExists
	}

	now := s.nowTime().UTC()
	tag := &Tag{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Slug:      input.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateTag(ctx, tag); err != nil {
		return nil, errors.Wrap(err, "[CreateTag] saving tag")
	}
	return tag, nil
}
