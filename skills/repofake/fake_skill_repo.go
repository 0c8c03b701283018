package repofake

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/skillsync/skillsync-server/internal/apperrors"
	"github.com/skillsync/skillsync-server/skills"
)

var _ skills.Repo = (*FakeSkillRepo)(nil)

// FakeSkillRepo keeps skills and tags in memory. Search is a substring match
// over name and aliases rather than full-text ranking.
type FakeSkillRepo struct {
	skillsByID map[string]*skills.Skill
	tagsBySlug map[string]*skills.Tag
	assigned   map[string][]string
	lock       sync.RWMutex
}

func NewFakeSkillRepo() *FakeSkillRepo {
	return &FakeSkillRepo{
		skillsByID: make(map[string]*skills.Skill),
		tagsBySlug: make(map[string]*skills.Tag),
		assigned:   make(map[string][]string),
	}
}

// AddSkill seeds a skill for tests.
func (r *FakeSkillRepo) AddSkill(skill *skills.Skill) {
	r.lock.Lock()
	defer r.lock.Unlock()
	copied := *skill
	r.skillsByID[copied.ID] = &copied
}

func (r *FakeSkillRepo) Search(_ context.Context, query string, tagSlugs []string, offset, limit int) ([]*skills.Skill, int, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	needle := strings.ToLower(query)
	matches := make([]*skills.Skill, 0)
	for _, skill := range r.skillsByID {
		if !r.matchesQuery(skill, needle) || !r.carriesAll(skill.ID, tagSlugs) {
			continue
		}
		matches = append(matches, r.withTags(skill))
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	total := len(matches)
	if offset >= total {
		return []*skills.Skill{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

func (r *FakeSkillRepo) GetSkill(_ context.Context, id string) (*skills.Skill, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	skill, ok := r.skillsByID[id]
	if !ok {
		return nil, apperrors.ErrSkillNotFound
	}
	return r.withTags(skill), nil
}

func (r *FakeSkillRepo) TagsBySlugs(_ context.Context, slugs []string) ([]*skills.Tag, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	tags := make([]*skills.Tag, 0, len(slugs))
	for _, slug := range slugs {
		if tag, ok := r.tagsBySlug[slug]; ok {
			copied := *tag
			tags = append(tags, &copied)
		}
	}
	return tags, nil
}

func (r *FakeSkillRepo) AddSkillTags(_ context.Context, skillID string, tagIDs []string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.assigned[skillID] = append(r.assigned[skillID], tagIDs...)
	return nil
}

func (r *FakeSkillRepo) TagExists(_ context.Context, name, slug string) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if _, ok := r.tagsBySlug[slug]; ok {
		return true, nil
	}
	for _, tag := range r.tagsBySlug {
		if tag.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *FakeSkillRepo) CreateTag(_ context.Context, tag *skills.Tag) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	copied := *tag
	r.tagsBySlug[copied.Slug] = &copied
	return nil
}

func (r *FakeSkillRepo) matchesQuery(skill *skills.Skill, needle string) bool {
	if strings.Contains(strings.ToLower(skill.Name), needle) {
		return true
	}
	for _, alias := range skill.Aliases {
		if strings.Contains(strings.ToLower(alias), needle) {
			return true
		}
	}
	return false
}

func (r *FakeSkillRepo) carriesAll(skillID string, slugs []string) bool {
	if len(slugs) == 0 {
		return true
	}
	carried := make(map[string]struct{})
	for _, tagID := range r.assigned[skillID] {
		for slug, tag := range r.tagsBySlug {
			if tag.ID == tagID {
				carried[slug] = struct{}{}
			}
		}
	}
	for _, slug := range slugs {
		if _, ok := carried[slug]; !ok {
			return false
		}
	}
	return true
}

// withTags returns a copy of the skill with its assigned tags folded in.
func (r *FakeSkillRepo) withTags(skill *skills.Skill) *skills.Skill {
	copied := *skill
	copied.Tags = nil
	for _, tagID := range r.assigned[skill.ID] {
		for _, tag := range r.tagsBySlug {
			if tag.ID == tagID {
				copied.Tags = append(copied.Tags, *tag)
			}
		}
	}
	sort.Slice(copied.Tags, func(i, j int) bool { return copied.Tags[i].Slug < copied.Tags[j].Slug })
	return &copied
}
