package skills

import "context"

// Repo is the persistence contract for skills and tags.
type Repo interface {
	// Search returns ranked matches for query, optionally restricted to
	// skills carrying every slug in tagSlugs, plus the total match count.
	Search(ctx context.Context, query string, tagSlugs []string, offset, limit int) ([]*Skill, int, error)

	// GetSkill returns the skill with its assigned tags loaded.
	GetSkill(ctx context.Context, id string) (*Skill, error)

	// TagsBySlugs returns the tags matching the given slugs. Missing slugs
	// are simply absent from the result.
	TagsBySlugs(ctx context.Context, slugs []string) ([]*Tag, error)

	AddSkillTags(ctx context.Context, skillID string, tagIDs []string) error

	// TagExists reports whether a tag with the given name or slug exists.
	TagExists(ctx context.Context, name, slug string) (bool, error)

	CreateTag(ctx context.Context, tag *Tag) error
}
