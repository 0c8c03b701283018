// Package pgrepo provides the Postgres-backed skills.Repo.
package pgrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/skillsync/skillsync-server/internal/apperrors"
	"github.com/skillsync/skillsync-server/skills"
)

var _ skills.Repo = (*Repo)(nil)

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Search ranks matches with ts_rank over the precomputed search vector,
// breaking ties by name. COUNT(*) OVER() avoids a second counting query.
func (r *Repo) Search(ctx context.Context, query string, tagSlugs []string, offset, limit int) ([]*skills.Skill, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name, s.aliases, s.description, s.created_at, s.updated_at,
		       COUNT(*) OVER() AS total
		FROM skills s
		WHERE s.search_vector @@ plainto_tsquery('english', $1)
		  AND ($2::text[] IS NULL OR (
		        SELECT COUNT(DISTINCT t.slug)
		        FROM skill_tags st
		        JOIN tags t ON t.id = st.tag_id
		        WHERE st.skill_id = s.id AND t.slug = ANY($2)
		      ) = cardinality($2))
		ORDER BY ts_rank(s.search_vector, plainto_tsquery('english', $1)) DESC, s.name ASC
		OFFSET $3 LIMIT $4`,
		query, slugsParam(tagSlugs), offset, limit,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[Repo.Search] query")
	}
	defer rows.Close()

	var total int
	results := make([]*skills.Skill, 0)
	for rows.Next() {
		var s skills.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Aliases, &s.Description, &s.CreatedAt, &s.UpdatedAt, &total); err != nil {
			return nil, 0, errors.Wrap(err, "[Repo.Search] scan")
		}
		results = append(results, &s)
	}
	return results, total, errors.Wrap(rows.Err(), "[Repo.Search] rows")
}

func (r *Repo) GetSkill(ctx context.Context, id string) (*skills.Skill, error) {
	var s skills.Skill
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, aliases, description, created_at, updated_at
		FROM skills WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Aliases, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrSkillNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Repo.GetSkill] query skill")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at, t.updated_at
		FROM tags t
		JOIN skill_tags st ON st.tag_id = t.id
		WHERE st.skill_id = $1
		ORDER BY t.slug`, id,
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Repo.GetSkill] query tags")
	}
	defer rows.Close()

	for rows.Next() {
		var t skills.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "[Repo.GetSkill] scan tag")
		}
		s.Tags = append(s.Tags, t)
	}
	return &s, errors.Wrap(rows.Err(), "[Repo.GetSkill] tag rows")
}

func (r *Repo) TagsBySlugs(ctx context.Context, slugs []string) ([]*skills.Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, slug, created_at, updated_at
		FROM tags WHERE slug = ANY($1)`, slugs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Repo.TagsBySlugs] query")
	}
	defer rows.Close()

	tags := make([]*skills.Tag, 0, len(slugs))
	for rows.Next() {
		var t skills.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "[Repo.TagsBySlugs] scan")
		}
		tags = append(tags, &t)
	}
	return tags, errors.Wrap(rows.Err(), "[Repo.TagsBySlugs] rows")
}

func (r *Repo) AddSkillTags(ctx context.Context, skillID string, tagIDs []string) error {
	batch := &pgx.Batch{}
	for _, tagID := range tagIDs {
		batch.Queue(`
			INSERT INTO skill_tags (skill_id, tag_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, skillID, tagID)
	}
	err := r.pool.SendBatch(ctx, batch).Close()
	return errors.Wrap(err, "[Repo.AddSkillTags] batch insert")
}

func (r *Repo) TagExists(ctx context.Context, name, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tags WHERE name = $1 OR slug = $2)`,
		name, slug,
	).Scan(&exists)
	return exists, errors.Wrap(err, "[Repo.TagExists] query")
}

func (r *Repo) CreateTag(ctx context.Context, tag *skills.Tag) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tags (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		tag.ID, tag.Name, tag.Slug, tag.CreatedAt, tag.UpdatedAt,
	)
	return errors.Wrap(err, "[Repo.CreateTag] insert tag")
}

// slugsParam maps an empty filter to NULL so the tag condition collapses.
func slugsParam(slugs []string) interface{} {
	if len(slugs) == 0 {
		return nil
	}
	return slugs
}
