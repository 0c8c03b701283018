// Package skills provides the searchable skill catalog and its tag taxonomy.
package skills

import "time"

type Skill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Aliases     []string  `json:"aliases,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []Tag     `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tag labels skills for filtering. Name and Slug are both unique.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SearchResult is one page of ranked search matches.
type SearchResult struct {
	Results   []*Skill `json:"results"`
	Total     int      `json:"total"`
	Page      int      `json:"page"`
	PageCount int      `json:"pageCount"`
}
