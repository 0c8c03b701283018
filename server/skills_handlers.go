package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/skillsync/skillsync-server/skills"
)

func (s *Server) handleSearchSkills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var tagSlugs []string
	if raw := q.Get("tags"); raw != "" {
		for _, slug := range strings.Split(raw, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				tagSlugs = append(tagSlugs, slug)
			}
		}
	}

	result, err := s.skills.Search(r.Context(), q.Get("q"), queryInt(r, "page", 1), queryInt(r, "limit", 10), tagSlugs)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var input skills.CreateTagInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}

	tag, err := s.skills.CreateTag(r.Context(), input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleAssignTags(w http.ResponseWriter, r *http.Request) {
	var input skills.AssignTagsInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}

	skill, err := s.skills.AssignTags(r.Context(), chi.URLParam(r, "skillId"), input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}
