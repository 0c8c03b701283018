package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skillsync/skillsync-server/availability"
	"github.com/skillsync/skillsync-server/internal/apperrors"
)

func (s *Server) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, apperrors.ErrInvalidAccessToken)
		return
	}

	var input availability.CreateSlotInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}

	slot, err := s.availability.Create(r.Context(), claims.UserID, input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (s *Server) handleListMySlots(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, apperrors.ErrInvalidAccessToken)
		return
	}

	slots, err := s.availability.ListMine(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleListMentorSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.availability.ListByMentor(r.Context(), chi.URLParam(r, "mentorId"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, apperrors.ErrInvalidAccessToken)
		return
	}

	var input availability.UpdateSlotInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, s.logger, err)
		return
	}

	slot, err := s.availability.Update(r.Context(), chi.URLParam(r, "id"), claims.UserID, input)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *Server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, s.logger, apperrors.ErrInvalidAccessToken)
		return
	}

	if err := s.availability.Delete(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Slot deleted"})
}
