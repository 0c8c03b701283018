package availability

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillsync/skillsync-server/internal/apperrors"
	"github.com/skillsync/skillsync-server/users"
)

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type CreateSlotInput struct {
	DayOfWeek DayOfWeek `json:"day_of_week" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
}

// UpdateSlotInput uses pointers so absent fields leave the slot unchanged.
type UpdateSlotInput struct {
	DayOfWeek *DayOfWeek `json:"day_of_week,omitempty" validate:"omitempty,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime *string    `json:"start_time,omitempty"`
	EndTime   *string    `json:"end_time,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}

// Service enforces the slot rules: valid time ranges, no overlap between a
// mentor's active slots on the same day, and mentor-only ownership.
type Service struct {
	repo     Repo
	users    users.Repo
	validate *validator.Validate
	nowTime  func() time.Time
}

type ServiceOption func(*Service)

func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(repo Repo, userRepo users.Repo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[availability.NewService] repo is required")
	}
	if userRepo == nil {
		return nil, errors.New("[availability.NewService] user repo is required")
	}

	service := &Service{
		repo:     repo,
		users:    userRepo,
		validate: validator.New(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// Create adds a new slot for the authenticated mentor.
func (s *Service) Create(ctx context.Context, userID string, input CreateSlotInput) (*Slot, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid slot input: %v", err)
	}
	if _, err := s.requireMentor(ctx, userID); err != nil {
		return nil, err
	}
	if err := assertTimeRange(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if err := s.assertNoOverlap(ctx, userID, input.DayOfWeek, input.StartTime, input.EndTime, ""); err != nil {
		return nil, err
	}

	now := s.nowTime()
	slot := &Slot{
		ID:        uuid.New().String(),
		MentorID:  userID,
		DayOfWeek: input.DayOfWeek,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, errors.Wrap(err, "[Service.Create] repo.Create")
	}
	return slot, nil
}

// ListMine returns the mentor's own active slots, Monday → Sunday then by
// start time.
func (s *Service) ListMine(ctx context.Context, userID string) ([]*Slot, error) {
	if _, err := s.requireMentor(ctx, userID); err != nil {
		return nil, err
	}
	return s.ListByMentor(ctx, userID)
}

// ListByMentor returns a mentor's active slots, sorted for display. Used
// by mentees browsing mentor availability.
func (s *Service) ListByMentor(ctx context.Context, mentorID string) ([]*Slot, error) {
	slots, err := s.repo.ListByMentor(ctx, mentorID, true)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListByMentor] repo.ListByMentor")
	}
	sortSlots(slots)
	return slots, nil
}

// Update modifies a slot owned by the authenticated mentor, re-validating
// range and overlap whenever time-related fields change.
func (s *Service) Update(ctx context.Context, slotID, userID string, input UpdateSlotInput) (*Slot, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.BadRequestf("invalid slot input: %v", err)
	}
	slot, err := s.findOwned(ctx, slotID, userID)
	if err != nil {
		return nil, err
	}

	effectiveDay := slot.DayOfWeek
	if input.DayOfWeek != nil {
		effectiveDay = *input.DayOfWeek
	}
	effectiveStart := slot.StartTime
	if input.StartTime != nil {
		effectiveStart = *input.StartTime
	}
	effectiveEnd := slot.EndTime
	if input.EndTime != nil {
		effectiveEnd = *input.EndTime
	}

	timeChanged := input.DayOfWeek != nil || input.StartTime != nil || input.EndTime != nil
	if timeChanged {
		if err := assertTimeRange(effectiveStart, effectiveEnd); err != nil {
			return nil, err
		}
		if err := s.assertNoOverlap(ctx, slot.MentorID, effectiveDay, effectiveStart, effectiveEnd, slot.ID); err != nil {
			return nil, err
		}
	}

	slot.DayOfWeek = effectiveDay
	slot.StartTime = effectiveStart
	slot.EndTime = effectiveEnd
	if input.IsActive != nil {
		slot.IsActive = *input.IsActive
	}
	slot.UpdatedAt = s.nowTime()

	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, errors.Wrap(err, "[Service.Update] repo.Update")
	}
	return slot, nil
}

// Delete permanently removes a slot owned by the authenticated mentor.
func (s *Service) Delete(ctx context.Context, slotID, userID string) error {
	slot, err := s.findOwned(ctx, slotID, userID)
	if err != nil {
		return err
	}
	return errors.Wrap(s.repo.Delete(ctx, slot.ID), "[Service.Delete] repo.Delete")
}

func (s *Service) requireMentor(ctx context.Context, userID string) (*users.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.ErrMentorNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.requireMentor] GetByID")
	}
	if !user.IsActive || user.Role != users.RoleMentor {
		return nil, apperrors.ErrMentorNotFound
	}
	return user, nil
}

func (s *Service) findOwned(ctx context.Context, slotID, userID string) (*Slot, error) {
	slot, err := s.repo.GetByID(ctx, slotID)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.ErrSlotNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.findOwned] GetByID")
	}
	if slot.MentorID != userID {
		return nil, apperrors.ErrSlotNotOwned
	}
	return slot, nil
}

// assertNoOverlap rejects any range intersecting an existing active slot
// on the same day. Two slots [aStart, aEnd) and [bStart, bEnd) overlap
// when aStart < bEnd and aEnd > bStart; adjacent slots are fine.
func (s *Service) assertNoOverlap(ctx context.Context, mentorID string, day DayOfWeek, startTime, endTime, excludeID string) error {
	conflict, err := s.repo.FindOverlap(ctx, mentorID, day, startTime, endTime, excludeID)
	if apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[Service.assertNoOverlap] FindOverlap")
	}
	return apperrors.Conflictf("slot overlaps with an existing availability on %s (%s-%s)",
		conflict.DayOfWeek, conflict.StartTime, conflict.EndTime)
}

func assertTimeRange(startTime, endTime string) error {
	if !timeOfDay.MatchString(startTime) || !timeOfDay.MatchString(endTime) {
		return apperrors.BadRequestf("times must be HH:MM")
	}
	if startTime >= endTime {
		return apperrors.BadRequestf("startTime must be earlier than endTime")
	}
	return nil
}

func sortSlots(slots []*Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if dayOrder[slots[i].DayOfWeek] != dayOrder[slots[j].DayOfWeek] {
			return dayOrder[slots[i].DayOfWeek] < dayOrder[slots[j].DayOfWeek]
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}
