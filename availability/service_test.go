package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillsync/skillsync-server/availability"
	"github.com/skillsync/skillsync-server/availability/repofake"
	"github.com/skillsync/skillsync-server/internal/apperrors"
	"github.com/skillsync/skillsync-server/users"
	fakeuserrepo "github.com/skillsync/skillsync-server/users/repofake"
)

const (
	testMentorID = "mentor-1"
	testMenteeID = "mentee-1"
)

type slotFixture struct {
	repo     *repofake.FakeSlotRepo
	userRepo *fakeuserrepo.FakeUserRepo
	service  *availability.Service
}

func setupSlotFixture(t *testing.T) *slotFixture {
	t.Helper()

	slotRepo := repofake.NewFakeSlotRepo()
	userRepo := fakeuserrepo.NewFakeUserRepo()

	service, err := availability.NewService(slotRepo, userRepo)
	require.NoError(t, err)

	f := &slotFixture{repo: slotRepo, userRepo: userRepo, service: service}
	f.createUser(t, testMentorID, users.RoleMentor, true)
	f.createUser(t, testMenteeID, users.RoleMentee, true)
	return f
}

func (f *slotFixture) createUser(t *testing.T, id string, role users.Role, active bool) {
	t.Helper()
	require.NoError(t, f.userRepo.Create(context.Background(), &users.User{
		ID:        id,
		Email:     id + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		IsActive:  active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}))
}

func (f *slotFixture) createSlot(t *testing.T, day availability.DayOfWeek, start, end string) *availability.Slot {
	t.Helper()
	slot, err := f.service.Create(context.Background(), testMentorID, availability.CreateSlotInput{
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)
	return slot
}

func TestCreateSlot_Succeeds(t *testing.T) {
	f := setupSlotFixture(t)

	slot := f.createSlot(t, availability.Monday, "09:00", "11:00")

	require.NotEmpty(t, slot.ID)
	require.Equal(t, testMentorID, slot.MentorID)
	require.True(t, slot.IsActive)
}

func TestCreateSlot_MenteeRejected(t *testing.T) {
	f := setupSlotFixture(t)

	_, err := f.service.Create(context.Background(), testMenteeID, availability.CreateSlotInput{
		DayOfWeek: availability.Monday,
		StartTime: "09:00",
		EndTime:   "11:00",
	})
	require.ErrorIs(t, err, apperrors.ErrMentorNotFound)
}

func TestCreateSlot_InactiveMentorRejected(t *testing.T) {
	f := setupSlotFixture(t)
	f.createUser(t, "mentor-inactive", users.RoleMentor, false)

	_, err := f.service.Create(context.Background(), "mentor-inactive", availability.CreateSlotInput{
		DayOfWeek: availability.Monday,
		StartTime: "09:00",
		EndTime:   "11:00",
	})
	require.ErrorIs(t, err, apperrors.ErrMentorNotFound)
}

func TestCreateSlot_InvalidTimeRange(t *testing.T) {
	f := setupSlotFixture(t)

	cases := []struct {
		name       string
		start, end string
	}{
		{"end before start", "11:00", "09:00"},
		{"zero length", "09:00", "09:00"},
		{"bad format", "9am", "11:00"},
		{"out of range hour", "25:00", "26:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), testMentorID, availability.CreateSlotInput{
				DayOfWeek: availability.Monday,
				StartTime: tc.start,
				EndTime:   tc.end,
			})
			require.Error(t, err)
			require.True(t, apperrors.IsBadRequest(err))
		})
	}
}

func TestCreateSlot_OverlapRejected(t *testing.T) {
	f := setupSlotFixture(t)
	f.createSlot(t, availability.Monday, "09:00", "11:00")

	_, err := f.service.Create(context.Background(), testMentorID, availability.CreateSlotInput{
		DayOfWeek: availability.Monday,
		StartTime: "10:00",
		EndTime:   "12:00",
	})
	require.Error(t, err)
	require.True(t, apperrors.IsConflict(err))
}

// Adjacent slots share a boundary but do not overlap.
func TestCreateSlot_AdjacentSlotsAllowed(t *testing.T) {
	f := setupSlotFixture(t)
	f.createSlot(t, availability.Monday, "09:00", "11:00")

	_, err := f.service.Create(context.Background(), testMentorID, availability.CreateSlotInput{
		DayOfWeek: availability.Monday,
		StartTime: "11:00",
		EndTime:   "13:00",
	})
	require.NoError(t, err)
}

func TestCreateSlot_SameTimeDifferentDayAllowed(t *testing.T) {
	f := setupSlotFixture(t)
	f.createSlot(t, availability.Monday, "09:00", "11:00")

	_, err := f.service.Create(context.Background(), testMentorID, availability.CreateSlotInput{
		DayOfWeek: availability.Tuesday,
		StartTime: "09:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)
}

func TestListByMentor_SortedMondayToSunday(t *testing.T) {
	f := setupSlotFixture(t)
	f.createSlot(t, availability.Sunday, "09:00", "10:00")
	f.createSlot(t, availability.Monday, "14:00", "15:00")
	f.createSlot(t, availability.Monday, "09:00", "10:00")
	f.createSlot(t, availability.Wednesday, "09:00", "10:00")

	slots, err := f.service.ListByMentor(context.Background(), testMentorID)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	require.Equal(t, availability.Monday, slots[0].DayOfWeek)
	require.Equal(t, "09:00", slots[0].StartTime)
	require.Equal(t, availability.Monday, slots[1].DayOfWeek)
	require.Equal(t, "14:00", slots[1].StartTime)
	require.Equal(t, availability.Wednesday, slots[2].DayOfWeek)
	require.Equal(t, availability.Sunday, slots[3].DayOfWeek)
}

func TestListByMentor_ExcludesInactiveSlots(t *testing.T) {
	f := setupSlotFixture(t)
	slot := f.createSlot(t, availability.Monday, "09:00", "10:00")
	f.createSlot(t, availability.Tuesday, "09:00", "10:00")

	inactive := false
	_, err := f.service.Update(context.Background(), slot.ID, testMentorID, availability.UpdateSlotInput{IsActive: &inactive})
	require.NoError(t, err)

	slots, err := f.service.ListByMentor(context.Background(), testMentorID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, availability.Tuesday, slots[0].DayOfWeek)
}

func TestUpdateSlot_ChangesTimes(t *testing.T) {
	f := setupSlotFixture(t)
	slot := f.createSlot(t, availability.Monday, "09:00", "11:00")

	start, end := "10:00", "12:00"
	updated, err := f.service.Update(context.Background(), slot.ID, testMentorID, availability.UpdateSlotInput{
		StartTime: &start,
		EndTime:   &end,
	})
	require.NoError(t, err)
	require.Equal(t, "10:00", updated.StartTime)
	require.Equal(t, "12:00", updated.EndTime)
	require.Equal(t, availability.Monday, updated.DayOfWeek)
}

// A slot moved within its own window must not conflict with itself.
func TestUpdateSlot_DoesNotOverlapItself(t *testing.T) {
	f := setupSlotFixture(t)
	slot := f.createSlot(t, availability.Monday, "09:00", "11:00")

	start := "10:00"
	_, err := f.service.Update(context.Background(), slot.ID, testMentorID, availability.UpdateSlotInput{StartTime: &start})
	require.NoError(t, err)
}

func TestUpdateSlot_OverlapWithOtherSlotRejected(t *testing.T) {
	f := setupSlotFixture(t)
	f.createSlot(t, availability.Monday, "09:00", "11:00")
	slot := f.createSlot(t, availability.Monday, "12:00", "13:00")

	start := "10:00"
	_, err := f.service.Update(context.Background(), slot.ID, testMentorID, availability.UpdateSlotInput{StartTime: &start})
	require.Error(t, err)
	require.True(t, apperrors.IsConflict(err))
}

func TestUpdateSlot_NotOwnerRejected(t *testing.T) {
	f := setupSlotFixture(t)
	f.createUser(t, "mentor-2", users.RoleMentor, true)
	slot := f.createSlot(t, availability.Monday, "09:00", "11:00")

	start := "10:00"
	_, err := f.service.Update(context.Background(), slot.ID, "mentor-2", availability.UpdateSlotInput{StartTime: &start})
	require.ErrorIs(t, err, apperrors.ErrSlotNotOwned)
}

func TestUpdateSlot_UnknownSlot(t *testing.T) {
	f := setupSlotFixture(t)

	start := "10:00"
	_, err := f.service.Update(context.Background(), "no-such-slot", testMentorID, availability.UpdateSlotInput{StartTime: &start})
	require.ErrorIs(t, err, apperrors.ErrSlotNotFound)
}

func TestDeleteSlot(t *testing.T) {
	f := setupSlotFixture(t)
	slot := f.createSlot(t, availability.Monday, "09:00", "11:00")

	require.NoError(t, f.service.Delete(context.Background(), slot.ID, testMentorID))

	slots, err := f.service.ListByMentor(context.Background(), testMentorID)
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestDeleteSlot_NotOwnerRejected(t *testing.T) {
	f := setupSlotFixture(t)
	f.createUser(t, "mentor-2", users.RoleMentor, true)
	slot := f.createSlot(t, availability.Monday, "09:00", "11:00")

	err := f.service.Delete(context.Background(), slot.ID, "mentor-2")
	require.ErrorIs(t, err, apperrors.ErrSlotNotOwned)
}
