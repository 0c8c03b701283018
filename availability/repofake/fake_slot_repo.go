package repofake

import (
	"context"
	"sync"

	"github.com/skillsync/skillsync-server/availability"
	"github.com/skillsync/skillsync-server/internal/apperrors"
)

var _ availability.Repo = (*FakeSlotRepo)(nil)

type FakeSlotRepo struct {
	slots map[string]*availability.Slot
	lock  sync.RWMutex
}

func NewFakeSlotRepo() *FakeSlotRepo {
	return &FakeSlotRepo{slots: make(map[string]*availability.Slot)}
}

func (r *FakeSlotRepo) Create(_ context.Context, slot *availability.Slot) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	copied := *slot
	r.slots[copied.ID] = &copied
	return nil
}

func (r *FakeSlotRepo) GetByID(_ context.Context, id string) (*availability.Slot, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, apperrors.ErrSlotNotFound
	}
	copied := *slot
	return &copied, nil
}

func (r *FakeSlotRepo) ListByMentor(_ context.Context, mentorID string, activeOnly bool) ([]*availability.Slot, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	slots := make([]*availability.Slot, 0)
	for _, slot := range r.slots {
		if slot.MentorID != mentorID {
			continue
		}
		if activeOnly && !slot.IsActive {
			continue
		}
		copied := *slot
		slots = append(slots, &copied)
	}
	return slots, nil
}

func (r *FakeSlotRepo) FindOverlap(_ context.Context, mentorID string, day availability.DayOfWeek, startTime, endTime, excludeID string) (*availability.Slot, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, slot := range r.slots {
		if slot.MentorID != mentorID || slot.DayOfWeek != day || !slot.IsActive || slot.ID == excludeID {
			continue
		}
		if slot.StartTime < endTime && slot.EndTime > startTime {
			copied := *slot
			return &copied, nil
		}
	}
	return nil, apperrors.ErrSlotNotFound
}

func (r *FakeSlotRepo) Update(_ context.Context, slot *availability.Slot) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.slots[slot.ID]; !ok {
		return apperrors.ErrSlotNotFound
	}
	copied := *slot
	r.slots[copied.ID] = &copied
	return nil
}

func (r *FakeSlotRepo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.slots[id]; !ok {
		return apperrors.ErrSlotNotFound
	}
	delete(r.slots, id)
	return nil
}
