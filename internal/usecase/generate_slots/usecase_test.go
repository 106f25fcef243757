package generate_slots

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	slotRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/slot"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

type fakeAmenityRepo struct {
	amenity *domain.Amenity
	err     error
}

func (f *fakeAmenityRepo) GetByID(_ context.Context, _ string) (*domain.Amenity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.amenity, nil
}

type fakeSlotRepo struct {
	existing map[string]*domain.Slot // ключ: date|start
	created  []*domain.Slot
	madeUnavailable []string
	bookedInRange   int
	deleteCalled    bool
	deleted         int64
	nextID          int
}

func slotKey(date time.Time, start types.TimeString) string {
	return date.Format(domain.DateFormat) + "|" + string(start)
}

func (f *fakeSlotRepo) Create(_ context.Context, s *domain.Slot) (*domain.Slot, error) {
	f.nextID++
	cp := *s
	cp.ID = fmt.Sprintf("slot-%d", f.nextID)
	cp.DisplayID = fmt.Sprintf("SLOT-%d", f.nextID)
	f.created = append(f.created, &cp)
	if f.existing == nil {
		f.existing = make(map[string]*domain.Slot)
	}
	f.existing[slotKey(cp.SlotDate, cp.SlotStartTime)] = &cp
	return &cp, nil
}

func (f *fakeSlotRepo) GetByKey(_ context.Context, _ string, date time.Time, start types.TimeString) (*domain.Slot, error) {
	if s, ok := f.existing[slotKey(date, start)]; ok {
		return s, nil
	}
	return nil, slotRepo.ErrSlotNotFound
}

func (f *fakeSlotRepo) SetAvailability(_ context.Context, id string, available bool) error {
	if !available {
		f.madeUnavailable = append(f.madeUnavailable, id)
	}
	return nil
}

func (f *fakeSlotRepo) CountBookedInRange(_ context.Context, _ string, _, _ time.Time) (int, error) {
	return f.bookedInRange, nil
}

func (f *fakeSlotRepo) DeleteRange(_ context.Context, _ string, _, _ time.Time) (int64, error) {
	f.deleteCalled = true
	n := int64(len(f.existing))
	f.existing = make(map[string]*domain.Slot)
	f.deleted = n
	return n, nil
}

type fakeBlackoutRepo struct {
	blackouts []*domain.BlackoutPeriod
}

func (f *fakeBlackoutRepo) ListActiveInRange(_ context.Context, _ string, _, _ time.Time) ([]*domain.BlackoutPeriod, error) {
	return f.blackouts, nil
}

type fakeTxManager struct{}

func (f *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) PublishJSON(_ context.Context, routingKey string, _ any) error {
	f.keys = append(f.keys, routingKey)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func testAmenity() *domain.Amenity {
	return &domain.Amenity{
		ID:                  "amenity-1",
		DisplayID:           "AMN-1",
		Name:                "Pool",
		OperatingStartTime:  "09:00",
		OperatingEndTime:    "12:00",
		SlotIntervalMinutes: 60,
		ConcurrencyCap:      4,
		Timezone:            "UTC",
		Active:              true,
	}
}

func newTestUseCase(amenities *fakeAmenityRepo, slots *fakeSlotRepo, blackouts *fakeBlackoutRepo, pub *fakePublisher) *UseCase {
	return NewUseCase(amenities, slots, blackouts, &fakeTxManager{}, pub, 0, nopLogger{})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateSlots_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("generates the full window with amenity defaults", func(t *testing.T) {
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot)}
		pub := &fakePublisher{}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, &fakeBlackoutRepo{}, pub)

		resp, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			FromDate:  date(2025, time.June, 2),
			ToDate:    date(2025, time.June, 3),
		})
		require.NoError(t, err)

		// Окно 09:00-12:00 при интервале 60 дает три слота в день
		assert.Len(t, resp.Created, 6)
		assert.Empty(t, resp.Updated)
		assert.Empty(t, resp.Errors)

		for _, s := range slots.created {
			assert.Equal(t, 60, s.SlotDurationMinutes)
			assert.Equal(t, 4, s.MaxConcurrentBookings)
			assert.Equal(t, 0, s.TotalBookings)
			assert.True(t, s.IsAvailable)
			assert.True(t, s.Active)
		}

		assert.Equal(t, types.TimeString("09:00"), slots.created[0].SlotStartTime)
		assert.Equal(t, types.TimeString("10:00"), slots.created[0].SlotEndTime)
		assert.Equal(t, types.TimeString("11:00"), slots.created[2].SlotStartTime)

		assert.Equal(t, []string{"slots.regenerated"}, pub.keys)
	})

	t.Run("explicit interval and capacity override amenity settings", func(t *testing.T) {
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot)}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, &fakeBlackoutRepo{}, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{
			AmenityID:       "amenity-1",
			FromDate:        date(2025, time.June, 2),
			ToDate:          date(2025, time.June, 2),
			IntervalMinutes: 90,
			Capacity:        2,
		})
		require.NoError(t, err)

		// 09:00-10:30 и 10:30-12:00
		assert.Len(t, resp.Created, 2)
		assert.Equal(t, types.TimeString("10:30"), slots.created[0].SlotEndTime)
		assert.Equal(t, 2, slots.created[0].MaxConcurrentBookings)
	})

	t.Run("idempotent rerun does not duplicate slots", func(t *testing.T) {
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot)}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, &fakeBlackoutRepo{}, &fakePublisher{})

		req := &Request{AmenityID: "amenity-1", FromDate: date(2025, time.June, 2), ToDate: date(2025, time.June, 2)}

		first, err := uc.Execute(ctx, req)
		require.NoError(t, err)
		assert.Len(t, first.Created, 3)

		second, err := uc.Execute(ctx, req)
		require.NoError(t, err)
		assert.Empty(t, second.Created)
		assert.Empty(t, second.Updated)
		assert.Len(t, slots.created, 3)
	})

	t.Run("slots under a full-day blackout are created unavailable", func(t *testing.T) {
		blocked := date(2025, time.June, 3)
		blackouts := &fakeBlackoutRepo{blackouts: []*domain.BlackoutPeriod{{
			ID:        "blk-1",
			AmenityID: "amenity-1",
			StartDate: blocked,
			EndDate:   blocked,
			Active:    true,
		}}}
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot)}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, blackouts, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			FromDate:  date(2025, time.June, 2),
			ToDate:    date(2025, time.June, 3),
		})
		require.NoError(t, err)
		assert.Len(t, resp.Created, 6)

		for _, s := range slots.created {
			if domain.SameDate(s.SlotDate, blocked) {
				assert.False(t, s.IsAvailable)
			} else {
				assert.True(t, s.IsAvailable)
			}
		}
	})

	t.Run("time-scoped blackout blocks only covered slots", func(t *testing.T) {
		start := types.TimeString("10:00")
		end := types.TimeString("11:00")
		blackouts := &fakeBlackoutRepo{blackouts: []*domain.BlackoutPeriod{{
			ID:        "blk-2",
			AmenityID: "amenity-1",
			StartDate: date(2025, time.June, 2),
			EndDate:   date(2025, time.June, 2),
			StartTime: &start,
			EndTime:   &end,
			Active:    true,
		}}}
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot)}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, blackouts, &fakePublisher{})

		_, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			FromDate:  date(2025, time.June, 2),
			ToDate:    date(2025, time.June, 2),
		})
		require.NoError(t, err)

		byStart := make(map[types.TimeString]bool)
		for _, s := range slots.created {
			byStart[s.SlotStartTime] = s.IsAvailable
		}
		assert.True(t, byStart["09:00"])
		assert.False(t, byStart["10:00"])
		assert.True(t, byStart["11:00"])
	})

	t.Run("existing available slot is switched off under a new blackout", func(t *testing.T) {
		day := date(2025, time.June, 2)
		existing := &domain.Slot{
			ID:                    "slot-old",
			AmenityID:             "amenity-1",
			SlotDate:              day,
			SlotStartTime:         "09:00",
			SlotEndTime:           "10:00",
			SlotDurationMinutes:   60,
			MaxConcurrentBookings: 4,
			IsAvailable:           true,
			Active:                true,
		}
		slots := &fakeSlotRepo{existing: map[string]*domain.Slot{slotKey(day, "09:00"): existing}}
		blackouts := &fakeBlackoutRepo{blackouts: []*domain.BlackoutPeriod{{
			ID: "blk-3", AmenityID: "amenity-1", StartDate: day, EndDate: day, Active: true,
		}}}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, blackouts, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1", FromDate: day, ToDate: day})
		require.NoError(t, err)

		assert.Equal(t, []string{"slot-old"}, slots.madeUnavailable)
		require.Len(t, resp.Updated, 1)
		assert.Equal(t, "slot-old", resp.Updated[0].ID)
		assert.False(t, resp.Updated[0].IsAvailable)
		// Недостающие слоты дня создаются, сразу недоступными
		assert.Len(t, resp.Created, 2)
	})

	t.Run("delete_existing rejected when slots in range hold bookings", func(t *testing.T) {
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot), bookedInRange: 2}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, &fakeBlackoutRepo{}, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{
			AmenityID:      "amenity-1",
			FromDate:       date(2025, time.June, 2),
			ToDate:         date(2025, time.June, 2),
			DeleteExisting: true,
		})
		require.NoError(t, err)

		assert.False(t, slots.deleteCalled)
		assert.Empty(t, resp.Created)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0], "delete_existing rejected")
	})

	t.Run("delete_existing wipes and regenerates when nothing is booked", func(t *testing.T) {
		day := date(2025, time.June, 2)
		existing := &domain.Slot{
			ID: "slot-old", AmenityID: "amenity-1", SlotDate: day,
			SlotStartTime: "09:00", SlotEndTime: "10:00",
			SlotDurationMinutes: 60, MaxConcurrentBookings: 1,
			IsAvailable: true, Active: true,
		}
		slots := &fakeSlotRepo{existing: map[string]*domain.Slot{slotKey(day, "09:00"): existing}}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, &fakeBlackoutRepo{}, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1", FromDate: day, ToDate: day, DeleteExisting: true,
		})
		require.NoError(t, err)

		assert.True(t, slots.deleteCalled)
		assert.Equal(t, int64(1), slots.deleted)
		assert.Len(t, resp.Created, 3)
	})

	t.Run("malformed operating window yields day errors instead of slots", func(t *testing.T) {
		amenity := testAmenity()
		amenity.OperatingEndTime = "25:99"
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot)}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: amenity}, slots, &fakeBlackoutRepo{}, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			FromDate:  date(2025, time.June, 2),
			ToDate:    date(2025, time.June, 3),
		})
		require.NoError(t, err)

		assert.Empty(t, resp.Created)
		require.Len(t, resp.Errors, 2)
		assert.Contains(t, resp.Errors[0], "invalid operating window")
	})

	t.Run("empty to_date falls back to the configured horizon", func(t *testing.T) {
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot)}
		uc := NewUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, &fakeBlackoutRepo{}, &fakeTxManager{}, &fakePublisher{}, 2, nopLogger{})

		resp, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			FromDate:  date(2025, time.June, 2),
		})
		require.NoError(t, err)

		// Горизонт 2 дня: 2 и 3 июня, по три слота в день
		assert.Len(t, resp.Created, 6)
		assert.True(t, domain.SameDate(slots.created[0].SlotDate, date(2025, time.June, 2)))
		assert.True(t, domain.SameDate(slots.created[5].SlotDate, date(2025, time.June, 3)))
	})

	t.Run("inactive amenity is treated as not found", func(t *testing.T) {
		amenity := testAmenity()
		amenity.Active = false
		uc := newTestUseCase(&fakeAmenityRepo{amenity: amenity}, &fakeSlotRepo{}, &fakeBlackoutRepo{}, &fakePublisher{})

		_, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			FromDate:  date(2025, time.June, 2),
			ToDate:    date(2025, time.June, 2),
		})
		assert.ErrorIs(t, err, ErrAmenityNotFound)
	})

	t.Run("interval that does not fit the window yields a day error", func(t *testing.T) {
		slots := &fakeSlotRepo{existing: make(map[string]*domain.Slot)}
		uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, slots, &fakeBlackoutRepo{}, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{
			AmenityID:       "amenity-1",
			FromDate:        date(2025, time.June, 2),
			ToDate:          date(2025, time.June, 2),
			IntervalMinutes: 240, // окно 09:00-12:00 короче
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Created)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0], "does not fit operating window")
	})
}

func TestGenerateSlots_Validation(t *testing.T) {
	ctx := context.Background()
	uc := newTestUseCase(&fakeAmenityRepo{amenity: testAmenity()}, &fakeSlotRepo{}, &fakeBlackoutRepo{}, &fakePublisher{})

	t.Run("missing amenity id", func(t *testing.T) {
		_, err := uc.Execute(ctx, &Request{FromDate: date(2025, time.June, 2), ToDate: date(2025, time.June, 2)})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("reversed range", func(t *testing.T) {
		_, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			FromDate:  date(2025, time.June, 3),
			ToDate:    date(2025, time.June, 2),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("range longer than a year", func(t *testing.T) {
		_, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			FromDate:  date(2025, time.January, 1),
			ToDate:    date(2026, time.June, 1),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("interval below minimum", func(t *testing.T) {
		_, err := uc.Execute(ctx, &Request{
			AmenityID:       "amenity-1",
			FromDate:        date(2025, time.June, 2),
			ToDate:          date(2025, time.June, 2),
			IntervalMinutes: 2,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
