package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/ptr"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

type fakeAmenityRepo struct {
	amenity *domain.Amenity
}

func (f *fakeAmenityRepo) GetByID(_ context.Context, _ string) (*domain.Amenity, error) {
	return f.amenity, nil
}

type fakeSlotRepo struct {
	slots      []*domain.Slot
	lastFilter domain.SlotFilter
}

func (f *fakeSlotRepo) ListWithFilter(_ context.Context, filter domain.SlotFilter) ([]*domain.Slot, error) {
	f.lastFilter = filter
	var out []*domain.Slot
	for _, s := range f.slots {
		if filter.ExcludeFullyBooked && s.IsFullyBooked() {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeBlackoutRepo struct {
	blackouts []*domain.BlackoutPeriod
}

func (f *fakeBlackoutRepo) ListActiveInRange(_ context.Context, _ string, _, _ time.Time) ([]*domain.BlackoutPeriod, error) {
	return f.blackouts, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func listedSlot(id string, d time.Time, start, end types.TimeString, booked int) *domain.Slot {
	return &domain.Slot{
		ID:                    id,
		AmenityID:             "amenity-1",
		SlotDate:              d,
		SlotStartTime:         start,
		SlotEndTime:           end,
		SlotDurationMinutes:   60,
		MaxConcurrentBookings: 2,
		TotalBookings:         booked,
		IsAvailable:           true,
		Active:                true,
	}
}

func newListing(amenity *domain.Amenity, slots []*domain.Slot, blackouts []*domain.BlackoutPeriod) (*UseCase, *fakeSlotRepo) {
	repo := &fakeSlotRepo{slots: slots}
	return NewUseCase(&fakeAmenityRepo{amenity: amenity}, repo, &fakeBlackoutRepo{blackouts: blackouts}, nopLogger{}), repo
}

func TestGetAvailableSlots_Execute(t *testing.T) {
	ctx := context.Background()
	amenity := &domain.Amenity{ID: "amenity-1", Timezone: "UTC", Active: true}
	day := date(2025, time.June, 10)

	t.Run("returns slots with remaining capacity", func(t *testing.T) {
		uc, _ := newListing(amenity, []*domain.Slot{
			listedSlot("s1", day, "09:00", "10:00", 1),
			listedSlot("s2", day, "10:00", "11:00", 0),
		}, nil)

		resp, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1", Date: &day})
		require.NoError(t, err)

		require.Len(t, resp.Slots, 2)
		assert.Equal(t, 1, resp.Slots[0].RemainingCapacity)
		assert.Equal(t, 2, resp.Slots[1].RemainingCapacity)
	})

	t.Run("exclude_fully_booked drops slots at capacity", func(t *testing.T) {
		uc, repo := newListing(amenity, []*domain.Slot{
			listedSlot("s1", day, "09:00", "10:00", 2),
			listedSlot("s2", day, "10:00", "11:00", 1),
		}, nil)

		resp, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1", Date: &day, ExcludeFullyBooked: true})
		require.NoError(t, err)

		require.Len(t, resp.Slots, 1)
		assert.Equal(t, "s2", resp.Slots[0].ID)
		assert.True(t, repo.lastFilter.ExcludeFullyBooked)
	})

	t.Run("slots under an active blackout are filtered on read", func(t *testing.T) {
		start := types.TimeString("09:00")
		end := types.TimeString("10:00")
		uc, _ := newListing(amenity, []*domain.Slot{
			listedSlot("s1", day, "09:00", "10:00", 0),
			listedSlot("s2", day, "10:00", "11:00", 0),
		}, []*domain.BlackoutPeriod{{
			ID:        "blk-1",
			AmenityID: "amenity-1",
			StartDate: day,
			EndDate:   day,
			StartTime: &start,
			EndTime:   &end,
			Active:    true,
		}})

		resp, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1", Date: &day})
		require.NoError(t, err)

		require.Len(t, resp.Slots, 1)
		assert.Equal(t, "s2", resp.Slots[0].ID)
	})

	t.Run("holiday dates are closed", func(t *testing.T) {
		closed := &domain.Amenity{
			ID:       "amenity-1",
			Timezone: "UTC",
			Active:   true,
			Holidays: []domain.Holiday{{Month: time.June, Day: 10}},
		}
		uc, _ := newListing(closed, []*domain.Slot{
			listedSlot("s1", day, "09:00", "10:00", 0),
		}, nil)

		resp, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1", Date: &day})
		require.NoError(t, err)
		assert.Empty(t, resp.Slots)
	})

	t.Run("range query passes bounds to the filter", func(t *testing.T) {
		uc, repo := newListing(amenity, nil, nil)
		from := date(2025, time.June, 10)
		to := date(2025, time.June, 12)

		_, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1", FromDate: &from, ToDate: &to})
		require.NoError(t, err)

		require.NotNil(t, repo.lastFilter.FromDate)
		assert.Equal(t, from, *repo.lastFilter.FromDate)
		require.NotNil(t, repo.lastFilter.ToDate)
		assert.Equal(t, to, *repo.lastFilter.ToDate)
	})

	t.Run("inactive amenity is treated as not found", func(t *testing.T) {
		uc, _ := newListing(&domain.Amenity{ID: "amenity-1", Active: false}, nil, nil)

		_, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1", Date: &day})
		assert.ErrorIs(t, err, ErrAmenityNotFound)
	})

	t.Run("date and range are mutually exclusive", func(t *testing.T) {
		uc, _ := newListing(amenity, nil, nil)
		from := date(2025, time.June, 10)

		_, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1", Date: &day, FromDate: &from, ToDate: &from})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing date and range", func(t *testing.T) {
		uc, _ := newListing(amenity, nil, nil)

		_, err := uc.Execute(ctx, &Request{AmenityID: "amenity-1"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("inverted time filter", func(t *testing.T) {
		uc, _ := newListing(amenity, nil, nil)

		_, err := uc.Execute(ctx, &Request{
			AmenityID: "amenity-1",
			Date:      &day,
			StartTime: ptr.Ptr(types.TimeString("12:00")),
			EndTime:   ptr.Ptr(types.TimeString("11:00")),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
