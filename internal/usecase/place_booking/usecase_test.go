package place_booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	slotRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/slot"
	"github.com/helixcare/Resido-AmenityService/pkg/ptr"
	"github.com/helixcare/Resido-AmenityService/pkg/txmanager"
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
	slots        []*domain.Slot
	incremented  []string
	incrementErr map[string]error
}

func (f *fakeSlotRepo) FindOverlapping(_ context.Context, _ string, _ time.Time, start, end types.TimeString) ([]*domain.Slot, error) {
	var out []*domain.Slot
	for _, s := range f.slots {
		if s.Overlaps(start, end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) IncrementBookings(_ context.Context, id string) error {
	if err, ok := f.incrementErr[id]; ok {
		return err
	}
	f.incremented = append(f.incremented, id)
	return nil
}

type fakeBlackoutRepo struct {
	blackouts []*domain.BlackoutPeriod
}

func (f *fakeBlackoutRepo) ListActiveOnDate(_ context.Context, _ string, _ time.Time) ([]*domain.BlackoutPeriod, error) {
	return f.blackouts, nil
}

type fakeBookingRepo struct {
	created []*domain.Booking
	nextID  int
}

func (f *fakeBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	f.nextID++
	cp := *b
	cp.ID = fmt.Sprintf("booking-%d", f.nextID)
	cp.DisplayID = fmt.Sprintf("BKG-%d", f.nextID)
	f.created = append(f.created, &cp)
	return &cp, nil
}

type fakeTxManager struct {
	exhausted bool
}

func (f *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.exhausted {
		return txmanager.ErrRetryExhausted
	}
	return fn(ctx)
}

type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) PublishJSON(_ context.Context, routingKey string, _ any) error {
	f.keys = append(f.keys, routingKey)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func testAmenity() *domain.Amenity {
	return &domain.Amenity{
		ID:                  "amenity-1",
		Name:                "Gym",
		OperatingStartTime:  "08:00",
		OperatingEndTime:    "20:00",
		SlotIntervalMinutes: 60,
		ConcurrencyCap:      2,
		Timezone:            "UTC",
		Active:              true,
	}
}

func testSlot(id string, start, end types.TimeString) *domain.Slot {
	return &domain.Slot{
		ID:                    id,
		AmenityID:             "amenity-1",
		SlotDate:              date(2025, time.June, 10),
		SlotStartTime:         start,
		SlotEndTime:           end,
		SlotDurationMinutes:   60,
		MaxConcurrentBookings: 2,
		IsAvailable:           true,
		Active:                true,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type testEnv struct {
	uc       *UseCase
	slots    *fakeSlotRepo
	bookings *fakeBookingRepo
	pub      *fakePublisher
	tx       *fakeTxManager
}

func newEnv(amenity *domain.Amenity, slots []*domain.Slot, blackouts []*domain.BlackoutPeriod) *testEnv {
	env := &testEnv{
		slots:    &fakeSlotRepo{slots: slots},
		bookings: &fakeBookingRepo{},
		pub:      &fakePublisher{},
		tx:       &fakeTxManager{},
	}
	env.uc = NewUseCase(
		&fakeAmenityRepo{amenity: amenity},
		env.slots,
		&fakeBlackoutRepo{blackouts: blackouts},
		env.bookings,
		env.tx,
		env.pub,
		nopLogger{},
	)
	env.uc.timeProvider = &fakeClock{now: time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)}
	return env
}

func singleRequest() *Request {
	return &Request{
		AmenityID:   "amenity-1",
		TenantID:    "tenant-1",
		BookingDate: date(2025, time.June, 10),
		StartTime:   "10:00",
		EndTime:     "12:00",
	}
}

func TestPlaceBooking_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("binds all overlapping slots and debits capacity", func(t *testing.T) {
		env := newEnv(testAmenity(), []*domain.Slot{
			testSlot("s1", "09:00", "10:00"),
			testSlot("s2", "10:00", "11:00"),
			testSlot("s3", "11:00", "12:00"),
			testSlot("s4", "12:00", "13:00"),
		}, nil)

		resp, err := env.uc.Execute(ctx, singleRequest())
		require.NoError(t, err)

		// Границы не пересекаются: s1 и s4 вне набора
		assert.ElementsMatch(t, []string{"s2", "s3"}, resp.SelectedSlotIDs)
		assert.ElementsMatch(t, []string{"s2", "s3"}, env.slots.incremented)
		assert.Equal(t, string(domain.StatusPending), resp.Status)
		assert.False(t, resp.IsRecurring)
		assert.Equal(t, []string{"booking.placed"}, env.pub.keys)
	})

	t.Run("explicit slot ids must belong to the overlap set", func(t *testing.T) {
		env := newEnv(testAmenity(), []*domain.Slot{
			testSlot("s2", "10:00", "11:00"),
			testSlot("s3", "11:00", "12:00"),
		}, nil)

		req := singleRequest()
		req.SelectedSlotIDs = []string{"s2", "s9"}

		_, err := env.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidSlotID)
		assert.Empty(t, env.bookings.created)
		assert.Empty(t, env.slots.incremented)
	})

	t.Run("no overlapping slots", func(t *testing.T) {
		env := newEnv(testAmenity(), nil, nil)

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.Empty(t, env.slots.incremented)
	})

	t.Run("fully booked slot in the set rejects the whole range", func(t *testing.T) {
		full := testSlot("s2", "10:00", "11:00")
		full.TotalBookings = full.MaxConcurrentBookings
		env := newEnv(testAmenity(), []*domain.Slot{
			full,
			testSlot("s3", "11:00", "12:00"),
		}, nil)

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.Empty(t, env.slots.incremented)
	})

	t.Run("unavailable slot in the set rejects the whole range", func(t *testing.T) {
		off := testSlot("s2", "10:00", "11:00")
		off.IsAvailable = false
		env := newEnv(testAmenity(), []*domain.Slot{off, testSlot("s3", "11:00", "12:00")}, nil)

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("capacity exhausted during increment", func(t *testing.T) {
		env := newEnv(testAmenity(), []*domain.Slot{
			testSlot("s2", "10:00", "11:00"),
			testSlot("s3", "11:00", "12:00"),
		}, nil)
		env.slots.incrementErr = map[string]error{"s3": slotRepo.ErrCapacityExhausted}

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("blackout covering the range", func(t *testing.T) {
		env := newEnv(testAmenity(), []*domain.Slot{testSlot("s2", "10:00", "11:00")},
			[]*domain.BlackoutPeriod{{
				ID:        "blk-1",
				AmenityID: "amenity-1",
				StartDate: date(2025, time.June, 10),
				EndDate:   date(2025, time.June, 10),
				Active:    true,
			}})

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrBlackoutConflict)
		assert.Empty(t, env.slots.incremented)
		assert.Empty(t, env.bookings.created)
	})

	t.Run("contention retries exhausted", func(t *testing.T) {
		env := newEnv(testAmenity(), []*domain.Slot{testSlot("s2", "10:00", "11:00")}, nil)
		env.tx.exhausted = true

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrSlotContention)
	})

	t.Run("inactive amenity", func(t *testing.T) {
		amenity := testAmenity()
		amenity.Active = false
		env := newEnv(amenity, nil, nil)

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrAmenityNotFound)
	})
}

func TestPlaceBooking_Policies(t *testing.T) {
	ctx := context.Background()

	t.Run("range outside operating hours", func(t *testing.T) {
		env := newEnv(testAmenity(), nil, nil)
		req := singleRequest()
		req.StartTime = "07:00"
		req.EndTime = "09:00"

		_, err := env.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrOutsideOperatingWindow)
	})

	t.Run("holiday date", func(t *testing.T) {
		amenity := testAmenity()
		amenity.Holidays = []domain.Holiday{{Month: time.June, Day: 10}}
		env := newEnv(amenity, nil, nil)

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrHolidayConflict)
	})

	t.Run("range crossing a walk-in window", func(t *testing.T) {
		amenity := testAmenity()
		// 10 июня 2025 - вторник
		amenity.WalkInSchedule = domain.WalkInSchedule{
			"tuesday": {StartTime: "11:00", EndTime: "13:00"},
		}
		env := newEnv(amenity, nil, nil)

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.ErrorIs(t, err, ErrOutsideOperatingWindow)
	})

	t.Run("range touching the walk-in boundary is allowed", func(t *testing.T) {
		amenity := testAmenity()
		amenity.WalkInSchedule = domain.WalkInSchedule{
			"tuesday": {StartTime: "12:00", EndTime: "14:00"},
		}
		env := newEnv(amenity, []*domain.Slot{testSlot("s2", "10:00", "12:00")}, nil)

		_, err := env.uc.Execute(ctx, singleRequest())
		assert.NoError(t, err)
	})

	t.Run("start not before end", func(t *testing.T) {
		env := newEnv(testAmenity(), nil, nil)
		req := singleRequest()
		req.StartTime = "12:00"
		req.EndTime = "12:00"

		_, err := env.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("date in the past", func(t *testing.T) {
		env := newEnv(testAmenity(), nil, nil)
		req := singleRequest()
		req.BookingDate = date(2025, time.May, 31)

		_, err := env.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("booking today is allowed with zero lookback", func(t *testing.T) {
		env := newEnv(testAmenity(), []*domain.Slot{{
			ID: "s1", AmenityID: "amenity-1",
			SlotDate:      date(2025, time.June, 1),
			SlotStartTime: "10:00", SlotEndTime: "12:00",
			SlotDurationMinutes: 120, MaxConcurrentBookings: 2,
			IsAvailable: true, Active: true,
		}}, nil)
		req := singleRequest()
		req.BookingDate = date(2025, time.June, 1)

		_, err := env.uc.Execute(ctx, req)
		assert.NoError(t, err)
	})
}

func TestPlaceBooking_RecurrenceParent(t *testing.T) {
	ctx := context.Background()

	recurringRequest := func() *Request {
		return &Request{
			AmenityID:             "amenity-1",
			TenantID:              "tenant-1",
			BookingDate:           date(2025, time.June, 10),
			StartTime:             "10:00",
			EndTime:               "11:00",
			IsRecurring:           true,
			RepeatFrequency:       ptr.Ptr(domain.FrequencyWeekly),
			RecurrenceEndType:     ptr.Ptr(domain.EndAfterOccurrences),
			RecurrenceOccurrences: ptr.Ptr(4),
		}
	}

	t.Run("parent is stored without touching slots", func(t *testing.T) {
		env := newEnv(testAmenity(), []*domain.Slot{testSlot("s2", "10:00", "11:00")}, nil)

		resp, err := env.uc.Execute(ctx, recurringRequest())
		require.NoError(t, err)

		assert.True(t, resp.IsRecurring)
		assert.Empty(t, resp.SelectedSlotIDs)
		assert.Empty(t, env.slots.incremented)
		require.Len(t, env.bookings.created, 1)
		assert.True(t, env.bookings.created[0].IsRecurring)
		assert.Equal(t, 1, env.bookings.created[0].RepeatInterval)
	})

	t.Run("invalid rule is rejected before storage", func(t *testing.T) {
		env := newEnv(testAmenity(), nil, nil)
		req := recurringRequest()
		req.RecurrenceOccurrences = nil

		_, err := env.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrRuleInvalid)
		assert.Empty(t, env.bookings.created)
	})

	t.Run("unknown weekday name is rejected", func(t *testing.T) {
		env := newEnv(testAmenity(), nil, nil)
		req := recurringRequest()
		req.RepeatOnDaysOfWeek = []string{"mondayy"}

		_, err := env.uc.Execute(ctx, req)
		assert.ErrorIs(t, err, ErrRuleInvalid)
	})
}

func TestPlaceBooking_PlaceChild(t *testing.T) {
	ctx := context.Background()

	parent := &domain.Booking{
		ID:        "parent-1",
		AmenityID: "amenity-1",
		TenantID:  "tenant-1",
		Status:    domain.StatusConfirmed,
	}

	t.Run("child inherits parent identity and carries sequence", func(t *testing.T) {
		env := newEnv(testAmenity(), []*domain.Slot{testSlot("s2", "10:00", "11:00")}, nil)

		child, err := env.uc.PlaceChild(ctx, &ChildRequest{
			Parent:             parent,
			BookingDate:        date(2025, time.June, 10),
			StartTime:          "10:00",
			EndTime:            "11:00",
			OccurrenceDate:     date(2025, time.June, 10),
			RecurrenceSequence: 3,
		})
		require.NoError(t, err)

		assert.Equal(t, "parent-1", *child.ParentBookingID)
		assert.Equal(t, 3, *child.RecurrenceSequence)
		assert.Equal(t, domain.StatusConfirmed, child.Status)
		assert.Equal(t, []string{"s2"}, child.SelectedSlotIDs)
		assert.Equal(t, []string{"s2"}, env.slots.incremented)
	})

	t.Run("child validates amenity policy", func(t *testing.T) {
		amenity := testAmenity()
		amenity.Holidays = []domain.Holiday{{Month: time.June, Day: 10}}
		env := newEnv(amenity, nil, nil)

		_, err := env.uc.PlaceChild(ctx, &ChildRequest{
			Parent:         parent,
			BookingDate:    date(2025, time.June, 10),
			StartTime:      "10:00",
			EndTime:        "11:00",
			OccurrenceDate: date(2025, time.June, 10),
		})
		assert.ErrorIs(t, err, ErrHolidayConflict)
	})
}
