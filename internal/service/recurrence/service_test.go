package recurrence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	bookingRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/booking"
	exceptionRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/exception"
	"github.com/helixcare/Resido-AmenityService/internal/service/recurrence/models"
	"github.com/helixcare/Resido-AmenityService/pkg/ptr"
	"github.com/helixcare/Resido-AmenityService/pkg/txmanager"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

type fakeAmenityRepo struct {
	amenity *domain.Amenity
}

func (f *fakeAmenityRepo) GetByID(_ context.Context, _ string) (*domain.Amenity, error) {
	return f.amenity, nil
}

type fakeBookingRepo struct {
	bookings map[string]*domain.Booking

	cancelled []string
	notes     map[string]*string
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeBookingRepo) ListChildren(_ context.Context, filter domain.ChildrenFilter) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.ParentBookingID == nil || *b.ParentBookingID != filter.ParentBookingID {
			continue
		}
		if filter.FromDate != nil && b.BookingDate.Before(*filter.FromDate) {
			continue
		}
		if filter.OnlyActive && !b.IsActive() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) Cancel(_ context.Context, id string, _ string) error {
	f.cancelled = append(f.cancelled, id)
	f.bookings[id].Status = domain.StatusCancelled
	return nil
}

func (f *fakeBookingRepo) UpdateSchedule(_ context.Context, id string, date time.Time, start, end types.TimeString, slotIDs []string) error {
	b := f.bookings[id]
	b.BookingDate = date
	b.StartTime = start
	b.EndTime = end
	b.SelectedSlotIDs = slotIDs
	return nil
}

func (f *fakeBookingRepo) UpdateNotes(_ context.Context, id string, notes *string) error {
	if f.notes == nil {
		f.notes = make(map[string]*string)
	}
	f.notes[id] = notes
	f.bookings[id].Notes = notes
	return nil
}

type fakeExceptionRepo struct {
	created   []*domain.RecurrenceException
	duplicate bool
	nextID    int
}

func (f *fakeExceptionRepo) Create(_ context.Context, e *domain.RecurrenceException) (*domain.RecurrenceException, error) {
	if f.duplicate {
		return nil, exceptionRepo.ErrExceptionExists
	}
	f.nextID++
	cp := *e
	cp.ID = fmt.Sprintf("exc-%d", f.nextID)
	cp.DisplayID = fmt.Sprintf("REXC-%d", f.nextID)
	f.created = append(f.created, &cp)
	return &cp, nil
}

type decrementCall struct {
	id      string
	covered bool
}

type fakeSlotRepo struct {
	slots map[string]*domain.Slot

	incremented  []string
	decremented  []decrementCall
	decrementErr map[string]error
}

func (f *fakeSlotRepo) GetByIDs(_ context.Context, ids []string) ([]*domain.Slot, error) {
	out := make([]*domain.Slot, 0, len(ids))
	for _, id := range ids {
		if s, ok := f.slots[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) FindOverlapping(_ context.Context, _ string, d time.Time, start, end types.TimeString) ([]*domain.Slot, error) {
	var out []*domain.Slot
	for _, s := range f.slots {
		if domain.SameDate(s.SlotDate, d) && s.Overlaps(start, end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) IncrementBookings(_ context.Context, id string) error {
	f.incremented = append(f.incremented, id)
	f.slots[id].TotalBookings++
	return nil
}

func (f *fakeSlotRepo) DecrementBookings(_ context.Context, id string, covered bool) error {
	if err, ok := f.decrementErr[id]; ok {
		return err
	}
	f.decremented = append(f.decremented, decrementCall{id: id, covered: covered})
	if s, ok := f.slots[id]; ok && s.TotalBookings > 0 {
		s.TotalBookings--
	}
	return nil
}

type fakeBlackoutRepo struct {
	blackouts []*domain.BlackoutPeriod
}

func (f *fakeBlackoutRepo) ListActiveOnDate(_ context.Context, _ string, _ time.Time) ([]*domain.BlackoutPeriod, error) {
	return f.blackouts, nil
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

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seriesParent() *domain.Booking {
	return &domain.Booking{
		ID:                    "parent-1",
		AmenityID:             "amenity-1",
		TenantID:              "tenant-1",
		BookingDate:           date(2025, time.June, 2),
		StartTime:             "10:00",
		EndTime:               "11:00",
		Status:                domain.StatusConfirmed,
		IsRecurring:           true,
		RepeatFrequency:       ptr.Ptr(domain.FrequencyWeekly),
		RepeatInterval:        1,
		RecurrenceEndType:     ptr.Ptr(domain.EndAfterOccurrences),
		RecurrenceOccurrences: ptr.Ptr(4),
	}
}

func seriesChild(id string, occurrence time.Time, slotIDs []string) *domain.Booking {
	return &domain.Booking{
		ID:                 id,
		AmenityID:          "amenity-1",
		TenantID:           "tenant-1",
		BookingDate:        occurrence,
		StartTime:          "10:00",
		EndTime:            "11:00",
		Status:             domain.StatusConfirmed,
		SelectedSlotIDs:    slotIDs,
		ParentBookingID:    ptr.Ptr("parent-1"),
		OccurrenceDate:     ptr.Ptr(occurrence),
		RecurrenceSequence: ptr.Ptr(1),
	}
}

func seriesSlot(id string, d time.Time, start, end types.TimeString) *domain.Slot {
	return &domain.Slot{
		ID:                    id,
		AmenityID:             "amenity-1",
		SlotDate:              d,
		SlotStartTime:         start,
		SlotEndTime:           end,
		SlotDurationMinutes:   60,
		MaxConcurrentBookings: 2,
		TotalBookings:         1,
		IsAvailable:           true,
		Active:                true,
	}
}

type testEnv struct {
	svc        *Service
	bookings   *fakeBookingRepo
	exceptions *fakeExceptionRepo
	slots      *fakeSlotRepo
	blackouts  *fakeBlackoutRepo
	tx         *fakeTxManager
	pub        *fakePublisher
}

func newEnv(bookings ...*domain.Booking) *testEnv {
	env := &testEnv{
		bookings:   &fakeBookingRepo{bookings: map[string]*domain.Booking{}},
		exceptions: &fakeExceptionRepo{},
		slots:      &fakeSlotRepo{slots: map[string]*domain.Slot{}},
		blackouts:  &fakeBlackoutRepo{},
		tx:         &fakeTxManager{},
		pub:        &fakePublisher{},
	}
	for _, b := range bookings {
		env.bookings.bookings[b.ID] = b
	}
	env.svc = NewService(
		&fakeAmenityRepo{amenity: &domain.Amenity{
			ID:                 "amenity-1",
			OperatingStartTime: "08:00",
			OperatingEndTime:   "20:00",
			Timezone:           "UTC",
			Active:             true,
		}},
		env.bookings,
		env.exceptions,
		env.slots,
		env.blackouts,
		env.tx,
		env.pub,
		nopLogger{},
	)
	return env
}

func TestService_CreateException(t *testing.T) {
	ctx := context.Background()

	t.Run("skip on an unmaterialized occurrence only stores the exception", func(t *testing.T) {
		env := newEnv(seriesParent())

		resp, err := env.svc.CreateException(ctx, "parent-1", &models.CreateExceptionRequest{
			OccurrenceDate: date(2025, time.June, 9),
			ExceptionType:  "skip",
			Reason:         "family visit",
		})
		require.NoError(t, err)

		assert.Equal(t, "skip", resp.ExceptionType)
		assert.Nil(t, resp.AffectedBookingID)
		require.Len(t, env.exceptions.created, 1)
		assert.Empty(t, env.bookings.cancelled)
		assert.Empty(t, env.pub.keys)
	})

	t.Run("skip cancels an already materialized occurrence and frees slots", func(t *testing.T) {
		occ := date(2025, time.June, 9)
		env := newEnv(seriesParent(), seriesChild("child-1", occ, []string{"s1"}))
		env.slots.slots["s1"] = seriesSlot("s1", occ, "10:00", "11:00")

		resp, err := env.svc.CreateException(ctx, "parent-1", &models.CreateExceptionRequest{
			OccurrenceDate: occ,
			ExceptionType:  "skip",
			Reason:         "maintenance",
		})
		require.NoError(t, err)

		require.NotNil(t, resp.AffectedBookingID)
		assert.Equal(t, "child-1", *resp.AffectedBookingID)
		assert.Equal(t, []string{"child-1"}, env.bookings.cancelled)
		require.Len(t, env.slots.decremented, 1)
		assert.Equal(t, 0, env.slots.slots["s1"].TotalBookings)
		assert.Equal(t, []string{"booking.cancelled"}, env.pub.keys)
	})

	t.Run("modify rebinds a materialized occurrence to the new times", func(t *testing.T) {
		occ := date(2025, time.June, 9)
		env := newEnv(seriesParent(), seriesChild("child-1", occ, []string{"s1"}))
		env.slots.slots["s1"] = seriesSlot("s1", occ, "10:00", "11:00")
		moved := seriesSlot("s2", occ, "15:00", "16:00")
		moved.TotalBookings = 0
		env.slots.slots["s2"] = moved

		resp, err := env.svc.CreateException(ctx, "parent-1", &models.CreateExceptionRequest{
			OccurrenceDate: occ,
			ExceptionType:  "modify",
			NewStartTime:   ptr.Ptr(types.TimeString("15:00")),
			NewEndTime:     ptr.Ptr(types.TimeString("16:00")),
		})
		require.NoError(t, err)

		require.NotNil(t, resp.AffectedBookingID)
		child := env.bookings.bookings["child-1"]
		assert.Equal(t, types.TimeString("15:00"), child.StartTime)
		assert.Equal(t, []string{"s2"}, child.SelectedSlotIDs)
		assert.Equal(t, 0, env.slots.slots["s1"].TotalBookings)
		assert.Equal(t, 1, env.slots.slots["s2"].TotalBookings)
		assert.Equal(t, []string{"booking.modified"}, env.pub.keys)
	})

	t.Run("duplicate exception for the occurrence", func(t *testing.T) {
		env := newEnv(seriesParent())
		env.exceptions.duplicate = true

		_, err := env.svc.CreateException(ctx, "parent-1", &models.CreateExceptionRequest{
			OccurrenceDate: date(2025, time.June, 9),
			ExceptionType:  "cancel",
		})
		assert.ErrorIs(t, err, ErrExceptionConflict)
	})

	t.Run("modify without overrides is rejected", func(t *testing.T) {
		env := newEnv(seriesParent())

		_, err := env.svc.CreateException(ctx, "parent-1", &models.CreateExceptionRequest{
			OccurrenceDate: date(2025, time.June, 9),
			ExceptionType:  "modify",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown exception type", func(t *testing.T) {
		env := newEnv(seriesParent())

		_, err := env.svc.CreateException(ctx, "parent-1", &models.CreateExceptionRequest{
			OccurrenceDate: date(2025, time.June, 9),
			ExceptionType:  "postpone",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("non-parent booking", func(t *testing.T) {
		single := &domain.Booking{ID: "booking-1", TenantID: "tenant-1", Status: domain.StatusPending}
		env := newEnv(single)

		_, err := env.svc.CreateException(ctx, "booking-1", &models.CreateExceptionRequest{
			OccurrenceDate: date(2025, time.June, 9),
			ExceptionType:  "skip",
		})
		assert.ErrorIs(t, err, ErrNotRecurrenceParent)
	})
}

func TestService_CancelFuture(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels active occurrences from the date on", func(t *testing.T) {
		env := newEnv(
			seriesParent(),
			seriesChild("child-1", date(2025, time.June, 2), []string{"s1"}),
			seriesChild("child-2", date(2025, time.June, 9), []string{"s2"}),
			seriesChild("child-3", date(2025, time.June, 16), []string{"s3"}),
		)
		for _, id := range []string{"s1", "s2", "s3"} {
			env.slots.slots[id] = seriesSlot(id, date(2025, time.June, 2), "10:00", "11:00")
		}

		resp, err := env.svc.CancelFuture(ctx, "parent-1", &models.CancelFutureRequest{
			FromDate: date(2025, time.June, 9),
			Reason:   "moving out",
		})
		require.NoError(t, err)

		assert.Equal(t, 2, resp.CancelledCount)
		assert.ElementsMatch(t, []string{"child-2", "child-3"}, resp.CancelledIDs)
		assert.ElementsMatch(t, []string{"child-2", "child-3"}, env.bookings.cancelled)
		assert.Len(t, env.slots.decremented, 2)
		assert.Equal(t, domain.StatusConfirmed, env.bookings.bookings["child-1"].Status)
		assert.Empty(t, resp.Errors)
		assert.Len(t, env.pub.keys, 2)
	})

	t.Run("a failed occurrence does not block the rest", func(t *testing.T) {
		env := newEnv(
			seriesParent(),
			seriesChild("child-1", date(2025, time.June, 9), []string{"s1"}),
			seriesChild("child-2", date(2025, time.June, 16), []string{"s2"}),
			seriesChild("child-3", date(2025, time.June, 23), []string{"s3"}),
		)
		for _, id := range []string{"s1", "s2", "s3"} {
			env.slots.slots[id] = seriesSlot(id, date(2025, time.June, 9), "10:00", "11:00")
		}
		env.slots.decrementErr = map[string]error{"s2": fmt.Errorf("storage_slot: connection reset")}

		resp, err := env.svc.CancelFuture(ctx, "parent-1", &models.CancelFutureRequest{
			FromDate: date(2025, time.June, 9),
			Reason:   "moving out",
		})
		require.NoError(t, err)

		// Каждое вхождение отменяется в своей транзакции: сбой одного не
		// откатывает остальные
		assert.Equal(t, 2, resp.CancelledCount)
		assert.ElementsMatch(t, []string{"child-1", "child-3"}, resp.CancelledIDs)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0], "child-2")
		assert.Equal(t, domain.StatusConfirmed, env.bookings.bookings["child-2"].Status)
		assert.ElementsMatch(t, []string{"child-1", "child-3"}, env.bookings.cancelled)
		assert.Len(t, env.pub.keys, 2)
	})

	t.Run("already cancelled occurrences are not touched", func(t *testing.T) {
		done := seriesChild("child-1", date(2025, time.June, 9), []string{"s1"})
		done.Status = domain.StatusCancelled
		env := newEnv(seriesParent(), done)

		resp, err := env.svc.CancelFuture(ctx, "parent-1", &models.CancelFutureRequest{
			FromDate: date(2025, time.June, 1),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, resp.CancelledCount)
		assert.Empty(t, env.bookings.cancelled)
	})

	t.Run("missing from date", func(t *testing.T) {
		env := newEnv(seriesParent())

		_, err := env.svc.CancelFuture(ctx, "parent-1", &models.CancelFutureRequest{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown parent", func(t *testing.T) {
		env := newEnv()

		_, err := env.svc.CancelFuture(ctx, "missing", &models.CancelFutureRequest{
			FromDate: date(2025, time.June, 1),
		})
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestService_UpdateChildren(t *testing.T) {
	ctx := context.Background()

	t.Run("updates notes on active occurrences only", func(t *testing.T) {
		terminal := seriesChild("child-2", date(2025, time.June, 9), nil)
		terminal.Status = domain.StatusCancelled
		env := newEnv(
			seriesParent(),
			seriesChild("child-1", date(2025, time.June, 2), nil),
			terminal,
		)

		resp, err := env.svc.UpdateChildren(ctx, "parent-1", &models.UpdateChildrenRequest{
			Notes: ptr.Ptr("access code changed"),
		})
		require.NoError(t, err)

		assert.Equal(t, 1, resp.UpdatedCount)
		assert.Equal(t, []string{"child-1"}, resp.UpdatedIDs)
		require.NotNil(t, env.bookings.bookings["child-1"].Notes)
		assert.Equal(t, "access code changed", *env.bookings.bookings["child-1"].Notes)
		assert.Nil(t, env.bookings.bookings["child-2"].Notes)
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		env := newEnv(seriesParent())

		_, err := env.svc.UpdateChildren(ctx, "parent-1", &models.UpdateChildrenRequest{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
