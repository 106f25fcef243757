package expand_recurrence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/usecase/place_booking"
	"github.com/helixcare/Resido-AmenityService/pkg/ptr"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

type fakeBookingRepo struct {
	parent   *domain.Booking
	children []*domain.Booking
}

func (f *fakeBookingRepo) GetByID(_ context.Context, _ string) (*domain.Booking, error) {
	return f.parent, nil
}

func (f *fakeBookingRepo) ListChildren(_ context.Context, _ domain.ChildrenFilter) ([]*domain.Booking, error) {
	return f.children, nil
}

type fakeExceptionRepo struct {
	exceptions []*domain.RecurrenceException
}

func (f *fakeExceptionRepo) ListByParent(_ context.Context, _ string) ([]*domain.RecurrenceException, error) {
	return f.exceptions, nil
}

type fakePlacer struct {
	requests []*place_booking.ChildRequest
	failOn   map[string]error // ключ: дата вхождения YYYY-MM-DD
	nextID   int
}

func (f *fakePlacer) PlaceChild(_ context.Context, req *place_booking.ChildRequest) (*domain.Booking, error) {
	if err, ok := f.failOn[req.OccurrenceDate.Format(domain.DateFormat)]; ok {
		return nil, err
	}
	f.requests = append(f.requests, req)
	f.nextID++
	return &domain.Booking{
		ID:                 fmt.Sprintf("child-%d", f.nextID),
		DisplayID:          fmt.Sprintf("BKG-%d", f.nextID),
		AmenityID:          req.Parent.AmenityID,
		TenantID:           req.Parent.TenantID,
		BookingDate:        req.BookingDate,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Status:             req.Parent.Status,
		ParentBookingID:    &req.Parent.ID,
		OccurrenceDate:     ptr.Ptr(req.OccurrenceDate),
		RecurrenceSequence: ptr.Ptr(req.RecurrenceSequence),
	}, nil
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

// weeklyParent серия по понедельникам, четыре вхождения начиная с 2 июня 2025
func weeklyParent() *domain.Booking {
	return &domain.Booking{
		ID:                    "parent-1",
		AmenityID:             "amenity-1",
		TenantID:              "tenant-1",
		BookingDate:           date(2025, time.June, 2),
		StartTime:             "10:00",
		EndTime:               "11:00",
		Status:                domain.StatusPending,
		IsRecurring:           true,
		RepeatFrequency:       ptr.Ptr(domain.FrequencyWeekly),
		RepeatInterval:        1,
		RecurrenceEndType:     ptr.Ptr(domain.EndAfterOccurrences),
		RecurrenceOccurrences: ptr.Ptr(4),
	}
}

func newExpander(bookings *fakeBookingRepo, exceptions *fakeExceptionRepo, placer *fakePlacer, pub *fakePublisher) *UseCase {
	return NewUseCase(bookings, exceptions, placer, pub, nopLogger{})
}

func TestExpandRecurrence_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("materializes every occurrence in order", func(t *testing.T) {
		placer := &fakePlacer{}
		pub := &fakePublisher{}
		uc := newExpander(&fakeBookingRepo{parent: weeklyParent()}, &fakeExceptionRepo{}, placer, pub)

		resp, err := uc.Execute(ctx, &Request{ParentBookingID: "parent-1"})
		require.NoError(t, err)

		require.Len(t, resp.Created, 4)
		assert.Empty(t, resp.Skipped)
		assert.Empty(t, resp.Errors)

		wantDates := []time.Time{
			date(2025, time.June, 2),
			date(2025, time.June, 9),
			date(2025, time.June, 16),
			date(2025, time.June, 23),
		}
		for i, c := range resp.Created {
			assert.Equal(t, wantDates[i], c.BookingDate)
			assert.Equal(t, i+1, c.RecurrenceSequence)
		}

		assert.Equal(t, []string{"recurrence.expanded"}, pub.keys)
	})

	t.Run("skip exception does not advance the sequence", func(t *testing.T) {
		exceptions := &fakeExceptionRepo{exceptions: []*domain.RecurrenceException{{
			ID:              "exc-1",
			ParentBookingID: "parent-1",
			OccurrenceDate:  date(2025, time.June, 9),
			ExceptionType:   domain.ExceptionSkip,
		}}}
		placer := &fakePlacer{}
		uc := newExpander(&fakeBookingRepo{parent: weeklyParent()}, exceptions, placer, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{ParentBookingID: "parent-1"})
		require.NoError(t, err)

		require.Len(t, resp.Created, 3)
		assert.Equal(t, []time.Time{date(2025, time.June, 9)}, resp.Skipped)

		// Вторая материализованная дата получает sequence 2, а не 3
		assert.Equal(t, date(2025, time.June, 16), resp.Created[1].BookingDate)
		assert.Equal(t, 2, resp.Created[1].RecurrenceSequence)
		assert.Equal(t, 3, resp.Created[2].RecurrenceSequence)
	})

	t.Run("cancel exception suppresses like skip", func(t *testing.T) {
		exceptions := &fakeExceptionRepo{exceptions: []*domain.RecurrenceException{{
			OccurrenceDate: date(2025, time.June, 2),
			ExceptionType:  domain.ExceptionCancel,
		}}}
		placer := &fakePlacer{}
		uc := newExpander(&fakeBookingRepo{parent: weeklyParent()}, exceptions, placer, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{ParentBookingID: "parent-1"})
		require.NoError(t, err)
		assert.Len(t, resp.Created, 3)
		assert.Equal(t, 1, resp.Created[0].RecurrenceSequence)
	})

	t.Run("modify exception overrides date and times", func(t *testing.T) {
		exceptions := &fakeExceptionRepo{exceptions: []*domain.RecurrenceException{{
			OccurrenceDate: date(2025, time.June, 9),
			ExceptionType:  domain.ExceptionModify,
			NewBookingDate: ptr.Ptr(date(2025, time.June, 10)),
			NewStartTime:   ptr.Ptr(types.TimeString("14:00")),
			NewEndTime:     ptr.Ptr(types.TimeString("15:00")),
		}}}
		placer := &fakePlacer{}
		uc := newExpander(&fakeBookingRepo{parent: weeklyParent()}, exceptions, placer, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{ParentBookingID: "parent-1"})
		require.NoError(t, err)
		require.Len(t, resp.Created, 4)

		moved := resp.Created[1]
		assert.Equal(t, date(2025, time.June, 10), moved.BookingDate)
		assert.Equal(t, types.TimeString("14:00"), moved.StartTime)
		assert.Equal(t, types.TimeString("15:00"), moved.EndTime)
		// Последовательность продвигается: modify не подавляет вхождение
		assert.Equal(t, 2, moved.RecurrenceSequence)
	})

	t.Run("rerun keeps existing children and fills gaps", func(t *testing.T) {
		bookings := &fakeBookingRepo{
			parent: weeklyParent(),
			children: []*domain.Booking{
				{ID: "child-a", OccurrenceDate: ptr.Ptr(date(2025, time.June, 2))},
				{ID: "child-b", OccurrenceDate: ptr.Ptr(date(2025, time.June, 16))},
			},
		}
		placer := &fakePlacer{}
		uc := newExpander(bookings, &fakeExceptionRepo{}, placer, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{ParentBookingID: "parent-1"})
		require.NoError(t, err)

		assert.ElementsMatch(t, []time.Time{date(2025, time.June, 2), date(2025, time.June, 16)}, resp.Kept)
		require.Len(t, resp.Created, 2)
		assert.Equal(t, date(2025, time.June, 9), resp.Created[0].BookingDate)
		assert.Equal(t, 2, resp.Created[0].RecurrenceSequence)
		assert.Equal(t, date(2025, time.June, 23), resp.Created[1].BookingDate)
		assert.Equal(t, 4, resp.Created[1].RecurrenceSequence)
	})

	t.Run("a failed occurrence does not break the rest", func(t *testing.T) {
		placer := &fakePlacer{failOn: map[string]error{
			"2025-06-09": errors.New("place_booking: no available slot for the requested range"),
		}}
		uc := newExpander(&fakeBookingRepo{parent: weeklyParent()}, &fakeExceptionRepo{}, placer, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{ParentBookingID: "parent-1"})
		require.NoError(t, err)

		require.Len(t, resp.Created, 3)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0], "2025-06-09")
		// Неудачное вхождение позицию в последовательности не занимает
		seqs := make([]int, 0, len(resp.Created))
		for _, c := range resp.Created {
			seqs = append(seqs, c.RecurrenceSequence)
		}
		assert.Equal(t, []int{1, 2, 3}, seqs)
	})

	t.Run("non-parent booking is rejected", func(t *testing.T) {
		single := &domain.Booking{ID: "booking-1", IsRecurring: false}
		uc := newExpander(&fakeBookingRepo{parent: single}, &fakeExceptionRepo{}, &fakePlacer{}, &fakePublisher{})

		_, err := uc.Execute(ctx, &Request{ParentBookingID: "booking-1"})
		assert.ErrorIs(t, err, ErrNotRecurrenceParent)
	})

	t.Run("child of a series is not a parent", func(t *testing.T) {
		child := weeklyParent()
		child.ParentBookingID = ptr.Ptr("parent-0")
		uc := newExpander(&fakeBookingRepo{parent: child}, &fakeExceptionRepo{}, &fakePlacer{}, &fakePublisher{})

		_, err := uc.Execute(ctx, &Request{ParentBookingID: "child-1"})
		assert.ErrorIs(t, err, ErrNotRecurrenceParent)
	})

	t.Run("incomplete recurrence fields", func(t *testing.T) {
		parent := weeklyParent()
		parent.RecurrenceEndType = nil
		uc := newExpander(&fakeBookingRepo{parent: parent}, &fakeExceptionRepo{}, &fakePlacer{}, &fakePublisher{})

		_, err := uc.Execute(ctx, &Request{ParentBookingID: "parent-1"})
		assert.ErrorIs(t, err, ErrRuleInvalid)
	})

	t.Run("empty parent id", func(t *testing.T) {
		uc := newExpander(&fakeBookingRepo{}, &fakeExceptionRepo{}, &fakePlacer{}, &fakePublisher{})

		_, err := uc.Execute(ctx, &Request{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestExpandRecurrence_WeekdaySeries(t *testing.T) {
	ctx := context.Background()

	t.Run("weekly with explicit weekdays expands within each week", func(t *testing.T) {
		parent := weeklyParent()
		parent.RepeatOnDaysOfWeek = []string{"monday", "wednesday"}
		parent.RecurrenceOccurrences = ptr.Ptr(4)

		placer := &fakePlacer{}
		uc := newExpander(&fakeBookingRepo{parent: parent}, &fakeExceptionRepo{}, placer, &fakePublisher{})

		resp, err := uc.Execute(ctx, &Request{ParentBookingID: "parent-1"})
		require.NoError(t, err)

		require.Len(t, resp.Created, 4)
		assert.Equal(t, date(2025, time.June, 2), resp.Created[0].BookingDate)  // пн
		assert.Equal(t, date(2025, time.June, 4), resp.Created[1].BookingDate)  // ср
		assert.Equal(t, date(2025, time.June, 9), resp.Created[2].BookingDate)  // пн
		assert.Equal(t, date(2025, time.June, 11), resp.Created[3].BookingDate) // ср
	})
}
