package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/agrirent/service-booking/internal/common/auth"
	"github.com/agrirent/service-booking/internal/common/domain"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	equipmentDomain "github.com/agrirent/service-booking/internal/domain/equipment"
	partyDomain "github.com/agrirent/service-booking/internal/domain/party"
	"github.com/agrirent/service-booking/internal/proto/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type bookingFixture struct {
	svc       *BookingService
	bookings  *fakeBookingRepo
	equipment *fakeEquipmentRepo
	parties   *fakePartyRepo
	publisher *fakePublisher
	owner     auth.Actor
	farmer    auth.Actor
	tractor   *equipmentDomain.Equipment
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		bookings:  newFakeBookingRepo(),
		equipment: newFakeEquipmentRepo(),
		parties:   newFakePartyRepo(),
		publisher: &fakePublisher{},
		owner:     auth.NewActor(uuid.New(), auth.RoleOwner),
		farmer:    auth.NewActor(uuid.New(), auth.RoleFarmer),
	}

	f.tractor = f.addEquipment(t, bookingDomain.UnitDay, 2000, true)

	logger := zap.NewNop()
	composer := NewBookingComposer(f.equipment, f.parties, logger)
	f.svc = NewBookingService(f.bookings, f.equipment, bookingDomain.NewStandardPricingStrategy(), composer, f.publisher, logger).
		WithClock(func() time.Time { return day("2024-07-01").Add(9 * time.Hour) })
	return f
}

func (f *bookingFixture) addEquipment(t *testing.T, unit bookingDomain.PricingUnit, rate float64, available bool) *equipmentDomain.Equipment {
	t.Helper()
	e := equipmentDomain.Reconstruct(uuid.New(), f.owner.ID, equipmentDomain.Details{
		Name:        "Mahindra 575 DI",
		Description: "45 HP tractor",
		Category:    equipmentDomain.CategoryTractor,
		Images:      []string{"https://img.example/tractor.jpg"},
		DailyRate:   rate,
		PricingUnit: unit,
	}, available, 1, day("2024-06-01"), day("2024-06-01"))
	require.NoError(t, f.equipment.Save(context.Background(), e))
	return e
}

func (f *bookingFixture) book(t *testing.T, actor auth.Actor, start, end string) *BookingDTO {
	t.Helper()
	dto, err := f.svc.CreateBooking(context.Background(), actor, CreateBookingRequest{
		EquipmentID: f.tractor.ID(),
		StartDate:   day(start),
		EndDate:     day(end),
	})
	require.NoError(t, err)
	return dto
}

func (f *bookingFixture) setStatus(t *testing.T, id uuid.UUID, status bookingDomain.BookingStatus) {
	t.Helper()
	bk, err := f.bookings.FindByID(context.Background(), id)
	require.NoError(t, err)
	f.bookings.put(bookingDomain.ReconstructBooking(
		bk.ID(), bk.EquipmentID(), bk.FarmerID(), bk.OwnerID(), bk.Period(),
		bk.TotalDays(), bk.Usage(), bk.Unit(), bk.DailyRate(), bk.TotalCost(),
		status, bk.PaymentStatus(), bk.PaymentConfirmedAt(), bk.FarmerNotes(), bk.OwnerNotes(),
		bk.Version(), bk.CreatedAt(), bk.UpdatedAt(),
	))
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newBookingFixture(t)
		f.parties.parties[f.farmer.ID] = &partyDomain.Party{ID: f.farmer.ID, Name: "Ramesh", Phone: "9800000001"}

		dto, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-12"),
			FarmerNotes: "need it by 7am",
		})
		require.NoError(t, err)

		assert.Equal(t, "pending", dto.Status)
		assert.Equal(t, "pending", dto.PaymentStatus)
		assert.Equal(t, 2, dto.TotalDays)
		assert.Equal(t, 4000.0, dto.TotalCost)
		assert.Equal(t, 2000.0, dto.DailyRate)
		assert.Equal(t, "day", dto.Unit)
		assert.Equal(t, f.owner.ID, dto.Owner.ID)
		assert.Equal(t, "Mahindra 575 DI", dto.Equipment.Name)
		assert.Equal(t, "Ramesh", dto.Farmer.Name)
		assert.Empty(t, dto.Owner.Name, "unknown party degrades to an empty block")
		assert.Equal(t, []string{events.BookingRequested}, f.publisher.types())
		assert.Equal(t, dto.ID.String(), f.publisher.events[0].Subject)
	})

	t.Run("EquipmentNotFound", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: uuid.New(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-12"),
		})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("EquipmentUnavailable", func(t *testing.T) {
		f := newBookingFixture(t)
		e := f.addEquipment(t, bookingDomain.UnitDay, 100, false)
		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: e.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-12"),
		})
		assert.True(t, domain.IsConflict(err))
		assert.Contains(t, err.Error(), "not available for rental")
	})

	t.Run("SelfBookingIsForbiddenEvenWithFarmerRole", func(t *testing.T) {
		f := newBookingFixture(t)
		selfAsFarmer := auth.NewActor(f.owner.ID, auth.RoleFarmer)
		_, err := f.svc.CreateBooking(ctx, selfAsFarmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-12"),
		})
		assert.True(t, domain.IsForbidden(err))
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-07-12"),
			EndDate:     day("2024-07-10"),
		})
		assert.True(t, domain.IsInvalidInput(err))
	})

	t.Run("StartInThePast", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-06-30"),
			EndDate:     day("2024-07-02"),
		})
		require.Error(t, err)
		assert.True(t, domain.IsInvalidInput(err))
		assert.Contains(t, err.Error(), "past")
	})

	t.Run("EarlierTodayIsAllowed", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-07-01").Add(6 * time.Hour),
			EndDate:     day("2024-07-01").Add(6 * time.Hour),
		})
		require.NoError(t, err)
	})

	t.Run("HourUnitRequiresUsage", func(t *testing.T) {
		f := newBookingFixture(t)
		e := f.addEquipment(t, bookingDomain.UnitHour, 100, true)

		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: e.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-10"),
		})
		assert.True(t, domain.IsInvalidInput(err))

		usage := 3.5
		dto, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: e.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-10"),
			Usage:       &usage,
		})
		require.NoError(t, err)
		assert.Equal(t, 350.0, dto.TotalCost)
		assert.Equal(t, 1, dto.TotalDays)
	})

	t.Run("FractionalUsageStoredAtTwoDecimals", func(t *testing.T) {
		f := newBookingFixture(t)
		e := f.addEquipment(t, bookingDomain.UnitHour, 100, true)

		tiny := 0.004
		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: e.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-10"),
			Usage:       &tiny,
		})
		assert.True(t, domain.IsInvalidInput(err))

		eighth := 0.125
		dto, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: e.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-10"),
			Usage:       &eighth,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.13, dto.Usage)
		assert.Equal(t, 13.0, dto.TotalCost)

		stored, err := f.bookings.FindByID(ctx, dto.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.TotalCost(), math.Round(stored.Usage()*stored.DailyRate()*100)/100)
	})

	t.Run("WithdrawnWhileSaving", func(t *testing.T) {
		f := newBookingFixture(t)
		f.bookings.saveErr = bookingDomain.ErrEquipmentUnavailable

		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-12"),
		})
		assert.ErrorIs(t, err, bookingDomain.ErrEquipmentUnavailable)
		assert.NotContains(t, err.Error(), "already booked")
	})

	t.Run("DeletedWhileSaving", func(t *testing.T) {
		f := newBookingFixture(t)
		f.bookings.saveErr = domain.NewNotFoundError("Equipment", f.tractor.ID().String())

		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-12"),
		})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("OverlapIsConflict", func(t *testing.T) {
		f := newBookingFixture(t)
		f.book(t, f.farmer, "2024-07-10", "2024-07-12")

		other := auth.NewActor(uuid.New(), auth.RoleFarmer)
		_, err := f.svc.CreateBooking(ctx, other, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-07-12"),
			EndDate:     day("2024-07-14"),
		})
		assert.True(t, domain.IsConflict(err))
		assert.EqualError(t, err, msgAlreadyBooked)
	})

	t.Run("ReleasedSlotsDoNotBlock", func(t *testing.T) {
		for _, status := range []bookingDomain.BookingStatus{
			bookingDomain.StatusRejected, bookingDomain.StatusCancelled, bookingDomain.StatusCompleted,
		} {
			f := newBookingFixture(t)
			first := f.book(t, f.farmer, "2024-07-10", "2024-07-12")
			f.setStatus(t, first.ID, status)

			_, err := f.svc.CreateBooking(ctx, auth.NewActor(uuid.New(), auth.RoleFarmer), CreateBookingRequest{
				EquipmentID: f.tractor.ID(),
				StartDate:   day("2024-07-10"),
				EndDate:     day("2024-07-12"),
			})
			assert.NoError(t, err, status)
		}
	})

	t.Run("StorageFailureIsInternal", func(t *testing.T) {
		f := newBookingFixture(t)
		f.bookings.failWith = errors.New("connection refused")
		_, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   day("2024-07-10"),
			EndDate:     day("2024-07-12"),
		})
		require.Error(t, err)
		assert.True(t, domain.IsRetryable(err))
	})

	t.Run("PublishFailureDoesNotFailRequest", func(t *testing.T) {
		f := newBookingFixture(t)
		f.publisher.err = errors.New("broker down")
		f.book(t, f.farmer, "2024-07-10", "2024-07-12")
	})
}

func TestCreateBooking_ConcurrentOverlapsAdmitOne(t *testing.T) {
	f := newBookingFixture(t)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateBooking(context.Background(), auth.NewActor(uuid.New(), auth.RoleFarmer), CreateBookingRequest{
				EquipmentID: f.tractor.ID(),
				StartDate:   day("2024-07-10"),
				EndDate:     day("2024-07-12"),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if domain.IsConflict(err) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, callers-1, conflicts)
}

func TestCheckAvailabilityAgreesWithCreateBooking(t *testing.T) {
	candidates := [][2]string{
		{"2024-07-05", "2024-07-09"},
		{"2024-07-05", "2024-07-10"},
		{"2024-07-10", "2024-07-10"},
		{"2024-07-11", "2024-07-11"},
		{"2024-07-12", "2024-07-20"},
		{"2024-07-13", "2024-07-20"},
		{"2024-07-01", "2024-07-31"},
	}

	for _, c := range candidates {
		t.Run(c[0]+".."+c[1], func(t *testing.T) {
			f := newBookingFixture(t)
			f.book(t, f.farmer, "2024-07-10", "2024-07-12")

			avail, err := f.svc.CheckAvailability(context.Background(), f.tractor.ID(), day(c[0]), day(c[1]))
			require.NoError(t, err)

			_, err = f.svc.CreateBooking(context.Background(), auth.NewActor(uuid.New(), auth.RoleFarmer), CreateBookingRequest{
				EquipmentID: f.tractor.ID(),
				StartDate:   day(c[0]),
				EndDate:     day(c[1]),
			})
			if avail.Available {
				assert.NoError(t, err)
			} else {
				assert.True(t, domain.IsConflict(err))
			}
		})
	}
}

func TestCheckAvailability(t *testing.T) {
	f := newBookingFixture(t)
	held := f.book(t, f.farmer, "2024-07-10", "2024-07-12")
	cancelled := f.book(t, auth.NewActor(uuid.New(), auth.RoleFarmer), "2024-07-20", "2024-07-21")
	f.setStatus(t, cancelled.ID, bookingDomain.StatusCancelled)

	avail, err := f.svc.CheckAvailability(context.Background(), f.tractor.ID(), day("2024-07-11"), day("2024-07-11"))
	require.NoError(t, err)
	assert.False(t, avail.Available)
	require.Len(t, avail.ExistingBookings, 1)
	assert.Equal(t, held.ID, avail.ExistingBookings[0].ID)

	avail, err = f.svc.CheckAvailability(context.Background(), f.tractor.ID(), day("2024-07-20"), day("2024-07-21"))
	require.NoError(t, err)
	assert.True(t, avail.Available)

	_, err = f.svc.CheckAvailability(context.Background(), f.tractor.ID(), day("2024-07-21"), day("2024-07-20"))
	assert.True(t, domain.IsInvalidInput(err))
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsUnknownAndPendingBeforeLookup", func(t *testing.T) {
		f := newBookingFixture(t)
		for _, s := range []string{"pending", "shipped", ""} {
			_, err := f.svc.UpdateBookingStatus(ctx, f.owner, uuid.New(), UpdateStatusRequest{Status: s})
			assert.True(t, domain.IsInvalidInput(err), s)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.UpdateBookingStatus(ctx, f.owner, uuid.New(), UpdateStatusRequest{Status: "approved"})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("OwnerApprovesWithNotes", func(t *testing.T) {
		f := newBookingFixture(t)
		bk := f.book(t, f.farmer, "2024-07-10", "2024-07-12")

		dto, err := f.svc.UpdateBookingStatus(ctx, f.owner, bk.ID, UpdateStatusRequest{Status: "approved", OwnerNotes: "bring diesel"})
		require.NoError(t, err)
		assert.Equal(t, "approved", dto.Status)
		assert.Equal(t, "bring diesel", dto.OwnerNotes)
		assert.Equal(t, int64(2), dto.Version)
		assert.Equal(t, []string{events.BookingRequested, events.BookingStatusChanged}, f.publisher.types())
	})

	t.Run("FarmerCannotApprove", func(t *testing.T) {
		f := newBookingFixture(t)
		bk := f.book(t, f.farmer, "2024-07-10", "2024-07-12")
		_, err := f.svc.UpdateBookingStatus(ctx, f.farmer, bk.ID, UpdateStatusRequest{Status: "approved"})
		assert.True(t, domain.IsForbidden(err))
	})

	t.Run("StaleWriteIsConflict", func(t *testing.T) {
		f := newBookingFixture(t)
		bk := f.book(t, f.farmer, "2024-07-10", "2024-07-12")

		stale, err := f.bookings.FindByID(ctx, bk.ID)
		require.NoError(t, err)

		_, err = f.svc.UpdateBookingStatus(ctx, f.owner, bk.ID, UpdateStatusRequest{Status: "approved"})
		require.NoError(t, err)

		require.NoError(t, stale.ChangeStatus(f.farmer, bookingDomain.StatusCancelled, "", time.Now()))
		stale.IncrementVersion()
		assert.True(t, domain.IsConflict(f.bookings.Update(ctx, stale)))
	})
}

func TestUpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("InvalidValue", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.UpdatePaymentStatus(ctx, f.owner, uuid.New(), "refunded")
		assert.True(t, domain.IsInvalidInput(err))
	})

	t.Run("ActiveBookingIsRejectedForEveryone", func(t *testing.T) {
		f := newBookingFixture(t)
		bk := f.book(t, f.farmer, "2024-07-10", "2024-07-12")
		f.setStatus(t, bk.ID, bookingDomain.StatusActive)

		_, err := f.svc.UpdatePaymentStatus(ctx, f.owner, bk.ID, "received")
		assert.True(t, domain.IsInvalidInput(err))
		_, err = f.svc.UpdatePaymentStatus(ctx, f.farmer, bk.ID, "received")
		assert.Error(t, err)
	})

	t.Run("FarmerIsForbidden", func(t *testing.T) {
		f := newBookingFixture(t)
		bk := f.book(t, f.farmer, "2024-07-10", "2024-07-12")
		f.setStatus(t, bk.ID, bookingDomain.StatusCompleted)

		_, err := f.svc.UpdatePaymentStatus(ctx, f.farmer, bk.ID, "received")
		assert.True(t, domain.IsForbidden(err))
	})
}

func TestGetBookingByID(t *testing.T) {
	f := newBookingFixture(t)
	bk := f.book(t, f.farmer, "2024-07-10", "2024-07-12")
	ctx := context.Background()

	for _, actor := range []auth.Actor{f.farmer, f.owner, auth.NewActor(uuid.New(), auth.RoleAdmin)} {
		dto, err := f.svc.GetBookingByID(ctx, actor, bk.ID)
		require.NoError(t, err)
		assert.Equal(t, bk.ID, dto.ID)
	}

	_, err := f.svc.GetBookingByID(ctx, auth.NewActor(uuid.New(), auth.RoleFarmer), bk.ID)
	assert.True(t, domain.IsForbidden(err))

	_, err = f.svc.GetBookingByID(ctx, f.farmer, uuid.New())
	assert.True(t, domain.IsNotFound(err))
}

func TestListBookings(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		start := day("2024-07-10").AddDate(0, 0, i*5)
		now := day("2024-07-01").Add(time.Duration(i) * time.Hour)
		f.svc.WithClock(func() time.Time { return now })
		dto, err := f.svc.CreateBooking(ctx, f.farmer, CreateBookingRequest{
			EquipmentID: f.tractor.ID(),
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 1),
		})
		require.NoError(t, err)
		ids = append(ids, dto.ID)
	}
	f.setStatus(t, ids[0], bookingDomain.StatusApproved)

	mine, err := f.svc.ListFarmerBookings(ctx, f.farmer, "all")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, ids[2], mine[0].ID, "newest first")
	assert.Equal(t, ids[0], mine[2].ID)

	approved, err := f.svc.ListOwnerBookings(ctx, f.owner, "approved")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, ids[0], approved[0].ID)

	none, err := f.svc.ListOwnerBookings(ctx, auth.NewActor(uuid.New(), auth.RoleOwner), "")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.ListFarmerBookings(ctx, f.farmer, "shipped")
	assert.True(t, domain.IsInvalidInput(err))
}

func TestAdminBookingQueries(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	first := f.book(t, f.farmer, "2024-07-10", "2024-07-11")
	f.book(t, f.farmer, "2024-07-15", "2024-07-16")
	f.setStatus(t, first.ID, bookingDomain.StatusRejected)

	page, err := f.svc.ListAllBookings(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 1)

	stats, err := f.svc.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["pending"])
	assert.Equal(t, int64(1), stats.ByStatus["rejected"])
}

func TestBookingLifecycleEndToEnd(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	bk := f.book(t, f.farmer, "2024-07-10", "2024-07-12")
	assert.Equal(t, "pending", bk.Status)
	assert.Equal(t, 2, bk.TotalDays)
	assert.Equal(t, 4000.0, bk.TotalCost)

	f2 := auth.NewActor(uuid.New(), auth.RoleFarmer)
	_, err := f.svc.CreateBooking(ctx, f2, CreateBookingRequest{
		EquipmentID: f.tractor.ID(),
		StartDate:   day("2024-07-11"),
		EndDate:     day("2024-07-13"),
	})
	assert.True(t, domain.IsConflict(err))

	for _, status := range []string{"approved", "active", "completed"} {
		dto, err := f.svc.UpdateBookingStatus(ctx, f.owner, bk.ID, UpdateStatusRequest{Status: status})
		require.NoError(t, err, status)
		assert.Equal(t, status, dto.Status)
	}

	completed, err := f.svc.GetBookingByID(ctx, f.owner, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", completed.PaymentStatus)
	assert.Nil(t, completed.PaymentConfirmedAt)

	paid, err := f.svc.UpdatePaymentStatus(ctx, f.owner, bk.ID, "received")
	require.NoError(t, err)
	assert.Equal(t, "received", paid.PaymentStatus)
	require.NotNil(t, paid.PaymentConfirmedAt)

	_, err = f.svc.UpdateBookingStatus(ctx, f.farmer, bk.ID, UpdateStatusRequest{Status: "cancelled"})
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))

	final, err := f.svc.GetBookingByID(ctx, f.farmer, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", final.Status)

	assert.Equal(t, []string{
		events.BookingRequested,
		events.BookingStatusChanged,
		events.BookingStatusChanged,
		events.BookingStatusChanged,
		events.BookingPaymentUpdated,
	}, f.publisher.types())
}

func TestTerminalStatesRejectEveryUpdate(t *testing.T) {
	ctx := context.Background()
	for _, terminal := range []bookingDomain.BookingStatus{
		bookingDomain.StatusCompleted, bookingDomain.StatusRejected, bookingDomain.StatusCancelled,
	} {
		f := newBookingFixture(t)
		bk := f.book(t, f.farmer, "2024-07-10", "2024-07-12")
		f.setStatus(t, bk.ID, terminal)

		actors := []auth.Actor{f.farmer, f.owner, auth.NewActor(uuid.New(), auth.RoleAdmin)}
		for _, actor := range actors {
			for _, target := range []string{"approved", "rejected", "active", "completed", "cancelled"} {
				_, err := f.svc.UpdateBookingStatus(ctx, actor, bk.ID, UpdateStatusRequest{Status: target})
				assert.Error(t, err, fmt.Sprintf("%s -> %s by %s", terminal, target, actor.Role))
			}
		}
	}
}
