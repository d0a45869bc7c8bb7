package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/agrirent/service-booking/internal/common/domain"
	"github.com/agrirent/service-booking/internal/common/kafka"
	bookingDomain "github.com/agrirent/service-booking/internal/domain/booking"
	equipmentDomain "github.com/agrirent/service-booking/internal/domain/equipment"
	partyDomain "github.com/agrirent/service-booking/internal/domain/party"
	"github.com/google/uuid"
)

// fakeBookingRepo keeps bookings in memory and mirrors the storage rules of the
// PostgreSQL repository: the overlap predicate, atomic exclusive insert and
// version compare-and-set.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	failWith error
	saveErr  error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) put(bk *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return clone(bk), nil
}

func (r *fakeBookingRepo) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if keep(bk) {
			out = append(out, clone(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func statusMatches(bk *bookingDomain.Booking, status *bookingDomain.BookingStatus) bool {
	return status == nil || bk.Status() == *status
}

func (r *fakeBookingRepo) FindByFarmerID(_ context.Context, farmerID uuid.UUID, status *bookingDomain.BookingStatus) ([]*bookingDomain.Booking, error) {
	return r.filter(func(bk *bookingDomain.Booking) bool {
		return bk.FarmerID() == farmerID && statusMatches(bk, status)
	}), nil
}

func (r *fakeBookingRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID, status *bookingDomain.BookingStatus) ([]*bookingDomain.Booking, error) {
	return r.filter(func(bk *bookingDomain.Booking) bool {
		return bk.OwnerID() == ownerID && statusMatches(bk, status)
	}), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filter(func(*bookingDomain.Booking) bool { return true })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) overlaps(equipmentID uuid.UUID, period bookingDomain.DateRange) bool {
	for _, bk := range r.bookings {
		if bk.EquipmentID() == equipmentID && bk.Status().IsBlocking() && bk.Period().Overlaps(period) {
			return true
		}
	}
	return false
}

func (r *fakeBookingRepo) HasOverlap(_ context.Context, equipmentID uuid.UUID, period bookingDomain.DateRange) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlaps(equipmentID, period), nil
}

func (r *fakeBookingRepo) FindUpcoming(_ context.Context, equipmentID uuid.UUID, from time.Time) ([]*bookingDomain.Booking, error) {
	return r.filter(func(bk *bookingDomain.Booking) bool {
		return bk.EquipmentID() == equipmentID && bk.Status().IsBlocking() && !bk.EndDate().Before(from)
	}), nil
}

func (r *fakeBookingRepo) CountBlocking(_ context.Context, equipmentID uuid.UUID) (int64, error) {
	held := r.filter(func(bk *bookingDomain.Booking) bool {
		return bk.EquipmentID() == equipmentID && bk.Status().IsBlocking()
	})
	return int64(len(held)), nil
}

func (r *fakeBookingRepo) SaveExclusive(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.overlaps(bk.EquipmentID(), bk.Period()) {
		return domain.NewConflictError("overlapping booking exists")
	}
	r.bookings[bk.ID()] = clone(bk)
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = clone(bk)
	return nil
}

func clone(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		bk.ID(), bk.EquipmentID(), bk.FarmerID(), bk.OwnerID(), bk.Period(),
		bk.TotalDays(), bk.Usage(), bk.Unit(), bk.DailyRate(), bk.TotalCost(),
		bk.Status(), bk.PaymentStatus(), bk.PaymentConfirmedAt(), bk.FarmerNotes(), bk.OwnerNotes(),
		bk.Version(), bk.CreatedAt(), bk.UpdatedAt(),
	)
}

type fakeEquipmentRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*equipmentDomain.Equipment
	deleteErr error
}

func newFakeEquipmentRepo() *fakeEquipmentRepo {
	return &fakeEquipmentRepo{items: make(map[uuid.UUID]*equipmentDomain.Equipment)}
}

func (r *fakeEquipmentRepo) FindByID(_ context.Context, id uuid.UUID) (*equipmentDomain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("Equipment", id.String())
	}
	return e, nil
}

func (r *fakeEquipmentRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*equipmentDomain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*equipmentDomain.Equipment)
	for _, id := range ids {
		if e, ok := r.items[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (r *fakeEquipmentRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*equipmentDomain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*equipmentDomain.Equipment
	for _, e := range r.items {
		if e.OwnerID() == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEquipmentRepo) List(_ context.Context, filter equipmentDomain.Filter) ([]*equipmentDomain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*equipmentDomain.Equipment
	for _, e := range r.items {
		if filter.Category != "" && e.Category() != filter.Category {
			continue
		}
		if filter.AvailableOnly && !e.IsAvailable() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEquipmentRepo) Save(_ context.Context, e *equipmentDomain.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[e.ID()] = e
	return nil
}

func (r *fakeEquipmentRepo) Update(ctx context.Context, e *equipmentDomain.Equipment) error {
	return r.Save(ctx, e)
}

func (r *fakeEquipmentRepo) DeleteUnlessBooked(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.items, id)
	return nil
}

type fakePartyRepo struct {
	mu      sync.Mutex
	parties map[uuid.UUID]*partyDomain.Party
	fail    bool
}

func newFakePartyRepo() *fakePartyRepo {
	return &fakePartyRepo{parties: make(map[uuid.UUID]*partyDomain.Party)}
}

func (r *fakePartyRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*partyDomain.Party, error) {
	if r.fail {
		return nil, errors.New("party store unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*partyDomain.Party)
	for _, id := range ids {
		if p, ok := r.parties[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakePartyRepo) Upsert(_ context.Context, p *partyDomain.Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parties[p.ID] = p
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
