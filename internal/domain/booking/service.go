package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sumaargentina/turnos-api/internal/domain/coupon"
	"github.com/sumaargentina/turnos-api/internal/domain/doctor"
	"github.com/sumaargentina/turnos-api/internal/domain/schedule"
	"github.com/sumaargentina/turnos-api/internal/platform/cache"
	"github.com/sumaargentina/turnos-api/internal/platform/payments"
)

// DoctorDirectory resolves doctors and their bookable locations. Satisfied
// by the doctor service.
type DoctorDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	Locations(ctx context.Context, id uuid.UUID) ([]*doctor.Location, error)
}

// CouponValidator checks a code and prices the discount. Satisfied by the
// coupon service.
type CouponValidator interface {
	Validate(ctx context.Context, code string, doctorID uuid.UUID, baseFee float64) (*coupon.Validation, error)
}

// Notifier sends the booking confirmation. Satisfied by the notification
// dispatcher adapter.
type Notifier interface {
	SendAppointmentConfirmation(ctx context.Context, a *Appointment) error
}

// Service implements availability queries and conflict-guarded booking.
type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	coupons  CouponValidator
	cache    cache.AvailabilityCache
	gateway  payments.Gateway
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a booking service. cache, gateway and notifier may be
// nil; the corresponding behavior is skipped.
func NewService(repo Repository, doctors DoctorDirectory, coupons CouponValidator,
	availCache cache.AvailabilityCache, gateway payments.Gateway, notifier Notifier,
	log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		coupons:  coupons,
		cache:    availCache,
		gateway:  gateway,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// normalizeLocationKey maps the empty key to a stable cache field.
func normalizeLocationKey(key string) string {
	if key == "" {
		return "legacy"
	}
	return strings.ToLower(key)
}

// resolveLocation picks the bookable context the key names: a location id,
// "online", or empty for the legacy/first office.
func resolveLocation(locations []*doctor.Location, key string) (*doctor.Location, error) {
	if strings.EqualFold(key, "online") {
		for _, l := range locations {
			if l.Online {
				return l, nil
			}
		}
		return nil, fmt.Errorf("online consultations not offered: %w", ErrNotAvailable)
	}
	if key == "" {
		for _, l := range locations {
			if !l.Online {
				return l, nil
			}
		}
		return nil, fmt.Errorf("no office location: %w", ErrNotAvailable)
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("invalid location key %q", key)
	}
	for _, l := range locations {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("location %s: %w", key, doctor.ErrNotFound)
}

// Availability returns the free slots for a doctor's location on a date.
// Past dates yield ErrNotAvailable.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, locationKey, dateStr string) ([]string, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD")
	}
	if dateStr < s.now().Format("2006-01-02") {
		return nil, fmt.Errorf("date %s is in the past: %w", dateStr, ErrNotAvailable)
	}

	cacheKey := normalizeLocationKey(locationKey)
	if s.cache != nil {
		if slots, ok := s.cache.Get(ctx, doctorID.String(), dateStr, cacheKey); ok {
			return slots, nil
		}
	}

	slots, _, err := s.computeAvailability(ctx, doctorID, locationKey, date, dateStr)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, doctorID.String(), dateStr, cacheKey, slots)
	}
	return slots, nil
}

// computeAvailability resolves the location and runs the slot resolver,
// returning the free slots and the resolved location.
func (s *Service) computeAvailability(ctx context.Context, doctorID uuid.UUID, locationKey string, date time.Time, dateStr string) ([]string, *doctor.Location, error) {
	d, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve doctor %s: %w", doctorID, err)
	}
	locations, err := s.doctors.Locations(ctx, doctorID)
	if err != nil {
		return nil, nil, err
	}
	loc, err := resolveLocation(locations, locationKey)
	if err != nil {
		return nil, nil, err
	}

	booked, err := s.repo.ListBookedSlots(ctx, doctorID, dateStr)
	if err != nil {
		return nil, nil, err
	}

	matchID := ""
	if loc.ID != uuid.Nil {
		matchID = loc.ID.String()
	}
	duration := doctor.SlotDuration(d, loc)
	slots := schedule.AvailableSlots(loc.Schedule, date, matchID, duration, booked)
	if slots == nil {
		slots = []string{}
	}
	return slots, loc, nil
}

// Submit books an appointment for a patient. The discount degrades to zero
// when the coupon cannot be applied; only the slot conflict aborts.
// On paymentMethod=gateway the returned string is the checkout init point.
func (s *Service) Submit(ctx context.Context, draft *Draft) (*Appointment, string, error) {
	if err := draft.Validate(); err != nil {
		return nil, "", err
	}

	date, _ := time.Parse("2006-01-02", draft.Date)
	if draft.Date < s.now().Format("2006-01-02") {
		return nil, "", fmt.Errorf("date %s is in the past: %w", draft.Date, ErrNotAvailable)
	}

	d, err := s.doctors.Get(ctx, draft.DoctorID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve doctor %s: %w", draft.DoctorID, err)
	}

	locations, err := s.doctors.Locations(ctx, draft.DoctorID)
	if err != nil {
		return nil, "", err
	}
	loc, err := resolveLocation(locations, draft.LocationKey)
	if err != nil {
		return nil, "", err
	}

	// The grid check ignores existing bookings on purpose: occupancy is the
	// insert guard's call, so a taken slot reports a conflict instead of
	// quietly falling out of the grid.
	grid := schedule.AvailableSlots(loc.Schedule, date, "", doctor.SlotDuration(d, loc), nil)
	if !contains(grid, draft.Time) {
		return nil, "", fmt.Errorf("time %s on %s: %w", draft.Time, draft.Date, ErrNotAvailable)
	}

	services, err := resolveServices(d, loc, draft.ServiceIDs)
	if err != nil {
		return nil, "", err
	}

	a := s.buildAppointment(d, loc, draft, services)

	var couponID *uuid.UUID
	if draft.CouponCode != "" && s.coupons != nil {
		v, err := s.coupons.Validate(ctx, draft.CouponCode, draft.DoctorID, a.ConsultationFee)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("code", draft.CouponCode).
				Msg("coupon validation failed, booking without discount")
		case v.Valid:
			q := coupon.ComputePrice(a.ConsultationFee, servicePrices(services), v.Coupon)
			a.DiscountAmount = q.Discount
			a.TotalPrice = q.Total
			code := v.Coupon.Code
			a.CouponCode = &code
			couponID = &v.Coupon.ID
		default:
			s.log.Info().Str("code", draft.CouponCode).Str("reason", v.Reason).
				Msg("coupon not applicable, booking without discount")
		}
	}

	err = s.repo.CreateIfSlotFree(ctx, a, couponID)
	var inv *coupon.InvalidError
	if errors.As(err, &inv) {
		// Lost the race for the last coupon use. Book without it.
		s.log.Info().Str("reason", inv.Reason).Msg("coupon redemption lost, retrying without discount")
		a.DiscountAmount = 0
		a.CouponCode = nil
		q := coupon.ComputePrice(a.ConsultationFee, servicePrices(services), nil)
		a.TotalPrice = q.Total
		err = s.repo.CreateIfSlotFree(ctx, a, nil)
	}
	if err != nil {
		return nil, "", err
	}

	s.invalidateCache(ctx, a)
	s.notifyAsync(a)

	initPoint := ""
	if a.PaymentMethod == PaymentGateway && s.gateway != nil {
		initPoint, err = s.gateway.CreatePreference(ctx, payments.Preference{
			Reference: a.ID.String(),
			Title:     fmt.Sprintf("Consulta con %s", d.Name),
			Amount:    a.TotalPrice,
		})
		if err != nil {
			// The booking stands; payment can be retried later.
			s.log.Error().Err(err).Str("appointment_id", a.ID.String()).
				Msg("payment preference creation failed")
			initPoint = ""
		}
	}

	return a, initPoint, nil
}

// SubmitWalkIn books an appointment on behalf of the doctor, off the public
// slot grid. The database guard still rejects double booking.
func (s *Service) SubmitWalkIn(ctx context.Context, draft *Draft) (*Appointment, error) {
	if draft.PaymentMethod == "" {
		draft.PaymentMethod = PaymentCash
	}
	draft.CouponCode = ""
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	d, err := s.doctors.Get(ctx, draft.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("resolve doctor %s: %w", draft.DoctorID, err)
	}
	locations, err := s.doctors.Locations(ctx, draft.DoctorID)
	if err != nil {
		return nil, err
	}
	loc, err := resolveLocation(locations, draft.LocationKey)
	if err != nil {
		return nil, err
	}
	services, err := resolveServices(d, loc, draft.ServiceIDs)
	if err != nil {
		return nil, err
	}

	a := s.buildAppointment(d, loc, draft, services)
	if err := s.repo.CreateIfSlotFree(ctx, a, nil); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, a)
	return a, nil
}

func (s *Service) buildAppointment(d *doctor.Doctor, loc *doctor.Location, draft *Draft, services []ServiceLine) *Appointment {
	fee := doctor.Fee(d, loc)
	q := coupon.ComputePrice(fee, servicePrices(services), nil)

	a := &Appointment{
		DoctorID:         draft.DoctorID,
		PatientID:        draft.PatientID,
		BookedByID:       draft.PatientID,
		Date:             draft.Date,
		Time:             draft.Time,
		ConsultationType: ConsultationInPerson,
		Office:           loc.Name,
		ConsultationFee:  fee,
		Services:         services,
		TotalPrice:       q.Total,
		PaymentMethod:    draft.PaymentMethod,
		PaymentStatus:    PaymentPending,
		Attendance:       AttendancePending,
	}
	if loc.Online {
		a.ConsultationType = ConsultationOnline
	}
	if loc.ID != uuid.Nil {
		id := loc.ID
		a.LocationID = &id
	}
	return a
}

func (s *Service) invalidateCache(ctx context.Context, a *Appointment) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, a.DoctorID.String(), a.Date)
	}
}

// notifyAsync fires the confirmation without blocking or failing the
// booking.
func (s *Service) notifyAsync(a *Appointment) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.SendAppointmentConfirmation(ctx, a); err != nil {
			s.log.Warn().Err(err).Str("appointment_id", a.ID.String()).
				Msg("confirmation notification failed")
		}
	}()
}

// Get returns an appointment by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByPatient returns a patient's appointments, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// ListByDoctor returns a doctor's appointments, optionally on one date.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, date, limit, offset)
}

// MarkAttendance updates the appointment lifecycle state. Cancelling frees
// the slot, so the availability cache is invalidated.
func (s *Service) MarkAttendance(ctx context.Context, id uuid.UUID, state Attendance) error {
	if !ValidAttendance(state) {
		return fmt.Errorf("unknown attendance state %q", state)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateAttendance(ctx, id, state); err != nil {
		return err
	}
	if state == AttendanceCancelled {
		s.invalidateCache(ctx, a)
	}
	return nil
}

// MarkPayment updates the payment state.
func (s *Service) MarkPayment(ctx context.Context, id uuid.UUID, state PaymentStatus) error {
	if !ValidPaymentStatus(state) {
		return fmt.Errorf("unknown payment status %q", state)
	}
	return s.repo.UpdatePayment(ctx, id, state)
}

func contains(slots []string, t string) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

func resolveServices(d *doctor.Doctor, loc *doctor.Location, ids []uuid.UUID) ([]ServiceLine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	available := doctor.ServicesOf(d, loc)
	byID := make(map[uuid.UUID]doctor.Service, len(available))
	for _, svc := range available {
		byID[svc.ID] = svc
	}
	lines := make([]ServiceLine, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown service %s", id)
		}
		lines = append(lines, ServiceLine{ID: svc.ID, Name: svc.Name, Price: svc.Price})
	}
	return lines, nil
}

func servicePrices(lines []ServiceLine) []float64 {
	if len(lines) == 0 {
		return nil
	}
	prices := make([]float64, len(lines))
	for i, l := range lines {
		prices[i] = l.Price
	}
	return prices
}
