package finance

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/sumaargentina/turnos-api/internal/domain/booking"
)

// UnassignedOffice buckets appointments and expenses that carry no office
// label, a state legacy records can be in.
const UnassignedOffice = "Sin consultorio"

// OnlineOffice buckets every online consultation regardless of any stored
// label.
const OnlineOffice = "Consultas Online"

func officeOf(a *booking.Appointment) string {
	if a.ConsultationType == booking.ConsultationOnline {
		return OnlineOffice
	}
	if a.Office != "" {
		return a.Office
	}
	return UnassignedOffice
}

// Aggregate folds appointments and expenses into per-office totals. Revenue
// counts only paid appointments; cancelled appointments are ignored
// entirely. Rows come back sorted by revenue, highest first. Empty inputs
// produce an empty slice.
func Aggregate(appointments []*booking.Appointment, expenses []*Expense) []OfficeStats {
	type bucket struct {
		stats    OfficeStats
		patients map[uuid.UUID]struct{}
	}
	buckets := make(map[string]*bucket)
	get := func(office string) *bucket {
		b, ok := buckets[office]
		if !ok {
			b = &bucket{stats: OfficeStats{Office: office}, patients: make(map[uuid.UUID]struct{})}
			buckets[office] = b
		}
		return b
	}

	for _, a := range appointments {
		if a.Attendance == booking.AttendanceCancelled {
			continue
		}
		b := get(officeOf(a))
		b.stats.AppointmentCount++
		b.patients[a.PatientID] = struct{}{}
		if a.PaymentStatus == booking.PaymentPaid {
			b.stats.PaidCount++
			b.stats.TotalRevenue += a.TotalPrice
		}
	}

	for _, e := range expenses {
		office := UnassignedOffice
		if e.Office != nil && *e.Office != "" {
			office = *e.Office
		}
		get(office).stats.TotalExpenses += e.Amount
	}

	out := make([]OfficeStats, 0, len(buckets))
	for _, b := range buckets {
		b.stats.UniquePatientCount = len(b.patients)
		b.stats.TotalRevenue = round2(b.stats.TotalRevenue)
		b.stats.TotalExpenses = round2(b.stats.TotalExpenses)
		b.stats.NetProfit = round2(b.stats.TotalRevenue - b.stats.TotalExpenses)
		out = append(out, b.stats)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRevenue != out[j].TotalRevenue {
			return out[i].TotalRevenue > out[j].TotalRevenue
		}
		return out[i].Office < out[j].Office
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
