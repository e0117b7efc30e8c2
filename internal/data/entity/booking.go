package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type BookingKind string

const (
	KindTable     BookingKind = "table"
	KindPerformer BookingKind = "performer"
)

// ParseBookingKind accepts the legacy client spellings as well as the canonical ones.
func ParseBookingKind(s string) (BookingKind, error) {
	switch normalizeKey(s) {
	case "table", "tablebooking", "venue":
		return KindTable, nil
	case "performer", "performerbooking", "dj", "dancer":
		return KindPerformer, nil
	}
	return "", fmt.Errorf("unknown booking kind %q", s)
}

// A performer's day is split into SlotsPerDay fixed slots of SlotDuration each.
const (
	SlotsPerDay  = 12
	SlotDuration = 2 * time.Hour
)

// SlotWindow returns the clock range of slot i on date.
func SlotWindow(date time.Time, i int) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start := day.Add(time.Duration(i) * SlotDuration)
	return start, start.Add(SlotDuration)
}

// LineItems is what was reserved: tables for a venue, or slots for a performer.
type LineItems struct {
	TableRefs    []string `db:"table_refs"`
	SlotIndices  []int    `db:"slot_indices"`
	Location     *string  `db:"location"`
	ContactPhone *string  `db:"contact_phone"`
}

// Count is the quantity amounts are derived from.
func (li LineItems) Count(kind BookingKind) int {
	if kind == KindPerformer {
		return len(li.SlotIndices)
	}
	return len(li.TableRefs)
}

// Validate checks line items against the booking kind.
func (li LineItems) Validate(kind BookingKind) error {
	switch kind {
	case KindTable:
		if len(li.TableRefs) == 0 {
			return fmt.Errorf("at least one table is required")
		}
		if len(li.SlotIndices) > 0 {
			return fmt.Errorf("table bookings cannot carry time slots")
		}
		seen := make(map[string]bool, len(li.TableRefs))
		for _, ref := range li.TableRefs {
			ref = strings.TrimSpace(ref)
			if ref == "" {
				return fmt.Errorf("table reference cannot be empty")
			}
			if seen[ref] {
				return fmt.Errorf("table %s listed twice", ref)
			}
			seen[ref] = true
		}
	case KindPerformer:
		if len(li.SlotIndices) == 0 {
			return fmt.Errorf("at least one time slot is required")
		}
		if len(li.TableRefs) > 0 {
			return fmt.Errorf("performer bookings cannot carry tables")
		}
		seen := make(map[int]bool, len(li.SlotIndices))
		for _, idx := range li.SlotIndices {
			if idx < 0 || idx >= SlotsPerDay {
				return fmt.Errorf("slot %d outside 0..%d", idx, SlotsPerDay-1)
			}
			if seen[idx] {
				return fmt.Errorf("slot %d listed twice", idx)
			}
			seen[idx] = true
		}
		if li.Location == nil || strings.TrimSpace(*li.Location) == "" {
			return fmt.Errorf("location is required for performer bookings")
		}
		if li.ContactPhone == nil || strings.TrimSpace(*li.ContactPhone) == "" {
			return fmt.Errorf("contact phone is required for performer bookings")
		}
	default:
		return fmt.Errorf("unknown booking kind %q", kind)
	}
	return nil
}

type Booking struct {
	Base
	Kind        BookingKind `db:"kind"`
	BookerID    uuid.UUID   `db:"booker_id"`
	ReceiverID  uuid.UUID   `db:"receiver_id"`
	ServiceDate time.Time   `db:"service_date"`
	LineItems

	ScheduleStatus ScheduleStatus `db:"schedule_status"`
	PaymentStatus  PaymentStatus  `db:"payment_status"`
	ReviewStatus   ReviewStatus   `db:"review_status"`

	// QuotedPrice is the performer fee captured at creation; 0 for tables.
	QuotedPrice int64 `db:"quoted_price"`
	Deposit     int64 `db:"deposit"`
	Total       int64 `db:"total"`

	ConfirmationTokenHash  *string    `db:"confirmation_token_hash"`
	ConfirmationIssuedAt   *time.Time `db:"confirmation_issued_at"`
	ConfirmationRedeemedAt *time.Time `db:"confirmation_redeemed_at"`

	Note *string `db:"note"`
}

// Amounts re-derives the monetary fields from the immutable booking data.
func (b *Booking) Amounts() (Amounts, error) {
	return CalculateAmounts(b.Kind, b.LineItems.Count(b.Kind), b.QuotedPrice)
}

// StatusChange is one append-only audit row.
type StatusChange struct {
	BaseSimple
	BookingID uuid.UUID `db:"booking_id"`
	Dimension string    `db:"dimension"` // schedule | payment | review
	FromState string    `db:"from_state"`
	ToState   string    `db:"to_state"`
	ActorID   uuid.UUID `db:"actor_id"`
}

const (
	DimensionSchedule = "schedule"
	DimensionPayment  = "payment"
	DimensionReview   = "review"
)
