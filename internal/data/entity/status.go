package entity

import (
	"fmt"
	"strings"
)

type ScheduleStatus string

const (
	SchedulePending   ScheduleStatus = "pending"
	ScheduleConfirmed ScheduleStatus = "confirmed"
	ScheduleArrived   ScheduleStatus = "arrived"
	ScheduleEnded     ScheduleStatus = "ended"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleCanceled  ScheduleStatus = "canceled"
	ScheduleRejected  ScheduleStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type ReviewStatus string

const (
	ReviewNotReviewed ReviewStatus = "not_reviewed"
	ReviewReviewed    ReviewStatus = "reviewed"
)

// Client apps and older rows use several spellings for the same state.
// Everything is folded to one canonical value here, once, at ingestion.
var scheduleAliases = map[string]ScheduleStatus{
	"pending":   SchedulePending,
	"waiting":   SchedulePending,
	"requested": SchedulePending,
	"confirmed": ScheduleConfirmed,
	"accepted":  ScheduleConfirmed,
	"approved":  ScheduleConfirmed,
	"arrived":   ScheduleArrived,
	"checkedin": ScheduleArrived,
	"ended":     ScheduleEnded,
	"finished":  ScheduleEnded,
	"completed": ScheduleCompleted,
	"complete":  ScheduleCompleted,
	"canceled":  ScheduleCanceled,
	"cancelled": ScheduleCanceled,
	"rejected":  ScheduleRejected,
	"declined":  ScheduleRejected,
	"refused":   ScheduleRejected,
}

var paymentAliases = map[string]PaymentStatus{
	"unpaid":  PaymentUnpaid,
	"pending": PaymentUnpaid,
	"notpaid": PaymentUnpaid,
	"paid":    PaymentPaid,
	"done":    PaymentPaid,
	"success": PaymentPaid,
}

var reviewAliases = map[string]ReviewStatus{
	"notreviewed": ReviewNotReviewed,
	"unreviewed":  ReviewNotReviewed,
	"none":        ReviewNotReviewed,
	"reviewed":    ReviewReviewed,
	"done":        ReviewReviewed,
}

func normalizeKey(s string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	if v, ok := scheduleAliases[normalizeKey(s)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown schedule status %q", s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	if v, ok := paymentAliases[normalizeKey(s)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

func ParseReviewStatus(s string) (ReviewStatus, error) {
	if v, ok := reviewAliases[normalizeKey(s)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown review status %q", s)
}

// scheduleEdges is the complete schedule state graph for both booking kinds.
var scheduleEdges = map[BookingKind]map[ScheduleStatus][]ScheduleStatus{
	KindTable: {
		SchedulePending:   {ScheduleConfirmed, ScheduleCanceled, ScheduleRejected},
		ScheduleConfirmed: {ScheduleArrived, ScheduleEnded, ScheduleCanceled},
		ScheduleArrived:   {ScheduleEnded},
	},
	KindPerformer: {
		SchedulePending:   {ScheduleConfirmed, ScheduleCanceled, ScheduleRejected},
		ScheduleConfirmed: {ScheduleCompleted, ScheduleCanceled},
	},
}

// CanTransition reports whether from -> to is an edge of the state graph for kind.
func CanTransition(kind BookingKind, from, to ScheduleStatus) bool {
	for _, next := range scheduleEdges[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s ScheduleStatus) IsTerminal() bool {
	switch s {
	case ScheduleEnded, ScheduleCompleted, ScheduleCanceled, ScheduleRejected:
		return true
	}
	return false
}

func (s ScheduleStatus) String() string {
	return string(s)
}

func (s PaymentStatus) String() string {
	return string(s)
}

func (s ReviewStatus) String() string {
	return string(s)
}
