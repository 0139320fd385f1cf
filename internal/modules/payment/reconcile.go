package payment

import (
	"fmt"
	"math"
	"sort"
	"time"

	"studiobooking/internal/domain"
)

// Mode selects how completed payments are compared with the booking total.
type Mode string

const (
	// ModeSum compares the running total of completed payments, so several
	// partial payments add up to completed.
	ModeSum Mode = "sum"
	// ModeSingle compares each payment alone: equal to the total completes,
	// less is partial, more leaves the status unchanged.
	ModeSingle Mode = "single"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSum:
		return ModeSum, nil
	case ModeSingle:
		return ModeSingle, nil
	}
	return "", fmt.Errorf("unknown reconcile mode %q", s)
}

type eventKind int

const (
	eventPaid eventKind = iota
	eventRefund
)

type event struct {
	at        time.Time
	paymentID int64
	kind      eventKind
	amount    float64
}

func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Derive computes a booking's payment status from its payments by replaying
// them in the order they happened. Pending and failed payments do not count.
// A refund always leaves the status refunded until a later payment arrives.
func Derive(total float64, payments []domain.Payment, mode Mode) domain.PaymentStatus {
	events := make([]event, 0, len(payments))
	for _, p := range payments {
		if p.Status != domain.PaymentRecordCompleted && p.Status != domain.PaymentRecordRefunded {
			continue
		}
		paidAt := p.CreatedAt
		if p.PaidAt != nil {
			paidAt = *p.PaidAt
		}
		events = append(events, event{at: paidAt, paymentID: p.ID, kind: eventPaid, amount: p.Amount})

		if p.Status == domain.PaymentRecordRefunded {
			refundedAt := paidAt
			if p.RefundedAt != nil {
				refundedAt = *p.RefundedAt
			}
			events = append(events, event{at: refundedAt, paymentID: p.ID, kind: eventRefund, amount: p.RefundedAmount})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		if a.paymentID != b.paymentID {
			return a.paymentID < b.paymentID
		}
		return a.kind < b.kind
	})

	status := domain.PaymentPending
	totalCents := cents(total)
	var paid int64

	for _, e := range events {
		switch e.kind {
		case eventRefund:
			paid -= cents(e.amount)
			status = domain.PaymentRefunded
		case eventPaid:
			if mode == ModeSingle {
				switch amt := cents(e.amount); {
				case amt == totalCents:
					status = domain.PaymentCompleted
				case amt < totalCents:
					status = domain.PaymentPartial
				}
				continue
			}
			paid += cents(e.amount)
			switch {
			case paid >= totalCents:
				status = domain.PaymentCompleted
			case paid > 0:
				status = domain.PaymentPartial
			}
		}
	}
	return status
}
