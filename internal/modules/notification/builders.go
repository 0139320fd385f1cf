package notification

import (
	"fmt"
	"time"

	"studiobooking/internal/domain"
)

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

func bookingNotification(b *domain.Booking, typ domain.NotificationType, title, content string) domain.Notification {
	id := b.ID
	return domain.Notification{
		UserID:         b.UserID,
		BookingID:      &id,
		Type:           typ,
		Title:          title,
		Content:        content,
		DeliveryMethod: domain.DeliveryAll,
		SentAt:         time.Now().UTC(),
	}
}

// BookingReceived is sent when a booking has been admitted.
func BookingReceived(b *domain.Booking, studioName string) domain.Notification {
	return bookingNotification(b, domain.NotifConfirmation,
		"Booking received",
		fmt.Sprintf("Your booking of %s for %s to %s has been received. Total: %.2f.",
			studioName, b.StartTime.Format(timeLayout), b.EndTime.Format(timeLayout), b.TotalPrice))
}

func BookingConfirmed(b *domain.Booking, studioName string) domain.Notification {
	return bookingNotification(b, domain.NotifConfirmation,
		"Booking confirmed",
		fmt.Sprintf("Your booking of %s on %s has been confirmed.",
			studioName, b.StartTime.Format(timeLayout)))
}

func BookingCancelled(b *domain.Booking, studioName, reason string) domain.Notification {
	content := fmt.Sprintf("Your booking of %s on %s has been cancelled.",
		studioName, b.StartTime.Format(timeLayout))
	if reason != "" {
		content += " Reason: " + reason
	}
	return bookingNotification(b, domain.NotifCancellation, "Booking cancelled", content)
}

func BookingReminder(b *domain.Booking, studioName string) domain.Notification {
	return bookingNotification(b, domain.NotifReminder,
		"Upcoming booking",
		fmt.Sprintf("Reminder: your session at %s starts %s.",
			studioName, b.StartTime.Format(timeLayout)))
}

// PaymentApplied reports the booking's payment status after a payment
// completed or was refunded.
func PaymentApplied(b *domain.Booking, p *domain.Payment) domain.Notification {
	var title, content string
	switch p.Status {
	case domain.PaymentRecordRefunded:
		title = "Payment refunded"
		content = fmt.Sprintf("%.2f of your payment for booking #%d has been refunded.", p.RefundedAmount, b.ID)
	default:
		title = "Payment received"
		content = fmt.Sprintf("We received %.2f for booking #%d. Payment status: %s.", p.Amount, b.ID, b.PaymentStatus)
	}
	return bookingNotification(b, domain.NotifPayment, title, content)
}

func BookingRescheduled(b *domain.Booking, studioName string) domain.Notification {
	return bookingNotification(b, domain.NotifGeneral,
		"Booking rescheduled",
		fmt.Sprintf("Your booking of %s now runs %s to %s. Total: %.2f.",
			studioName, b.StartTime.Format(timeLayout), b.EndTime.Format(timeLayout), b.TotalPrice))
}
