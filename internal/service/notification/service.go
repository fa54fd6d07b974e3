package notification

import (
	"context"
	"fmt"

	"github.com/carelink/telehealth-api/internal/email"
	"github.com/carelink/telehealth-api/internal/model"
)

// Service sends booking lifecycle notifications. Failures are reported to the
// caller but never block the booking itself.
type Service interface {
	SendBookingConfirmation(ctx context.Context, patient *model.User, doctor *model.User, apt *model.Appointment) error
	SendCancellation(ctx context.Context, patient *model.User, apt *model.Appointment) error
}

type service struct {
	emailSvc email.Service
}

func NewService(emailSvc email.Service) Service {
	return &service{emailSvc: emailSvc}
}

func (s *service) SendBookingConfirmation(ctx context.Context, patient *model.User, doctor *model.User, apt *model.Appointment) error {
	subject := "Appointment confirmed"
	body := fmt.Sprintf(
		"Your consultation with Dr. %s %s is booked for %s - %s (UTC).\nReason: %s\nAmount: %s",
		doctor.FirstName, doctor.LastName,
		apt.StartTime.UTC().Format("Mon, 02 Jan 2006 15:04"),
		apt.EndTime.UTC().Format("15:04"),
		apt.Reason,
		apt.Amount,
	)

	if err := s.emailSvc.Send(ctx, patient.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send booking confirmation: %w", err)
	}
	return nil
}

func (s *service) SendCancellation(ctx context.Context, patient *model.User, apt *model.Appointment) error {
	subject := "Appointment cancelled"
	body := fmt.Sprintf(
		"Your consultation on %s has been cancelled.",
		apt.StartTime.UTC().Format("Mon, 02 Jan 2006 15:04"),
	)

	if err := s.emailSvc.Send(ctx, patient.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send cancellation notice: %w", err)
	}
	return nil
}
