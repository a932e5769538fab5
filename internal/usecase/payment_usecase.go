package usecase

import (
	"context"
	"errors"

	"hospital-management-backend/internal/converter"
	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/domain/entity"
	"hospital-management-backend/internal/domain/repository"
	"hospital-management-backend/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")
	ErrPaymentNotOwned         = errors.New("payment does not belong to this patient")
)

type PaymentUsecase interface {
	Verify(ctx context.Context, patientID uuid.UUID, req *dto.VerifyPaymentRequest) (*dto.PaymentResponse, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*dto.PaymentResponse, error)
	ListMine(ctx context.Context, patientID uuid.UUID) ([]dto.PaymentResponse, error)
}

type paymentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	paymentRepo     repository.PaymentRepository
	appointmentRepo repository.AppointmentRepository
	verifier        *service.PaymentVerifier
	auditService    service.AuditService
}

func NewPaymentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	paymentRepo repository.PaymentRepository,
	appointmentRepo repository.AppointmentRepository,
	verifier *service.PaymentVerifier,
	auditService service.AuditService,
) PaymentUsecase {
	return &paymentUsecase{
		db:              db,
		log:             log,
		paymentRepo:     paymentRepo,
		appointmentRepo: appointmentRepo,
		verifier:        verifier,
		auditService:    auditService,
	}
}

// Verify settles a pending payment against a gateway callback. On success
// the payment flips to Completed and, if the appointment is still Pending,
// the appointment moves to Paid.
func (u *paymentUsecase) Verify(ctx context.Context, patientID uuid.UUID, req *dto.VerifyPaymentRequest) (*dto.PaymentResponse, error) {
	payment, err := u.paymentRepo.FindByAppointmentID(u.db.WithContext(ctx), req.AppointmentID)
	if err != nil {
		u.log.Warnf("Failed to find payment: %+v", err)
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.PatientID != patientID {
		return nil, ErrPaymentNotOwned
	}
	if payment.Status == entity.PaymentStatusCompleted {
		return nil, ErrPaymentAlreadyCompleted
	}

	if err := u.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature); err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	payment.Status = entity.PaymentStatusCompleted
	payment.PaymentMode = entity.PaymentModeOnline
	payment.GatewayOrderID = req.GatewayOrderID
	payment.GatewayPaymentID = req.GatewayPaymentID

	if err := u.paymentRepo.UpdateStatus(tx, payment.ID, entity.PaymentStatusCompleted); err != nil {
		u.log.Warnf("Failed to update payment status: %+v", err)
		return nil, err
	}

	appointment, err := u.appointmentRepo.FindByID(tx, req.AppointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment for payment: %+v", err)
		return nil, err
	}
	if appointment != nil && appointment.Status == entity.AppointmentStatusPending {
		if _, err := u.appointmentRepo.UpdateStatus(tx, appointment.ID, entity.AppointmentStatusPaid); err != nil {
			u.log.Warnf("Failed to mark appointment as paid: %+v", err)
			return nil, err
		}
	}

	if err := u.auditService.LogUpdate(tx, &patientID, entity.AuditActionPaymentVerify, "payment", payment.ID.String(),
		map[string]interface{}{"status": string(entity.PaymentStatusPending)},
		map[string]interface{}{"status": string(entity.PaymentStatusCompleted), "gateway_payment_id": req.GatewayPaymentID},
	); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.PaymentToResponse(payment), nil
}

func (u *paymentUsecase) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*dto.PaymentResponse, error) {
	payment, err := u.paymentRepo.FindByAppointmentID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find payment: %+v", err)
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	return converter.PaymentToResponse(payment), nil
}

func (u *paymentUsecase) ListMine(ctx context.Context, patientID uuid.UUID) ([]dto.PaymentResponse, error) {
	payments, err := u.paymentRepo.FindByPatientID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to list payments: %+v", err)
		return nil, err
	}

	responses := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		resp := converter.PaymentToResponse(&payments[i])
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses, nil
}
