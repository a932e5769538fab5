package converter

import (
	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/domain/entity"
)

// PaymentToResponse converts a Payment entity to PaymentResponse DTO
func PaymentToResponse(payment *entity.Payment) *dto.PaymentResponse {
	if payment == nil {
		return nil
	}

	return &dto.PaymentResponse{
		ID:               payment.ID,
		PatientID:        payment.PatientID,
		DoctorID:         payment.DoctorID,
		AppointmentID:    payment.AppointmentID,
		Amount:           payment.Amount,
		Status:           string(payment.Status),
		PaymentMode:      string(payment.PaymentMode),
		GatewayOrderID:   payment.GatewayOrderID,
		GatewayPaymentID: payment.GatewayPaymentID,
		CreatedAt:        payment.CreatedAt,
	}
}
