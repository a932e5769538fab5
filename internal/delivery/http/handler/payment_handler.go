package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/delivery/http/middleware"
	"hospital-management-backend/internal/service"
	"hospital-management-backend/internal/usecase"
	"hospital-management-backend/pkg/response"
	"hospital-management-backend/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type PaymentHandler struct {
	paymentUsecase usecase.PaymentUsecase
	validator      *validator.CustomValidator
}

func NewPaymentHandler(paymentUsecase usecase.PaymentUsecase, validator *validator.CustomValidator) *PaymentHandler {
	return &PaymentHandler{
		paymentUsecase: paymentUsecase,
		validator:      validator,
	}
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	var req dto.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	payment, err := h.paymentUsecase.Verify(r.Context(), patientID, &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPaymentNotFound):
			response.NotFound(w, "Payment not found")
		case errors.Is(err, usecase.ErrPaymentNotOwned):
			response.Forbidden(w, "Payment does not belong to you")
		case errors.Is(err, usecase.ErrPaymentAlreadyCompleted):
			response.Error(w, http.StatusConflict, "Payment already completed", nil)
		case errors.Is(err, service.ErrPaymentFieldsMissing),
			errors.Is(err, service.ErrInvalidSignature):
			response.Error(w, http.StatusBadRequest, "Payment verification failed", nil)
		default:
			response.InternalServerError(w, "Failed to verify payment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Payment verified successfully", payment)
}

func (h *PaymentHandler) GetByAppointmentID(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := uuid.Parse(mux.Vars(r)["appointmentId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	payment, err := h.paymentUsecase.GetByAppointmentID(r.Context(), appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPaymentNotFound):
			response.NotFound(w, "Payment not found")
		default:
			response.InternalServerError(w, "Failed to get payment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Payment retrieved successfully", payment)
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	patientID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not found in context")
		return
	}

	payments, err := h.paymentUsecase.ListMine(r.Context(), patientID)
	if err != nil {
		response.InternalServerError(w, "Failed to list payments")
		return
	}

	response.Success(w, http.StatusOK, "Payments retrieved successfully", payments)
}
