package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/delivery/http/middleware"
	"hospital-management-backend/internal/domain/slot"
	"hospital-management-backend/internal/service"
	"hospital-management-backend/internal/usecase"
	"hospital-management-backend/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// stubAppointmentUsecase returns a fixed result for every operation; handler
// tests only exercise the error-to-status mapping.
type stubAppointmentUsecase struct {
	err error
}

func (s *stubAppointmentUsecase) Book(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) ListAll(ctx context.Context) (*dto.AppointmentListResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) ListMine(ctx context.Context, patientID uuid.UUID) (*dto.AppointmentListResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) ListForDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.AppointmentListResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) ListTodayForDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.AppointmentListResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) UpdateStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) Reschedule(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	return nil, s.err
}

func (s *stubAppointmentUsecase) Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	return s.err
}

func authedRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New())
	return req.WithContext(ctx)
}

func validBookRequest() *dto.BookAppointmentRequest {
	return &dto.BookAppointmentRequest{
		DoctorID:        uuid.New(),
		Department:      "Cardiology",
		AppointmentDate: "2030-01-07",
		TimeSlot:        "10:00-10:30",
		FirstName:       "Ravi",
		LastName:        "Menon",
		Email:           "ravi@example.com",
		Phone:           "9876543210",
		DOB:             "1990-04-12",
		Gender:          "Male",
		Address:         "12 Lake Road",
		PaymentMethod:   "Offline",
	}
}

func TestBookErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"doctor unavailable", usecase.ErrDoctorUnavailable, http.StatusBadRequest},
		{"past date", usecase.ErrPastDate, http.StatusBadRequest},
		{"invalid signature", service.ErrInvalidSignature, http.StatusBadRequest},
		{"doctor department mismatch", usecase.ErrDoctorDepartmentMismatch, http.StatusNotFound},
		{"overlapping booking", usecase.ErrAlreadyBooked, http.StatusConflict},
		{"slot full", slot.ErrSlotFull, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAppointmentHandler(&stubAppointmentUsecase{err: tc.err}, validator.NewValidator())

			rec := httptest.NewRecorder()
			req := authedRequest(t, http.MethodPost, "/api/v1/patient/appointments", validBookRequest())
			h.Book(rec, req)

			if rec.Code != tc.want {
				t.Errorf("Book %v: status = %d, want %d", tc.err, rec.Code, tc.want)
			}
		})
	}
}

func TestRescheduleErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"doctor unavailable", usecase.ErrDoctorUnavailable, http.StatusBadRequest},
		{"overlapping booking", usecase.ErrAlreadyBooked, http.StatusConflict},
		{"slot full", slot.ErrSlotFull, http.StatusConflict},
		{"terminal appointment", usecase.ErrAppointmentTerminal, http.StatusConflict},
		{"not found", usecase.ErrAppointmentNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAppointmentHandler(&stubAppointmentUsecase{err: tc.err}, validator.NewValidator())

			rec := httptest.NewRecorder()
			body := &dto.RescheduleAppointmentRequest{AppointmentDate: "2030-01-14", TimeSlot: "10:00-10:30"}
			req := authedRequest(t, http.MethodPut, "/api/v1/admin/appointments/x/reschedule", body)
			req = mux.SetURLVars(req, map[string]string{"id": uuid.New().String()})
			h.Reschedule(rec, req)

			if rec.Code != tc.want {
				t.Errorf("Reschedule %v: status = %d, want %d", tc.err, rec.Code, tc.want)
			}
		})
	}
}
