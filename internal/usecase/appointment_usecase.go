package usecase

import (
	"context"
	"errors"
	"time"

	"hospital-management-backend/internal/converter"
	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/domain/entity"
	"hospital-management-backend/internal/domain/repository"
	"hospital-management-backend/internal/domain/slot"
	"hospital-management-backend/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound      = errors.New("appointment not found")
	ErrDoctorDepartmentMismatch = errors.New("doctor not found in the given department")
	ErrDoctorUnavailable        = errors.New("doctor is not available at this time slot")
	ErrPastDate                 = errors.New("appointment date cannot be in the past")
	ErrAlreadyBooked            = errors.New("patient already has an appointment in an overlapping slot")
	ErrAppointmentTerminal      = errors.New("appointment is cancelled or completed")
	ErrInvalidStatus            = errors.New("unknown appointment status")
	ErrPatientNotFound          = errors.New("patient not found")
)

type AppointmentUsecase interface {
	Book(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	ListAll(ctx context.Context) (*dto.AppointmentListResponse, error)
	ListMine(ctx context.Context, patientID uuid.UUID) (*dto.AppointmentListResponse, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.AppointmentListResponse, error)
	ListTodayForDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.AppointmentListResponse, error)
	UpdateStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
	Reschedule(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
}

type appointmentUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	appointmentRepo  repository.AppointmentRepository
	doctorRepo       repository.DoctorProfileRepository
	availabilityRepo repository.DoctorAvailabilityRepository
	paymentRepo      repository.PaymentRepository
	reserver         service.SlotReserver
	verifier         *service.PaymentVerifier
	mailSender       service.MailSender
	auditService     service.AuditService
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorProfileRepository,
	availabilityRepo repository.DoctorAvailabilityRepository,
	paymentRepo repository.PaymentRepository,
	reserver service.SlotReserver,
	verifier *service.PaymentVerifier,
	mailSender service.MailSender,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:               db,
		log:              log,
		appointmentRepo:  appointmentRepo,
		doctorRepo:       doctorRepo,
		availabilityRepo: availabilityRepo,
		paymentRepo:      paymentRepo,
		reserver:         reserver,
		verifier:         verifier,
		mailSender:       mailSender,
		auditService:     auditService,
	}
}

// Book runs the full allocation pipeline: validation, schedule membership,
// overlap conflict check, optional payment verification, then the atomic
// capacity-and-token reservation followed by the transactional insert. The
// reservation is compensated with Release when the insert fails.
func (u *appointmentUsecase) Book(ctx context.Context, patientID uuid.UUID, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	date, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, ErrPastDate
	}

	if !slot.IsValid(req.TimeSlot) {
		return nil, ErrInvalidTimeSlot
	}
	if !entity.IsValidDepartment(req.Department) {
		return nil, ErrInvalidDepartment
	}

	// Idempotent retry: a request carrying an already-seen RequestID returns
	// the original booking instead of allocating a second token.
	if req.RequestID != "" {
		existing, err := u.appointmentRepo.FindByPatientAndRequestID(u.db.WithContext(ctx), patientID, req.RequestID)
		if err != nil {
			u.log.Warnf("Failed idempotency lookup: %+v", err)
			return nil, err
		}
		if existing != nil {
			return converter.AppointmentToResponse(existing), nil
		}
	}

	doctor, err := u.doctorRepo.FindByUserIDAndDepartment(u.db.WithContext(ctx), req.DoctorID, req.Department)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorDepartmentMismatch
	}

	schedule := make([]slot.AvailabilityEntry, len(doctor.Availability))
	for i, entry := range doctor.Availability {
		schedule[i] = slot.AvailabilityEntry{Day: entry.Day, TimeSlot: entry.TimeSlot}
	}
	if !slot.IsAvailable(schedule, date, req.TimeSlot) {
		return nil, ErrDoctorUnavailable
	}

	// Conflict check: the same patient may not hold another live booking
	// with this doctor in an overlapping interval on the same date.
	conflicts, err := slot.ConflictingLabels(req.TimeSlot)
	if err != nil {
		return nil, ErrInvalidTimeSlot
	}
	sameDay, err := u.appointmentRepo.FindByDoctorAndDate(u.db.WithContext(ctx), req.DoctorID, date)
	if err != nil {
		u.log.Warnf("Failed to load same-day appointments: %+v", err)
		return nil, err
	}
	for i := range sameDay {
		if sameDay[i].PatientID != patientID || sameDay[i].IsCancelled() {
			continue
		}
		for _, label := range conflicts {
			if sameDay[i].TimeSlot == label {
				return nil, ErrAlreadyBooked
			}
		}
	}

	status := entity.AppointmentStatusPending
	paymentStatus := entity.PaymentStatusPending
	if req.PaymentMethod == string(entity.PaymentModeOnline) {
		if err := u.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature); err != nil {
			return nil, err
		}
		status = entity.AppointmentStatusPaid
		paymentStatus = entity.PaymentStatusCompleted
	}

	bucket := service.Bucket{DoctorID: req.DoctorID, Date: date, TimeSlot: req.TimeSlot}
	token, err := u.reserver.Reserve(ctx, bucket)
	if err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       patientID,
		Department:      req.Department,
		AppointmentDate: date,
		TimeSlot:        req.TimeSlot,
		TokenNumber:     token,
		Status:          status,
		HasVisited:      req.HasVisited,
		RequestID:       req.RequestID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		DOB:             dob,
		Gender:          req.Gender,
		Address:         req.Address,
		DoctorFirstName: doctor.User.FirstName,
		DoctorLastName:  doctor.User.LastName,
	}

	if err := u.insertBooking(ctx, appointment, doctor, paymentStatus, req); err != nil {
		u.compensate(ctx, bucket, err)
		return nil, err
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) insertBooking(ctx context.Context, appointment *entity.Appointment, doctor *entity.DoctorProfile, paymentStatus entity.PaymentStatus, req *dto.BookAppointmentRequest) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		if isDuplicateKeyError(err, "idx_slot_token") {
			// The unique (doctor, date, slot, token) index is the backstop
			// behind the atomic counter; hitting it means the counters have
			// drifted and the slot must be treated as contended.
			u.log.Errorf("Token collision on insert, counters out of sync: %+v", err)
			return slot.ErrSlotFull
		}
		if isForeignKeyError(err, "patient") {
			return ErrPatientNotFound
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return err
	}

	payment := &entity.Payment{
		PatientID:        appointment.PatientID,
		DoctorID:         appointment.DoctorID,
		AppointmentID:    appointment.ID,
		Amount:           doctor.Fees,
		Status:           paymentStatus,
		PaymentMode:      entity.PaymentMode(req.PaymentMethod),
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
	}

	if err := u.paymentRepo.Create(tx, payment); err != nil {
		u.log.Warnf("Failed to create payment record: %+v", err)
		return err
	}

	if err := u.auditService.LogCreate(tx, &appointment.PatientID, entity.AuditActionAppointmentBook, "appointment", appointment.ID.String(), map[string]interface{}{
		"doctor_id":    appointment.DoctorID.String(),
		"date":         appointment.AppointmentDate.Format("2006-01-02"),
		"time_slot":    appointment.TimeSlot,
		"token_number": appointment.TokenNumber,
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}

// compensate undoes a reservation whose insert failed. A token collision on
// the unique index means the counters no longer match the store, so the
// bucket is re-seeded from committed rows; any other failure only needs the
// speculative unit handed back.
func (u *appointmentUsecase) compensate(ctx context.Context, bucket service.Bucket, insertErr error) {
	if errors.Is(insertErr, slot.ErrSlotFull) {
		if err := u.reserver.SyncBucket(ctx, bucket); err != nil {
			u.log.Errorf("Failed to re-seed drifted bucket %v: %+v", bucket, err)
		}
		return
	}
	if err := u.reserver.Release(ctx, bucket); err != nil {
		u.log.Errorf("Failed to compensate reservation for bucket %v: %+v", bucket, err)
	}
}

func (u *appointmentUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) ListAll(ctx context.Context) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}
	return converter.AppointmentsToListResponse(appointments), nil
}

func (u *appointmentUsecase) ListMine(ctx context.Context, patientID uuid.UUID) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByPatientID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to list patient appointments: %+v", err)
		return nil, err
	}
	return converter.AppointmentsToListResponse(appointments), nil
}

func (u *appointmentUsecase) ListForDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByDoctorID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to list doctor appointments: %+v", err)
		return nil, err
	}
	return converter.AppointmentsToListResponse(appointments), nil
}

func (u *appointmentUsecase) ListTodayForDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.AppointmentListResponse, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	appointments, err := u.appointmentRepo.FindByDoctorAndDate(u.db.WithContext(ctx), doctorID, today)
	if err != nil {
		u.log.Warnf("Failed to list today's appointments: %+v", err)
		return nil, err
	}
	return converter.AppointmentsToListResponse(appointments), nil
}

// UpdateStatus moves an appointment through its lifecycle. Cancelled and
// Completed are terminal; a cancellation frees one unit of bucket capacity
// but the token number stays burned.
func (u *appointmentUsecase) UpdateStatus(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	newStatus := entity.AppointmentStatus(req.Status)
	if !entity.IsValidAppointmentStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if appointment.IsTerminal() {
		return nil, ErrAppointmentTerminal
	}

	oldStatus := appointment.Status

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	// The guarded UPDATE re-checks the terminal condition inside the
	// transaction; zero rows means a concurrent writer got there first.
	rows, err := u.appointmentRepo.UpdateStatus(tx, id, newStatus)
	if err != nil {
		u.log.Warnf("Failed to update appointment status: %+v", err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAppointmentTerminal
	}

	if err := u.auditService.LogUpdate(tx, &actorID, entity.AuditActionAppointmentStatus, "appointment", id.String(),
		map[string]interface{}{"status": string(oldStatus)},
		map[string]interface{}{"status": string(newStatus)},
	); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	appointment.Status = newStatus

	if newStatus == entity.AppointmentStatusCancelled {
		bucket := service.Bucket{DoctorID: appointment.DoctorID, Date: appointment.AppointmentDate, TimeSlot: appointment.TimeSlot}
		if err := u.reserver.Release(ctx, bucket); err != nil {
			u.log.Errorf("Failed to release bucket after cancellation: %+v", err)
		}
		u.mailSender.SendCancellation(appointment.Email, appointment.PatientName(), appointment.DoctorName(),
			appointment.AppointmentDate.Format("2006-01-02"), appointment.TimeSlot)
	} else {
		u.mailSender.SendStatusUpdate(appointment.Email, appointment.PatientName(), string(newStatus),
			appointment.DoctorName(), appointment.AppointmentDate.Format("2006-01-02"), appointment.TimeSlot)
	}

	return converter.AppointmentToResponse(appointment), nil
}

// Reschedule moves a live appointment into a different (date, slot) bucket.
// The new bucket is reserved first; only after the row is committed is the
// old bucket's unit released. A fresh token number is allocated in the new
// bucket, the old one stays burned.
func (u *appointmentUsecase) Reschedule(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	date, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, ErrPastDate
	}
	if !slot.IsValid(req.TimeSlot) {
		return nil, ErrInvalidTimeSlot
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if appointment.IsTerminal() {
		return nil, ErrAppointmentTerminal
	}

	availability, err := u.availabilityRepo.FindByDoctorID(u.db.WithContext(ctx), appointment.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to load doctor availability: %+v", err)
		return nil, err
	}
	schedule := make([]slot.AvailabilityEntry, len(availability))
	for i, entry := range availability {
		schedule[i] = slot.AvailabilityEntry{Day: entry.Day, TimeSlot: entry.TimeSlot}
	}
	if !slot.IsAvailable(schedule, date, req.TimeSlot) {
		return nil, ErrDoctorUnavailable
	}

	// The same overlap rule as Book; the row being moved does not conflict
	// with itself.
	conflicts, err := slot.ConflictingLabels(req.TimeSlot)
	if err != nil {
		return nil, ErrInvalidTimeSlot
	}
	sameDay, err := u.appointmentRepo.FindByDoctorAndDate(u.db.WithContext(ctx), appointment.DoctorID, date)
	if err != nil {
		u.log.Warnf("Failed to load same-day appointments: %+v", err)
		return nil, err
	}
	for i := range sameDay {
		if sameDay[i].ID == appointment.ID || sameDay[i].PatientID != appointment.PatientID || sameDay[i].IsCancelled() {
			continue
		}
		for _, label := range conflicts {
			if sameDay[i].TimeSlot == label {
				return nil, ErrAlreadyBooked
			}
		}
	}

	oldBucket := service.Bucket{DoctorID: appointment.DoctorID, Date: appointment.AppointmentDate, TimeSlot: appointment.TimeSlot}
	newBucket := service.Bucket{DoctorID: appointment.DoctorID, Date: date, TimeSlot: req.TimeSlot}

	token, err := u.reserver.Reserve(ctx, newBucket)
	if err != nil {
		return nil, err
	}

	oldValue := map[string]interface{}{
		"date":         appointment.AppointmentDate.Format("2006-01-02"),
		"time_slot":    appointment.TimeSlot,
		"token_number": appointment.TokenNumber,
	}

	appointment.AppointmentDate = date
	appointment.TimeSlot = req.TimeSlot
	appointment.TokenNumber = token

	if err := u.commitReschedule(ctx, appointment, actorID, oldValue); err != nil {
		u.compensate(ctx, newBucket, err)
		return nil, err
	}

	if err := u.reserver.Release(ctx, oldBucket); err != nil {
		u.log.Errorf("Failed to release old bucket after reschedule: %+v", err)
	}

	u.mailSender.SendReschedule(appointment.Email, appointment.PatientName(), appointment.DoctorName(),
		appointment.AppointmentDate.Format("2006-01-02"), appointment.TimeSlot)

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) commitReschedule(ctx context.Context, appointment *entity.Appointment, actorID uuid.UUID, oldValue map[string]interface{}) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		if isDuplicateKeyError(err, "idx_slot_token") {
			u.log.Errorf("Token collision on reschedule, counters out of sync: %+v", err)
			return slot.ErrSlotFull
		}
		u.log.Warnf("Failed to update appointment: %+v", err)
		return err
	}

	if err := u.auditService.LogUpdate(tx, &actorID, entity.AuditActionAppointmentReschedule, "appointment", appointment.ID.String(), oldValue, map[string]interface{}{
		"date":         appointment.AppointmentDate.Format("2006-01-02"),
		"time_slot":    appointment.TimeSlot,
		"token_number": appointment.TokenNumber,
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}

// Delete removes the appointment record entirely. A live booking frees its
// bucket unit on the way out.
func (u *appointmentUsecase) Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.appointmentRepo.Delete(tx, id); err != nil {
		u.log.Warnf("Failed to delete appointment: %+v", err)
		return err
	}

	if err := u.auditService.LogDelete(tx, &actorID, entity.AuditActionAppointmentDelete, "appointment", id.String(), map[string]interface{}{
		"doctor_id":    appointment.DoctorID.String(),
		"date":         appointment.AppointmentDate.Format("2006-01-02"),
		"time_slot":    appointment.TimeSlot,
		"token_number": appointment.TokenNumber,
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	if !appointment.IsTerminal() {
		bucket := service.Bucket{DoctorID: appointment.DoctorID, Date: appointment.AppointmentDate, TimeSlot: appointment.TimeSlot}
		if err := u.reserver.Release(ctx, bucket); err != nil {
			u.log.Errorf("Failed to release bucket after delete: %+v", err)
		}
	}

	return nil
}
