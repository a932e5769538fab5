package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hospital-management-backend/internal/converter"
	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/domain/entity"
	"hospital-management-backend/internal/domain/repository"
	"hospital-management-backend/internal/domain/slot"
	"hospital-management-backend/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrInvalidDepartment = errors.New("unknown department")
	ErrInvalidTimeSlot   = errors.New("time slot is not in the catalog")
	ErrInvalidWeekday    = errors.New("invalid weekday name")
	ErrDoctorHasPatients = errors.New("doctor has active appointments")
	ErrEmptyAvailability = errors.New("availability must contain at least one entry")
)

type DoctorUsecase interface {
	Create(ctx context.Context, actorID uuid.UUID, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	Update(ctx context.Context, actorID uuid.UUID, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	Delete(ctx context.Context, actorID uuid.UUID, doctorID uuid.UUID) error
	GetByID(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	List(ctx context.Context) (*dto.DoctorListResponse, error)
}

type doctorUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	userRepo         repository.UserRepository
	doctorRepo       repository.DoctorProfileRepository
	availabilityRepo repository.DoctorAvailabilityRepository
	appointmentRepo  repository.AppointmentRepository
	auditService     service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorRepo repository.DoctorProfileRepository,
	availabilityRepo repository.DoctorAvailabilityRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:               db,
		log:              log,
		userRepo:         userRepo,
		doctorRepo:       doctorRepo,
		availabilityRepo: availabilityRepo,
		appointmentRepo:  appointmentRepo,
		auditService:     auditService,
	}
}

// validateAvailability checks every (day, slot) entry against the weekday
// names and the slot catalog. Duplicate entries are allowed.
func validateAvailability(entries []dto.AvailabilityEntryRequest) error {
	if len(entries) == 0 {
		return ErrEmptyAvailability
	}
	for _, entry := range entries {
		if !slot.IsValidWeekday(entry.Day) {
			return fmt.Errorf("%w: %q", ErrInvalidWeekday, entry.Day)
		}
		if !slot.IsValid(entry.TimeSlot) {
			return fmt.Errorf("%w: %q", ErrInvalidTimeSlot, entry.TimeSlot)
		}
	}
	return nil
}

func (u *doctorUsecase) Create(ctx context.Context, actorID uuid.UUID, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	if !entity.IsValidDepartment(req.Department) {
		return nil, ErrInvalidDepartment
	}
	if err := validateAvailability(req.Availability); err != nil {
		return nil, err
	}

	joiningDate, err := time.Parse("2006-01-02", req.JoiningDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	var resignationDate *time.Time
	if req.ResignationDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ResignationDate)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		resignationDate = &parsed
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		Email:     req.Email,
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleID:    entity.RoleIDDoctor,
		IsActive:  true,
	}

	if err := u.userRepo.Create(tx, user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		if isForeignKeyError(err, "role") {
			return nil, ErrRoleNotFound
		}
		u.log.Warnf("Failed to create doctor user: %+v", err)
		return nil, err
	}

	profile := &entity.DoctorProfile{
		UserID:          user.ID,
		Department:      req.Department,
		Fees:            req.Fees,
		JoiningDate:     joiningDate,
		ResignationDate: resignationDate,
		AvatarURL:       req.AvatarURL,
		AvatarPublicID:  req.AvatarPublicID,
	}

	if err := u.doctorRepo.Create(tx, profile); err != nil {
		u.log.Warnf("Failed to create doctor profile: %+v", err)
		return nil, err
	}

	entries := make([]entity.DoctorAvailability, len(req.Availability))
	for i, entry := range req.Availability {
		entries[i] = entity.DoctorAvailability{
			DoctorID: user.ID,
			Day:      entry.Day,
			TimeSlot: entry.TimeSlot,
		}
	}

	if err := u.availabilityRepo.ReplaceForDoctor(tx, user.ID, entries); err != nil {
		u.log.Warnf("Failed to store doctor availability: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(tx, &actorID, entity.AuditActionDoctorCreate, "doctor_profile", user.ID.String(), map[string]interface{}{
		"email":      user.Email,
		"department": profile.Department,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	profile.User = *user
	profile.Availability = entries
	return converter.DoctorProfileToResponse(profile), nil
}

func (u *doctorUsecase) Update(ctx context.Context, actorID uuid.UUID, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	if req.Department != "" && !entity.IsValidDepartment(req.Department) {
		return nil, ErrInvalidDepartment
	}
	if req.Availability != nil {
		if err := validateAvailability(req.Availability); err != nil {
			return nil, err
		}
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.doctorRepo.FindByUserID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}

	oldValue := map[string]interface{}{
		"department": profile.Department,
		"fees":       profile.Fees,
	}

	if req.Department != "" {
		profile.Department = req.Department
	}
	if req.Fees != nil {
		profile.Fees = *req.Fees
	}

	if err := u.doctorRepo.Update(tx, profile); err != nil {
		u.log.Warnf("Failed to update doctor profile: %+v", err)
		return nil, err
	}

	user := &profile.User
	userChanged := false
	if req.Email != "" {
		user.Email = req.Email
		userChanged = true
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
		userChanged = true
	}
	if req.LastName != "" {
		user.LastName = req.LastName
		userChanged = true
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		userChanged = true
	}

	if userChanged {
		if err := u.userRepo.Update(tx, user); err != nil {
			if isDuplicateKeyError(err, "email") {
				return nil, ErrEmailAlreadyExists
			}
			u.log.Warnf("Failed to update doctor user: %+v", err)
			return nil, err
		}
	}

	if req.Availability != nil {
		entries := make([]entity.DoctorAvailability, len(req.Availability))
		for i, entry := range req.Availability {
			entries[i] = entity.DoctorAvailability{
				DoctorID: doctorID,
				Day:      entry.Day,
				TimeSlot: entry.TimeSlot,
			}
		}
		if err := u.availabilityRepo.ReplaceForDoctor(tx, doctorID, entries); err != nil {
			u.log.Warnf("Failed to replace doctor availability: %+v", err)
			return nil, err
		}
		profile.Availability = entries
	}

	if err := u.auditService.LogUpdate(tx, &actorID, entity.AuditActionDoctorUpdate, "doctor_profile", doctorID.String(), oldValue, map[string]interface{}{
		"department": profile.Department,
		"fees":       profile.Fees,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.DoctorProfileToResponse(profile), nil
}

func (u *doctorUsecase) Delete(ctx context.Context, actorID uuid.UUID, doctorID uuid.UUID) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.doctorRepo.FindByUserID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return err
	}
	if profile == nil {
		return ErrDoctorNotFound
	}

	// Refuse to delete a doctor with pending future appointments; those
	// must be cancelled or completed first.
	appointments, err := u.appointmentRepo.FindByDoctorID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to check doctor appointments: %+v", err)
		return err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := range appointments {
		if !appointments[i].IsTerminal() && !appointments[i].AppointmentDate.Before(today) {
			return ErrDoctorHasPatients
		}
	}

	if err := u.doctorRepo.Delete(tx, doctorID); err != nil {
		u.log.Warnf("Failed to delete doctor profile: %+v", err)
		return err
	}

	if err := u.userRepo.Delete(tx, doctorID); err != nil {
		u.log.Warnf("Failed to delete doctor user: %+v", err)
		return err
	}

	if err := u.auditService.LogDelete(tx, &actorID, entity.AuditActionDoctorDelete, "doctor_profile", doctorID.String(), map[string]interface{}{
		"email":      profile.User.Email,
		"department": profile.Department,
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}

func (u *doctorUsecase) GetByID(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	profile, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorProfileToResponse(profile), nil
}

func (u *doctorUsecase) List(ctx context.Context) (*dto.DoctorListResponse, error) {
	profiles, err := u.doctorRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list doctor profiles: %+v", err)
		return nil, err
	}

	return converter.DoctorProfilesToListResponse(profiles), nil
}
