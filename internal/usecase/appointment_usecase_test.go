package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"testing"
	"time"

	"hospital-management-backend/config"
	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/domain/entity"
	"hospital-management-backend/internal/domain/slot"
	"hospital-management-backend/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils/tests"
)

// fakeTxPool satisfies gorm's connection and transaction contracts without a
// database. Repositories in these tests are in-memory doubles, so no SQL is
// ever executed through it.
type fakeTxPool struct{}

func (fakeTxPool) PrepareContext(context.Context, string) (*sql.Stmt, error) { return nil, nil }
func (fakeTxPool) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (fakeTxPool) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (fakeTxPool) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (fakeTxPool) Commit() error                                                    { return nil }
func (fakeTxPool) Rollback() error                                                  { return nil }

type fakeConnPool struct{ fakeTxPool }

func (fakeConnPool) BeginTx(context.Context, *sql.TxOptions) (gorm.ConnPool, error) {
	// Pointer: the commit and rollback paths reject non-nilable pool values.
	return &fakeTxPool{}, nil
}

type fakeAppointmentRepo struct {
	sameDay   []entity.Appointment
	byRequest *entity.Appointment
	byID      *entity.Appointment
	createErr error
	created   []*entity.Appointment
	updated   []*entity.Appointment
}

func (r *fakeAppointmentRepo) Create(db *gorm.DB, appointment *entity.Appointment) error {
	if r.createErr != nil {
		return r.createErr
	}
	appointment.ID = uuid.New()
	r.created = append(r.created, appointment)
	return nil
}

func (r *fakeAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	if r.byID != nil && r.byID.ID == id {
		return r.byID, nil
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) FindAll(db *gorm.DB) ([]entity.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) FindByDoctorAndDate(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]entity.Appointment, error) {
	return r.sameDay, nil
}

func (r *fakeAppointmentRepo) FindByPatientAndRequestID(db *gorm.DB, patientID uuid.UUID, requestID string) (*entity.Appointment, error) {
	return r.byRequest, nil
}

func (r *fakeAppointmentRepo) CountInBucket(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeSlot string) (int64, error) {
	return 0, nil
}

func (r *fakeAppointmentRepo) MaxTokenInBucket(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeSlot string) (int, error) {
	return 0, nil
}

func (r *fakeAppointmentRepo) UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) (int64, error) {
	return 0, nil
}

func (r *fakeAppointmentRepo) Update(db *gorm.DB, appointment *entity.Appointment) error {
	r.updated = append(r.updated, appointment)
	return nil
}

func (r *fakeAppointmentRepo) Delete(db *gorm.DB, id uuid.UUID) error { return nil }

type fakeDoctorRepo struct {
	profile *entity.DoctorProfile
}

func (r *fakeDoctorRepo) Create(db *gorm.DB, profile *entity.DoctorProfile) error { return nil }

func (r *fakeDoctorRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	return r.profile, nil
}

func (r *fakeDoctorRepo) FindByUserIDAndDepartment(db *gorm.DB, userID uuid.UUID, department string) (*entity.DoctorProfile, error) {
	if r.profile == nil || r.profile.UserID != userID || r.profile.Department != department {
		return nil, nil
	}
	return r.profile, nil
}

func (r *fakeDoctorRepo) FindAll(db *gorm.DB) ([]entity.DoctorProfile, error) { return nil, nil }

func (r *fakeDoctorRepo) Update(db *gorm.DB, profile *entity.DoctorProfile) error { return nil }

func (r *fakeDoctorRepo) Delete(db *gorm.DB, userID uuid.UUID) error { return nil }

type fakeAvailabilityRepo struct {
	entries []entity.DoctorAvailability
}

func (r *fakeAvailabilityRepo) ReplaceForDoctor(db *gorm.DB, doctorID uuid.UUID, entries []entity.DoctorAvailability) error {
	return nil
}

func (r *fakeAvailabilityRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorAvailability, error) {
	return r.entries, nil
}

type fakePaymentRepo struct {
	created []*entity.Payment
}

func (r *fakePaymentRepo) Create(db *gorm.DB, payment *entity.Payment) error {
	r.created = append(r.created, payment)
	return nil
}

func (r *fakePaymentRepo) FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) (*entity.Payment, error) {
	return nil, nil
}

func (r *fakePaymentRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Payment, error) {
	return nil, nil
}

func (r *fakePaymentRepo) UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.PaymentStatus) error {
	return nil
}

type fakeReserver struct {
	token        int
	reserveErr   error
	reserveCalls int
	releaseCalls int
	syncCalls    int
}

func (r *fakeReserver) Reserve(ctx context.Context, bucket service.Bucket) (int, error) {
	r.reserveCalls++
	if r.reserveErr != nil {
		return 0, r.reserveErr
	}
	return r.token, nil
}

func (r *fakeReserver) Release(ctx context.Context, bucket service.Bucket) error {
	r.releaseCalls++
	return nil
}

func (r *fakeReserver) SyncBucket(ctx context.Context, bucket service.Bucket) error {
	r.syncCalls++
	return nil
}

type fakeMailSender struct{}

func (fakeMailSender) SendStatusUpdate(to, patientName, status, doctorName, date, timeSlot string) {}
func (fakeMailSender) SendCancellation(to, patientName, doctorName, date, timeSlot string)         {}
func (fakeMailSender) SendReschedule(to, patientName, doctorName, date, timeSlot string)           {}
func (fakeMailSender) SendOTP(to, otp string)                                                      {}

type fakeAuditSink struct {
	entries int
}

func (s *fakeAuditSink) LogCreate(tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	s.entries++
	return nil
}

func (s *fakeAuditSink) LogUpdate(tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	s.entries++
	return nil
}

func (s *fakeAuditSink) LogDelete(tx *gorm.DB, userID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error {
	s.entries++
	return nil
}

const testGatewaySecret = "test-gateway-secret"

type bookingFixture struct {
	usecase      AppointmentUsecase
	appointments *fakeAppointmentRepo
	doctors      *fakeDoctorRepo
	payments     *fakePaymentRepo
	reserver     *fakeReserver
	audit        *fakeAuditSink
	patientID    uuid.UUID
}

// newBookingFixture wires the booking usecase against in-memory doubles. The
// doctor on file works Cardiology and is available Mondays 10:00-10:30;
// 2030-01-07 is a Monday.
func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		ConnPool: fakeConnPool{},
		Logger:   gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open dummy db: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	doctors := &fakeDoctorRepo{profile: &entity.DoctorProfile{
		UserID:     uuid.New(),
		Department: "Cardiology",
		Fees:       500,
		User:       entity.User{FirstName: "Asha", LastName: "Varma"},
		Availability: []entity.DoctorAvailability{
			{Day: "Monday", TimeSlot: "10:00-10:30"},
		},
	}}
	appointments := &fakeAppointmentRepo{}
	payments := &fakePaymentRepo{}
	reserver := &fakeReserver{token: 1}
	audit := &fakeAuditSink{}
	availability := &fakeAvailabilityRepo{entries: doctors.profile.Availability}

	verifier := service.NewPaymentVerifier(config.PaymentConfig{KeyID: "key", KeySecret: testGatewaySecret})

	u := NewAppointmentUsecase(db, log, appointments, doctors, availability, payments, reserver, verifier, fakeMailSender{}, audit)

	return &bookingFixture{
		usecase:      u,
		appointments: appointments,
		doctors:      doctors,
		payments:     payments,
		reserver:     reserver,
		audit:        audit,
		patientID:    uuid.New(),
	}
}

func (f *bookingFixture) baseRequest() *dto.BookAppointmentRequest {
	return &dto.BookAppointmentRequest{
		DoctorID:        f.doctors.profile.UserID,
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

func signGateway(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testGatewaySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBookRejectsBeforeAnyReservation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.BookAppointmentRequest)
		want   error
	}{
		{"malformed date", func(r *dto.BookAppointmentRequest) { r.AppointmentDate = "07-01-2030" }, ErrInvalidDateFormat},
		{"malformed dob", func(r *dto.BookAppointmentRequest) { r.DOB = "12/04/1990" }, ErrInvalidDateFormat},
		{"past date", func(r *dto.BookAppointmentRequest) { r.AppointmentDate = "2020-01-06" }, ErrPastDate},
		{"off-grid slot", func(r *dto.BookAppointmentRequest) { r.TimeSlot = "10:15-10:45" }, ErrInvalidTimeSlot},
		{"unknown department", func(r *dto.BookAppointmentRequest) { r.Department = "Wellness" }, ErrInvalidDepartment},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture(t)
			req := f.baseRequest()
			tc.mutate(req)

			_, err := f.usecase.Book(context.Background(), f.patientID, req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Book() error = %v, want %v", err, tc.want)
			}
			if f.reserver.reserveCalls != 0 {
				t.Errorf("reserve called %d times before validation passed", f.reserver.reserveCalls)
			}
			if len(f.appointments.created) != 0 {
				t.Errorf("appointment persisted despite rejected request")
			}
		})
	}
}

func TestBookDoctorDepartmentMismatch(t *testing.T) {
	f := newBookingFixture(t)

	req := f.baseRequest()
	req.Department = "Neurology"
	if _, err := f.usecase.Book(context.Background(), f.patientID, req); !errors.Is(err, ErrDoctorDepartmentMismatch) {
		t.Fatalf("Book() error = %v, want %v", err, ErrDoctorDepartmentMismatch)
	}

	req = f.baseRequest()
	req.DoctorID = uuid.New()
	if _, err := f.usecase.Book(context.Background(), f.patientID, req); !errors.Is(err, ErrDoctorDepartmentMismatch) {
		t.Fatalf("Book() error = %v, want %v", err, ErrDoctorDepartmentMismatch)
	}
}

func TestBookOutsideWeeklySchedule(t *testing.T) {
	f := newBookingFixture(t)

	// Tuesday: no entry for that weekday at all
	req := f.baseRequest()
	req.AppointmentDate = "2030-01-08"
	if _, err := f.usecase.Book(context.Background(), f.patientID, req); !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("Book() on unscheduled weekday: error = %v, want %v", err, ErrDoctorUnavailable)
	}

	// Right weekday, slot not in the doctor's schedule
	req = f.baseRequest()
	req.TimeSlot = "09:00-09:30"
	if _, err := f.usecase.Book(context.Background(), f.patientID, req); !errors.Is(err, ErrDoctorUnavailable) {
		t.Fatalf("Book() on unscheduled slot: error = %v, want %v", err, ErrDoctorUnavailable)
	}

	if f.reserver.reserveCalls != 0 {
		t.Errorf("reserve called for unavailable doctor")
	}
}

func TestBookSamePatientOverlapConflict(t *testing.T) {
	f := newBookingFixture(t)
	date := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

	f.appointments.sameDay = []entity.Appointment{{
		ID:              uuid.New(),
		DoctorID:        f.doctors.profile.UserID,
		PatientID:       f.patientID,
		AppointmentDate: date,
		TimeSlot:        "10:00-10:30",
		Status:          entity.AppointmentStatusPending,
	}}

	if _, err := f.usecase.Book(context.Background(), f.patientID, f.baseRequest()); !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("Book() error = %v, want %v", err, ErrAlreadyBooked)
	}
	if f.reserver.reserveCalls != 0 {
		t.Errorf("reserve called despite overlap conflict")
	}

	// A cancelled booking no longer blocks the bucket
	f.appointments.sameDay[0].Status = entity.AppointmentStatusCancelled
	if _, err := f.usecase.Book(context.Background(), f.patientID, f.baseRequest()); err != nil {
		t.Fatalf("Book() after cancellation: unexpected error %v", err)
	}

	// Another patient in the same bucket is not a conflict
	f2 := newBookingFixture(t)
	f2.appointments.sameDay = []entity.Appointment{{
		ID:              uuid.New(),
		DoctorID:        f2.doctors.profile.UserID,
		PatientID:       uuid.New(),
		AppointmentDate: date,
		TimeSlot:        "10:00-10:30",
		Status:          entity.AppointmentStatusPending,
	}}
	if _, err := f2.usecase.Book(context.Background(), f2.patientID, f2.baseRequest()); err != nil {
		t.Fatalf("Book() alongside another patient: unexpected error %v", err)
	}
}

func TestBookSlotFull(t *testing.T) {
	f := newBookingFixture(t)
	f.reserver.reserveErr = slot.ErrSlotFull

	_, err := f.usecase.Book(context.Background(), f.patientID, f.baseRequest())
	if !errors.Is(err, slot.ErrSlotFull) {
		t.Fatalf("Book() error = %v, want %v", err, slot.ErrSlotFull)
	}
	if len(f.appointments.created) != 0 {
		t.Errorf("appointment persisted for a full bucket")
	}
}

func TestBookOnlinePaymentVerification(t *testing.T) {
	f := newBookingFixture(t)

	req := f.baseRequest()
	req.PaymentMethod = "Online"
	req.GatewayOrderID = "order_1"
	req.GatewayPaymentID = "pay_1"
	req.GatewaySignature = "deadbeef"

	if _, err := f.usecase.Book(context.Background(), f.patientID, req); !errors.Is(err, service.ErrInvalidSignature) {
		t.Fatalf("Book() error = %v, want %v", err, service.ErrInvalidSignature)
	}
	if f.reserver.reserveCalls != 0 {
		t.Errorf("reserve called despite failed payment verification")
	}

	req.GatewaySignature = signGateway(req.GatewayOrderID, req.GatewayPaymentID)
	resp, err := f.usecase.Book(context.Background(), f.patientID, req)
	if err != nil {
		t.Fatalf("Book() with valid signature: unexpected error %v", err)
	}
	if resp.Status != string(entity.AppointmentStatusPaid) {
		t.Errorf("Status = %q, want %q", resp.Status, entity.AppointmentStatusPaid)
	}
	if len(f.payments.created) != 1 {
		t.Fatalf("payment rows created = %d, want 1", len(f.payments.created))
	}
	if f.payments.created[0].Status != entity.PaymentStatusCompleted {
		t.Errorf("payment status = %q, want %q", f.payments.created[0].Status, entity.PaymentStatusCompleted)
	}
	if f.payments.created[0].Amount != f.doctors.profile.Fees {
		t.Errorf("payment amount = %d, want %d", f.payments.created[0].Amount, f.doctors.profile.Fees)
	}
}

func TestBookReleasesReservationWhenInsertFails(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.createErr = errors.New("store offline")

	_, err := f.usecase.Book(context.Background(), f.patientID, f.baseRequest())
	if err == nil {
		t.Fatal("Book() succeeded despite failed insert")
	}
	if f.reserver.reserveCalls != 1 {
		t.Fatalf("reserve calls = %d, want 1", f.reserver.reserveCalls)
	}
	if f.reserver.releaseCalls != 1 {
		t.Errorf("release calls = %d, want 1; counter left inflated", f.reserver.releaseCalls)
	}
}

func TestBookReseedsBucketOnTokenCollision(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "idx_slot_token"}

	_, err := f.usecase.Book(context.Background(), f.patientID, f.baseRequest())
	if !errors.Is(err, slot.ErrSlotFull) {
		t.Fatalf("Book() error = %v, want %v", err, slot.ErrSlotFull)
	}
	if f.reserver.syncCalls != 1 {
		t.Errorf("bucket re-seeds = %d, want 1 after counter drift", f.reserver.syncCalls)
	}
	if f.reserver.releaseCalls != 0 {
		t.Errorf("release calls = %d, want 0; a blind decrement would compound the drift", f.reserver.releaseCalls)
	}
}

func TestBookIdempotentReplay(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.byRequest = &entity.Appointment{
		ID:              uuid.New(),
		DoctorID:        f.doctors.profile.UserID,
		PatientID:       f.patientID,
		AppointmentDate: time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "10:00-10:30",
		TokenNumber:     3,
		Status:          entity.AppointmentStatusPending,
	}

	req := f.baseRequest()
	req.RequestID = "req-42"
	resp, err := f.usecase.Book(context.Background(), f.patientID, req)
	if err != nil {
		t.Fatalf("Book() replay: unexpected error %v", err)
	}
	if resp.TokenNumber != 3 {
		t.Errorf("TokenNumber = %d, want the original 3", resp.TokenNumber)
	}
	if f.reserver.reserveCalls != 0 {
		t.Errorf("replay allocated a new token")
	}
}

func TestRescheduleSamePatientOverlapConflict(t *testing.T) {
	f := newBookingFixture(t)
	f.appointments.byID = &entity.Appointment{
		ID:              uuid.New(),
		DoctorID:        f.doctors.profile.UserID,
		PatientID:       f.patientID,
		AppointmentDate: time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "10:00-10:30",
		TokenNumber:     1,
		Status:          entity.AppointmentStatusPending,
	}

	// The patient already holds a second live booking on the target date
	f.appointments.sameDay = []entity.Appointment{{
		ID:              uuid.New(),
		DoctorID:        f.doctors.profile.UserID,
		PatientID:       f.patientID,
		AppointmentDate: time.Date(2030, 1, 14, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "10:00-10:30",
		Status:          entity.AppointmentStatusPending,
	}}

	req := &dto.RescheduleAppointmentRequest{AppointmentDate: "2030-01-14", TimeSlot: "10:00-10:30"}
	_, err := f.usecase.Reschedule(context.Background(), uuid.New(), f.appointments.byID.ID, req)
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("Reschedule() error = %v, want %v", err, ErrAlreadyBooked)
	}
	if f.reserver.reserveCalls != 0 {
		t.Errorf("reserve called despite overlap conflict")
	}
}

func TestRescheduleDoesNotConflictWithItself(t *testing.T) {
	f := newBookingFixture(t)
	f.reserver.token = 4
	f.appointments.byID = &entity.Appointment{
		ID:              uuid.New(),
		DoctorID:        f.doctors.profile.UserID,
		PatientID:       f.patientID,
		AppointmentDate: time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "10:00-10:30",
		TokenNumber:     1,
		Status:          entity.AppointmentStatusPending,
	}

	// Only the row being moved occupies the target date
	f.appointments.sameDay = []entity.Appointment{*f.appointments.byID}

	req := &dto.RescheduleAppointmentRequest{AppointmentDate: "2030-01-14", TimeSlot: "10:00-10:30"}
	resp, err := f.usecase.Reschedule(context.Background(), uuid.New(), f.appointments.byID.ID, req)
	if err != nil {
		t.Fatalf("Reschedule() unexpected error %v", err)
	}
	if resp.TokenNumber != 4 {
		t.Errorf("TokenNumber = %d, want the freshly allocated 4", resp.TokenNumber)
	}
	if resp.AppointmentDate != "2030-01-14" {
		t.Errorf("AppointmentDate = %q, want 2030-01-14", resp.AppointmentDate)
	}
	if f.reserver.releaseCalls != 1 {
		t.Errorf("release calls = %d, want 1 for the vacated bucket", f.reserver.releaseCalls)
	}
	if len(f.appointments.updated) != 1 {
		t.Errorf("rows updated = %d, want 1", len(f.appointments.updated))
	}
}

func TestBookHappyPath(t *testing.T) {
	f := newBookingFixture(t)
	f.reserver.token = 2

	resp, err := f.usecase.Book(context.Background(), f.patientID, f.baseRequest())
	if err != nil {
		t.Fatalf("Book() unexpected error %v", err)
	}

	if resp.TokenNumber != 2 {
		t.Errorf("TokenNumber = %d, want 2", resp.TokenNumber)
	}
	if resp.Status != string(entity.AppointmentStatusPending) {
		t.Errorf("Status = %q, want %q", resp.Status, entity.AppointmentStatusPending)
	}
	if resp.AppointmentDate != "2030-01-07" {
		t.Errorf("AppointmentDate = %q, want 2030-01-07", resp.AppointmentDate)
	}
	if len(f.appointments.created) != 1 {
		t.Fatalf("appointments created = %d, want 1", len(f.appointments.created))
	}
	if f.appointments.created[0].TokenNumber != 2 {
		t.Errorf("persisted token = %d, want 2", f.appointments.created[0].TokenNumber)
	}
	if len(f.payments.created) != 1 {
		t.Errorf("payment rows created = %d, want 1", len(f.payments.created))
	}
	if f.audit.entries != 1 {
		t.Errorf("audit entries = %d, want 1", f.audit.entries)
	}
}
