package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils/tests"
)

type fakeMessageRepo struct {
	byID      *entity.Message
	createErr error
	stored    []*entity.Message
	deleted   []uuid.UUID
}

func (r *fakeMessageRepo) Create(db *gorm.DB, message *entity.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	message.ID = uuid.New()
	r.stored = append(r.stored, message)
	return nil
}

func (r *fakeMessageRepo) FindAll(db *gorm.DB) ([]entity.Message, error) {
	messages := make([]entity.Message, len(r.stored))
	for i := range r.stored {
		messages[i] = *r.stored[i]
	}
	return messages, nil
}

func (r *fakeMessageRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Message, error) {
	if r.byID != nil && r.byID.ID == id {
		return r.byID, nil
	}
	return nil, nil
}

func (r *fakeMessageRepo) Delete(db *gorm.DB, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func newMessageFixture(t *testing.T) (MessageUsecase, *fakeMessageRepo, *fakeAuditSink) {
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

	messages := &fakeMessageRepo{}
	audit := &fakeAuditSink{}
	return NewMessageUsecase(db, log, messages, audit), messages, audit
}

func TestSendMessage(t *testing.T) {
	u, messages, audit := newMessageFixture(t)

	resp, err := u.Send(context.Background(), &dto.SendMessageRequest{
		FirstName: "Meera",
		LastName:  "Pillai",
		Email:     "meera@example.com",
		Phone:     "9876501234",
		Message:   "Do you offer weekend consultations?",
	})
	if err != nil {
		t.Fatalf("Send() unexpected error %v", err)
	}
	if len(messages.stored) != 1 {
		t.Fatalf("messages stored = %d, want 1", len(messages.stored))
	}
	if resp.Message != "Do you offer weekend consultations?" {
		t.Errorf("Message = %q, want the original body", resp.Message)
	}
	if audit.entries != 0 {
		t.Errorf("audit entries = %d, want 0 for an anonymous send", audit.entries)
	}
}

func TestDeleteMessageNotFound(t *testing.T) {
	u, messages, audit := newMessageFixture(t)

	err := u.Delete(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("Delete() error = %v, want %v", err, ErrMessageNotFound)
	}
	if len(messages.deleted) != 0 {
		t.Errorf("deletions = %d, want 0", len(messages.deleted))
	}
	if audit.entries != 0 {
		t.Errorf("audit entries = %d, want 0", audit.entries)
	}
}

func TestDeleteMessageAudits(t *testing.T) {
	u, messages, audit := newMessageFixture(t)
	messages.byID = &entity.Message{ID: uuid.New(), Email: "meera@example.com", Body: "hello"}

	if err := u.Delete(context.Background(), uuid.New(), messages.byID.ID); err != nil {
		t.Fatalf("Delete() unexpected error %v", err)
	}
	if len(messages.deleted) != 1 {
		t.Fatalf("deletions = %d, want 1", len(messages.deleted))
	}
	if audit.entries != 1 {
		t.Errorf("audit entries = %d, want 1", audit.entries)
	}
}
