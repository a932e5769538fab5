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

var ErrMessageNotFound = errors.New("message not found")

type MessageUsecase interface {
	Send(ctx context.Context, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	ListAll(ctx context.Context) (*dto.MessageListResponse, error)
	Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
}

type messageUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	messageRepo  repository.MessageRepository
	auditService service.AuditService
}

func NewMessageUsecase(db *gorm.DB, log *logrus.Logger, messageRepo repository.MessageRepository, auditService service.AuditService) MessageUsecase {
	return &messageUsecase{
		db:           db,
		log:          log,
		messageRepo:  messageRepo,
		auditService: auditService,
	}
}

// Send stores a contact enquiry. The sender needs no account, so no audit
// row is written here.
func (u *messageUsecase) Send(ctx context.Context, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	message := &entity.Message{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Body:      req.Message,
	}

	if err := u.messageRepo.Create(u.db.WithContext(ctx), message); err != nil {
		u.log.Warnf("Failed to create message: %+v", err)
		return nil, err
	}

	return converter.MessageToResponse(message), nil
}

func (u *messageUsecase) ListAll(ctx context.Context) (*dto.MessageListResponse, error) {
	messages, err := u.messageRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list messages: %+v", err)
		return nil, err
	}

	return converter.MessagesToListResponse(messages), nil
}

func (u *messageUsecase) Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	message, err := u.messageRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find message: %+v", err)
		return err
	}
	if message == nil {
		return ErrMessageNotFound
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.messageRepo.Delete(tx, id); err != nil {
		u.log.Warnf("Failed to delete message: %+v", err)
		return err
	}

	if err := u.auditService.LogDelete(tx, &actorID, entity.AuditActionMessageDelete, "message", id.String(), map[string]interface{}{
		"email": message.Email,
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}
