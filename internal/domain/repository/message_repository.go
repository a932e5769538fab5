package repository

import (
	"hospital-management-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(db *gorm.DB, message *entity.Message) error
	FindAll(db *gorm.DB) ([]entity.Message, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Message, error)
	Delete(db *gorm.DB, id uuid.UUID) error
}
