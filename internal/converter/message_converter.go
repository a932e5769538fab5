package converter

import (
	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/domain/entity"
)

func MessageToResponse(message *entity.Message) *dto.MessageResponse {
	if message == nil {
		return nil
	}

	return &dto.MessageResponse{
		ID:        message.ID,
		FirstName: message.FirstName,
		LastName:  message.LastName,
		Email:     message.Email,
		Phone:     message.Phone,
		Message:   message.Body,
		CreatedAt: message.CreatedAt,
	}
}

func MessagesToListResponse(messages []entity.Message) *dto.MessageListResponse {
	responses := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		resp := MessageToResponse(&messages[i])
		if resp != nil {
			responses[i] = *resp
		}
	}
	return &dto.MessageListResponse{
		Messages: responses,
		Total:    len(responses),
	}
}
