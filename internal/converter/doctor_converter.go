package converter

import (
	"hospital-management-backend/internal/delivery/dto"
	"hospital-management-backend/internal/domain/entity"
)

// DoctorProfileToResponse converts a DoctorProfile entity to DoctorResponse DTO
func DoctorProfileToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	if profile == nil {
		return nil
	}

	response := &dto.DoctorResponse{
		ID:          profile.UserID,
		Email:       profile.User.Email,
		FirstName:   profile.User.FirstName,
		LastName:    profile.User.LastName,
		Department:  profile.Department,
		Fees:        profile.Fees,
		JoiningDate: profile.JoiningDate.Format("2006-01-02"),
		AvatarURL:   profile.AvatarURL,
		IsActive:    profile.User.IsActive,
	}

	if profile.ResignationDate != nil {
		response.ResignationDate = profile.ResignationDate.Format("2006-01-02")
	}

	if len(profile.Availability) > 0 {
		response.Availability = AvailabilityToResponses(profile.Availability)
	}

	return response
}

// DoctorProfilesToListResponse converts a slice of DoctorProfile entities to DoctorListResponse DTO
func DoctorProfilesToListResponse(profiles []entity.DoctorProfile) *dto.DoctorListResponse {
	responses := make([]dto.DoctorResponse, len(profiles))
	for i := range profiles {
		resp := DoctorProfileToResponse(&profiles[i])
		if resp != nil {
			responses[i] = *resp
		}
	}
	return &dto.DoctorListResponse{
		Doctors: responses,
		Total:   len(responses),
	}
}

// AvailabilityToResponses converts weekly schedule rows to AvailabilityEntryResponse DTOs
func AvailabilityToResponses(entries []entity.DoctorAvailability) []dto.AvailabilityEntryResponse {
	responses := make([]dto.AvailabilityEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = dto.AvailabilityEntryResponse{
			Day:      entry.Day,
			TimeSlot: entry.TimeSlot,
		}
	}
	return responses
}
