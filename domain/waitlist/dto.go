package waitlist

import (
	"github.com/akeren/waitlist-service/internal/models"
	"github.com/akeren/waitlist-service/pkg/constants"
)

// RegisterRequest is the POST /waitlist body. The validate tag is the single
// rule applied to the email; it is checked by the service, not by gin.
type RegisterRequest struct {
	Email string `json:"email" validate:"required,email" message:"Please enter a valid email address"`
}

type WaitlistEntryResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type RegisterResult struct {
	Message string
	Entry   WaitlistEntryResponse
}

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}
	return WaitlistEntryResponse{
		ID:        entry.ID,
		Email:     entry.Email,
		CreatedAt: entry.CreatedAt.UTC().Format(constants.RFC3339DateTimeFormat),
	}
}
