// internal/app/features/users/types.go
package users

import (
	"github.com/dalemusser/pairup/internal/app/system/paging"
	"github.com/dalemusser/pairup/internal/domain/models"
)

type listResponse struct {
	Users []models.User `json:"users"`
	Page  paging.Page   `json:"page"`
}

type createInput struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=student coordinator admin"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Headline string `json:"headline" validate:"max=200"`
	Batch    string `json:"batch" validate:"max=100"`
	TimeZone string `json:"time_zone" validate:"omitempty,timezone"`
}

type editInput struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=student coordinator admin"`
	Status   *string `json:"status" validate:"omitempty,oneof=active disabled"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Headline *string `json:"headline" validate:"omitempty,max=200"`
	Batch    *string `json:"batch" validate:"omitempty,max=100"`
	TimeZone *string `json:"time_zone" validate:"omitempty,timezone"`
}
