package handlers

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/stsapko/contacts-api/internal/models"
)

const dateLayout = "2006-01-02"

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(5, 72)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type RequestResetRequest struct {
	Email string `json:"email"`
}

func (r RequestResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(5, 72)),
	)
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type ContactCreateRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	BDay      string  `json:"b_day"`
	Note      *string `json:"note"`
}

func (r ContactCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.Required, validation.Length(5, 20)),
		validation.Field(&r.BDay, validation.Required, validation.Date(dateLayout).Max(time.Now().UTC())),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

type ContactUpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	BDay      *string `json:"b_day"`
	Note      *string `json:"note"`
}

func (r ContactUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(1, 50)),
		validation.Field(&r.LastName, validation.Length(1, 50)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Phone, validation.Length(5, 20)),
		validation.Field(&r.BDay, validation.Date(dateLayout).Max(time.Now().UTC())),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

type ContactResponse struct {
	ID        uint    `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	BDay      string  `json:"b_day"`
	Note      *string `json:"note"`
}

func newContactResponse(c *models.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		BDay:      c.BDay.Format(dateLayout),
		Note:      c.Note,
	}
}

func newContactResponses(contacts []models.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, newContactResponse(&contacts[i]))
	}
	return out
}
