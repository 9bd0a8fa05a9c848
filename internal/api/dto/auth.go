package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreatePostRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}

var Validate = validator.New()

func init() {
	// В ошибках валидации показываем имена json-полей, а не Go-полей
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FieldErrors превращает ошибки валидатора в карту field -> messages,
// как её отдавал бы laravel-style API: {"email": ["..."], ...}
func FieldErrors(err error) map[string][]string {
	out := map[string][]string{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["message"] = []string{"invalid request"}
		return out
	}

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("The %s field is required.", field)
		case "email":
			msg = fmt.Sprintf("The %s must be a valid email address.", field)
		case "min":
			msg = fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
		case "max":
			msg = fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
		case "eqfield":
			msg = fmt.Sprintf("The %s confirmation does not match.", strings.ToLower(fe.Param()))
		default:
			msg = fmt.Sprintf("The %s field is invalid.", field)
		}
		out[field] = append(out[field], msg)
	}

	return out
}
