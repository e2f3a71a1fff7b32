package form

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

const (
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Email is invalid"
	MsgPasswordRequired = "Password is required"
	MsgPasswordTooShort = "Password must be at least 6 characters"
)

// emailPattern matches "x@y.z" anywhere in the value. The parts exclude
// Unicode space separators, \v and BOM, not only ASCII whitespace.
var emailPattern = regexp.MustCompile(`[^\s\v\p{Z}\x{FEFF}]+@[^\s\v\p{Z}\x{FEFF}]+\.[^\s\v\p{Z}\x{FEFF}]+`)

// Errors holds one message per invalid field, "" when the field is valid
type Errors struct {
	Email    string
	Password string
}

// Empty reports whether no field has an error
func (e Errors) Empty() bool {
	return e.Email == "" && e.Password == ""
}

// fields mirrors the validated part of the draft
type fields struct {
	Email    string `validate:"required,loginemail"`
	Password string `validate:"required,min=6"`
}

var messages = map[string]map[string]string{
	"Email": {
		"required":   MsgEmailRequired,
		"loginemail": MsgEmailInvalid,
	},
	"Password": {
		"required": MsgPasswordRequired,
		"min":      MsgPasswordTooShort,
	},
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("loginemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return validate
}

// validateDraft checks every field and collects all violations. Each field
// reports its first failing rule only.
func validateDraft(validate *validator.Validate, d Draft) Errors {
	var errs Errors

	err := validate.Struct(fields{Email: d.Email, Password: d.Password})
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Email = err.Error()
		return errs
	}

	for _, fe := range verrs {
		msg := messages[fe.Field()][fe.Tag()]
		switch fe.Field() {
		case "Email":
			errs.Email = msg
		case "Password":
			errs.Password = msg
		}
	}

	return errs
}
