package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	digitRegex   = regexp.MustCompile(`\d`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*'(),.?":{}|<>+\-=~]`)
)

// ValidationErrors maps a JSON field name to its human-readable messages.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msgs := range v {
		parts = append(parts, field+": "+strings.Join(msgs, ", "))
	}
	return strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with English messages keyed by JSON field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New creates a Validator with the custom "password" rule registered.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")

	if err := entranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, err
	}

	if err := validate.RegisterValidation("password", validatePassword); err != nil {
		return nil, err
	}

	if err := validate.RegisterTranslation(
		"password",
		translator,
		func(ut ut.Translator) error {
			return ut.Add(
				"password",
				"{0} must be at least 8 characters and include a number and a special character, without spaces",
				true,
			)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("password", fe.Field())
			return msg
		},
	); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, translator: translator}, nil
}

// Struct validates s and returns ValidationErrors when any rule fails.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := ValidationErrors{}
	for _, fe := range fieldErrs {
		out[fe.Field()] = append(out[fe.Field()], fe.Translate(v.translator))
	}

	return out
}

// validatePassword enforces the registration password policy.
func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}
	if !digitRegex.MatchString(password) {
		return false
	}
	if !specialRegex.MatchString(password) {
		return false
	}

	return !strings.ContainsFunc(password, unicode.IsSpace)
}
