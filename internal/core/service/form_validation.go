package service

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

const dateLayout = "2006-01-02"

// stepForm carries the rules for fields collected by the onboarding steps.
// Every field is optional; present fields must be well formed.
type stepForm struct {
	FirstName   string `validate:"omitempty,max=80"`
	MiddleName  string `validate:"omitempty,max=80"`
	LastName    string `validate:"omitempty,max=80"`
	DateOfBirth string `validate:"omitempty,datetime=2006-01-02"`
	Country     string `validate:"omitempty,iso3166_1_alpha2"`
	NationalID  string `validate:"omitempty,alphanum,max=32"`
	DialCode    string `validate:"omitempty,startswith=+,max=5"`
	PhoneNumber string `validate:"omitempty,numeric,max=15"`
	Bio         string `validate:"omitempty,max=500"`
}

var stepFieldNames = map[string]string{
	"FirstName":   "firstName",
	"MiddleName":  "middleName",
	"LastName":    "lastName",
	"DateOfBirth": "dateOfBirth",
	"Country":     "country",
	"NationalID":  "nationalId",
	"DialCode":    "dialCode",
	"PhoneNumber": "phoneNumber",
	"Bio":         "bio",
}

type formValidator struct {
	v   *validator.Validate
	now func() time.Time
}

func newFormValidator(now func() time.Time) *formValidator {
	return &formValidator{v: validator.New(), now: now}
}

// Validate checks a step patch. merged is the form as it will look after the
// patch is applied and is used for rules spanning two fields.
func (fv *formValidator) Validate(patch, merged domain.OnboardingForm) error {
	out := &domain.ValidationError{}

	err := fv.v.Struct(stepForm{
		FirstName:   patch.FirstName,
		MiddleName:  patch.MiddleName,
		LastName:    patch.LastName,
		DateOfBirth: patch.DateOfBirth,
		Country:     patch.Country,
		NationalID:  patch.NationalID,
		DialCode:    patch.DialCode,
		PhoneNumber: patch.PhoneNumber,
		Bio:         patch.Bio,
	})
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out.Add(stepFieldNames[fe.Field()], stepFieldMessage(fe))
		}
	} else if err != nil {
		return err
	}

	if _, bad := out.Fields["dateOfBirth"]; !bad && patch.DateOfBirth != "" {
		dob, _ := time.Parse(dateLayout, patch.DateOfBirth)
		if dob.After(fv.now()) {
			out.Add("dateOfBirth", "Date of birth cannot be in the future")
		}
	}

	if patch.PhoneNumber != "" || patch.DialCode != "" {
		if msg := phoneMessage(merged.DialCode, merged.PhoneNumber); msg != "" {
			out.Add("phoneNumber", msg)
		}
	}

	return out.OrNil()
}

func stepFieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "Max " + fe.Param() + " characters"
	case "datetime":
		return "Use the YYYY-MM-DD format"
	case "iso3166_1_alpha2":
		return "Use a two-letter country code"
	case "alphanum":
		return "Letters and digits only"
	case "numeric":
		return "Digits only"
	case "startswith":
		return "Dial code must start with +"
	default:
		return "Invalid value"
	}
}

// phoneMessage validates the dial code and national number together.
func phoneMessage(dialCode, number string) string {
	if dialCode == "" || number == "" {
		return ""
	}
	num, err := phonenumbers.Parse(dialCode+strings.TrimLeft(number, "0"), "")
	if err != nil {
		return "Invalid phone number"
	}
	if !phonenumbers.IsValidNumber(num) {
		return "Invalid phone number"
	}
	return ""
}
