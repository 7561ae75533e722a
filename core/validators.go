package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	pinTag   = "pin"
	pinText  = "a 4-digit PIN is required"
	pinRegex = regexp.MustCompile(`^\d{4}$`)

	monthNameTag  = "monthname"
	monthNameText = "not a valid month name"

	monthKeyTag   = "monthkey"
	monthKeyText  = "not a valid YYYYMM month key"
	monthKeyRegex = regexp.MustCompile(`^\d{4}(0[1-9]|1[0-2])$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	// MonthNames indexes month names by month number - 1.
	MonthNames = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(pinTag, pinValidation)
	RegisterCustomTranslation(validate, translator, pinTag, pinText)

	_ = validate.RegisterValidation(monthNameTag, monthNameValidation)
	RegisterCustomTranslation(validate, translator, monthNameTag, monthNameText)

	_ = validate.RegisterValidation(monthKeyTag, monthKeyValidation)
	RegisterCustomTranslation(validate, translator, monthKeyTag, monthKeyText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func pinValidation(fl validator.FieldLevel) bool {
	return pinRegex.MatchString(fl.Field().String())
}

func monthNameValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, name := range MonthNames {
		if strings.EqualFold(name, val) {
			return true
		}
	}
	return false
}

func monthKeyValidation(fl validator.FieldLevel) bool {
	return monthKeyRegex.MatchString(fl.Field().String())
}
