// Package validate wraps go-playground/validator with english messages and
// maps failures onto the project error type
package validate

import (
	"reflect"
	"strings"
	"sync"

	perr "ballotbox/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Svc holds the validator and its translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Svc
)

// Get returns the singleton, building it on first use
func Get() *Svc {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// messages use the `name` tag (flag or column name) when present
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("name")
			if tag == "" || tag == "-" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)
		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")
		registerShort(v, trans, "gte", "{0} must be at least {1}")
		registerShort(v, trans, "lte", "{0} must be at most {1}")

		svc = &Svc{Validator: v, Translator: trans}
	})
	return svc
}

// Struct validates v and returns a perr validation error carrying the first failing field
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, msg), field)
}

// FieldAndMessage returns the first field and its translated message
func FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		return "", inv.Error()
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return fe.Field(), fe.Translate(Get().Translator)
	}
	return "", err.Error()
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
