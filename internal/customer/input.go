package customer

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jpanderson91/aws-delivery-demo-app/internal/errs"
)

// Input is the body of a create request. Fields are validated in
// declaration order, so name is reported before email.
type Input struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,emailshape"`
	Company string `json:"company"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON names ("name") rather than Go names ("Name").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Decode parses a request body into normalized Input. The body must be a
// JSON object; a field holding a non-string value is a validation failure
// for that field. Keys match exactly, so "Name" or "EMAIL" are unknown
// fields and ignored.
func Decode(body []byte) (Input, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Input{}, errs.Malformed("request body is empty", nil)
	}
	if body[0] != '{' {
		return Input{}, errs.Malformed("request body must be a JSON object", nil)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Input{}, errs.Malformed("request body is not valid JSON", err)
	}

	var in Input
	fields := []struct {
		key string
		dst *string
	}{
		{"name", &in.Name},
		{"email", &in.Email},
		{"company", &in.Company},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return Input{}, errs.Validation(f.key, "must be a string")
		}
	}
	return in.Normalize(), nil
}

// Normalize trims surrounding whitespace from every field.
func (in Input) Normalize() Input {
	return Input{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Company: strings.TrimSpace(in.Company),
	}
}

// Validate returns the first violation as an errs.KindValidation error.
func (in Input) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.Internal(err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return errs.Validation(fe.Field(), "is required")
	case "emailshape":
		return errs.Validation(fe.Field(), "must be a valid email address")
	default:
		return errs.Validation(fe.Field(), "is invalid")
	}
}

// ValidEmail checks the minimal local@domain shape: the last "@" separates
// a non-empty local part from a non-empty domain, with no whitespace.
func ValidEmail(s string) bool {
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1
}
