package http

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/labelforge/labelforge/pkg"
	cn "github.com/labelforge/labelforge/pkg/constant"
)

// DecodeHandlerFunc is a handler which works with the WithBody decorator.
// It receives the struct WithBody decoded and validated from the request body.
// Ex: json -> WithBody -> DecodeHandlerFunc.
type DecodeHandlerFunc func(p any, c *fiber.Ctx) error

var validate = validator.New(validator.WithRequiredStructEnabled())

// decoderHandler decodes payloads coming from requests.
type decoderHandler struct {
	handler      DecodeHandlerFunc
	structSource any
}

func newOfType(s any) any {
	t := reflect.TypeOf(s)
	v := reflect.New(t.Elem())

	return v.Interface()
}

// WithBody wraps a handler with JSON decoding and struct validation of the
// request body. The source struct is used as a prototype; every request gets
// a fresh instance.
func WithBody(s any, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{
		handler:      h,
		structSource: s,
	}

	return d.FiberHandlerFunc
}

// FiberHandlerFunc decodes the incoming request body, validates it against
// the struct tags and calls the wrapped handler.
func (d *decoderHandler) FiberHandlerFunc(c *fiber.Ctx) error {
	s := newOfType(d.structSource)

	bodyBytes := c.Body()

	trimmedBody := strings.TrimSpace(string(bodyBytes))
	if len(trimmedBody) == 0 || trimmedBody == "null" {
		return WithError(c, pkg.ValidateBusinessError(cn.ErrMissingFieldsInBody, ""))
	}

	if err := json.Unmarshal(bodyBytes, s); err != nil {
		return WithError(c, pkg.ValidateBusinessError(cn.ErrBadRequest, ""))
	}

	if err := validate.Struct(s); err != nil {
		return WithError(c, fieldValidationError(err))
	}

	return d.handler(s, c)
}

// fieldValidationError converts validator failures into the shared validation
// error shape, one message per rejected field.
func fieldValidationError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkg.ValidateBusinessError(cn.ErrMissingFieldsInBody, "")
	}

	messages := make([]string, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is a required field", fieldName(fe)))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s]", fieldName(fe), fe.Param()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", fieldName(fe), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed on the %s rule", fieldName(fe), fe.Tag()))
		}
	}

	return pkg.ValidationErrorWithMessages("", messages)
}

// fieldName lowercases the first rune so messages use the JSON casing.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return "body"
	}

	return strings.ToLower(name[:1]) + name[1:]
}
