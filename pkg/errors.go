package pkg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labelforge/labelforge/pkg/constant"
)

// EntityNotFoundError records an error indicating an entity was not found in any case that caused it.
// You can use it to representing a Database not found, cache not found or any other repository.
type EntityNotFoundError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		if strings.TrimSpace(e.EntityType) != "" {
			return fmt.Sprintf("Entity %s not found", e.EntityType)
		}

		if e.Err != nil {
			return e.Err.Error()
		}

		return "entity not found"
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e EntityNotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError records a business-rule rejection of a caller-supplied payload.
// Errors carries the individual human-readable messages when the rejected
// payload failed more than one rule.
type ValidationError struct {
	EntityType string   `json:"entityType,omitempty"`
	Title      string   `json:"title,omitempty"`
	Message    string   `json:"message,omitempty"`
	Code       string   `json:"code,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Err        error    `json:"err,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s - %s", e.Code, e.Message)
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// UnprocessableOperationError indicates an operation that couldn't be performant because it's invalid.
type UnprocessableOperationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e UnprocessableOperationError) Error() string {
	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e UnprocessableOperationError) Unwrap() error {
	return e.Err
}

// InternalServerError indicates an unexpected failure the caller cannot act on.
type InternalServerError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

// Error implements the error interface.
func (e InternalServerError) Error() string {
	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e InternalServerError) Unwrap() error {
	return e.Err
}

// ValidateInternalError validates the error and returns an appropriate InternalServerError.
func ValidateInternalError(err error, entityType string) error {
	return InternalServerError{
		EntityType: entityType,
		Code:       constant.ErrInternalServer.Error(),
		Title:      "Internal Server Error",
		Message:    "The server encountered an unexpected error. Please try again later or contact support.",
		Err:        err,
	}
}

// ValidateBusinessError validates the error and returns the appropriate business error code, title, and message.
func ValidateBusinessError(err error, entityType string, args ...any) error {
	errorMap := map[error]error{
		constant.ErrTemplateValidation: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrTemplateValidation.Error(),
			Title:      "Template Validation Error",
			Message:    "The template payload failed validation. Please review the reported fields and try again.",
		},
		constant.ErrTemplateNotFound: EntityNotFoundError{
			EntityType: entityType,
			Code:       constant.ErrTemplateNotFound.Error(),
			Title:      "Template Not Found",
			Message:    "No template was found for the given ID. Please make sure to use the correct ID for the template you are trying to manage.",
		},
		constant.ErrTemplateImmutable: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrTemplateImmutable.Error(),
			Title:      "Template Not Found Or Immutable",
			Message:    "The template does not exist or is a built-in template. Built-in templates cannot be modified or deleted.",
		},
		constant.ErrMissingRequiredField: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrMissingRequiredField.Error(),
			Title:      "Missing Required Field",
			Message:    "The record is missing the 'fnsku' field, which is mandatory for rendering a label.",
		},
		constant.ErrInvalidQuantity: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidQuantity.Error(),
			Title:      "Invalid Quantity",
			Message:    "The label quantity must be a positive integer.",
		},
		constant.ErrBarcodeEncoding: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrBarcodeEncoding.Error(),
			Title:      "Barcode Encoding Error",
			Message:    fmt.Sprintf("The barcode payload could not be encoded with the configured symbology. %v", args),
		},
		constant.ErrInvalidBarcodeFormat: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidBarcodeFormat.Error(),
			Title:      "Invalid Barcode Format",
			Message:    "The barcode format must be one of CODE128, CODE39 or EAN13.",
		},
		constant.ErrPersistence: InternalServerError{
			EntityType: entityType,
			Code:       constant.ErrPersistence.Error(),
			Title:      "Persistence Error",
			Message:    "The storage backend rejected the write. In-memory state remains authoritative and a later save attempt may succeed.",
		},
		constant.ErrImageLoad: UnprocessableOperationError{
			EntityType: entityType,
			Code:       constant.ErrImageLoad.Error(),
			Title:      "Image Load Error",
			Message:    "The record image could not be fetched or decoded.",
		},
		constant.ErrInvalidPathParameter: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidPathParameter.Error(),
			Title:      "Invalid Path Parameter",
			Message:    fmt.Sprintf("One or more path parameters are in an incorrect format. Please check the following parameters '%v' and ensure they meet the required format before trying again.", args),
		},
		constant.ErrMissingFieldsInBody: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrMissingFieldsInBody.Error(),
			Title:      "Missing Fields in Request",
			Message:    fmt.Sprintf("Your request is missing one or more required fields. Please check the following fields '%v' and try again.", args),
		},
		constant.ErrInvalidOutputKind: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrInvalidOutputKind.Error(),
			Title:      "Invalid Output Kind",
			Message:    "The output must be either 'instructions' or 'pdf'.",
		},
		constant.ErrDocumentRender: InternalServerError{
			EntityType: entityType,
			Code:       constant.ErrDocumentRender.Error(),
			Title:      "Document Render Error",
			Message:    "The label document could not be rendered to the requested output. Please try again later or contact support.",
		},
		constant.ErrBadRequest: ValidationError{
			EntityType: entityType,
			Code:       constant.ErrBadRequest.Error(),
			Title:      "Bad Request",
			Message:    "The request could not be understood by the server. Please check the syntax and try again.",
		},
	}

	if mappedError, found := errorMap[err]; found {
		return mappedError
	}

	return err
}

// ValidationErrorWithMessages builds a ValidationError carrying the individual
// rule messages collected during template validation.
func ValidationErrorWithMessages(entityType string, messages []string) error {
	base := ValidateBusinessError(constant.ErrTemplateValidation, entityType)

	vErr, ok := base.(ValidationError)
	if !ok {
		return base
	}

	vErr.Errors = messages

	return vErr
}

// IsNotFound reports whether err is any of the not-found classes.
func IsNotFound(err error) bool {
	var nf EntityNotFoundError

	return errors.As(err, &nf) || errors.Is(err, constant.ErrKeyNotFound)
}
