package constant

import (
	"errors"
)

// List of errors that can be returned.
// You can standardize errors
// Standardized error
var (
	ErrTemplateValidation    = errors.New("LBL-0001")
	ErrTemplateNotFound      = errors.New("LBL-0002")
	ErrTemplateImmutable     = errors.New("LBL-0003")
	ErrMissingRequiredField  = errors.New("LBL-0004")
	ErrInvalidQuantity       = errors.New("LBL-0005")
	ErrBarcodeEncoding       = errors.New("LBL-0006")
	ErrPersistence           = errors.New("LBL-0007")
	ErrImageLoad             = errors.New("LBL-0008")
	ErrKeyNotFound           = errors.New("LBL-0009")
	ErrInvalidBarcodeFormat  = errors.New("LBL-0010")
	ErrInvalidPathParameter  = errors.New("LBL-0011")
	ErrMissingFieldsInBody   = errors.New("LBL-0012")
	ErrInvalidOutputKind     = errors.New("LBL-0013")
	ErrDocumentRender        = errors.New("LBL-0014")
	ErrBadRequest            = errors.New("LBL-0019")
	ErrInternalServer        = errors.New("LBL-0020")
)
