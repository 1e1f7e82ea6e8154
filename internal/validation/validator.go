// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

// Package validation provides struct validation using go-playground/validator
// v10 behind a thread-safe singleton. Request DTOs carry `validate` tags and
// handlers call ValidateStruct before touching the store.
//
//	type addToCartRequest struct {
//	    ProductID string `json:"productId" validate:"required,len=24,hexadecimal"`
//	    Quantity  int    `json:"quantity" validate:"required,min=1"`
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Error returns the human-readable message for the failure.
func (e *FieldError) Error() string {
	return e.Message
}

// RequestError is a collection of field validation failures for one request.
type RequestError struct {
	fields []FieldError
}

// Fields returns the individual field failures.
func (e *RequestError) Fields() []FieldError {
	return e.fields
}

// Error implements the error interface. The first field's message is used as
// the caller-facing message, matching the one-error-at-a-time style of the
// API's validation responses.
func (e *RequestError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	return e.fields[0].Message
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil on success or a *RequestError describing every failed field.
func ValidateStruct(s any) *RequestError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return &RequestError{fields: fields}
}

// errorMessageTemplates maps validation tags to message templates taking only
// the field name.
var errorMessageTemplates = map[string]string{
	"required":    "%s is required",
	"email":       "%s must be a valid email address",
	"hexadecimal": "%s must be a hexadecimal string",
}

// errorMessageWithParam maps validation tags to templates taking the field
// name and the tag parameter.
var errorMessageWithParam = map[string]string{
	"oneof":   "%s must be one of: %s",
	"len":     "%s must be exactly %s characters",
	"gt":      "%s must be greater than %s",
	"gte":     "%s must be greater than or equal to %s",
	"eqfield": "%s must match %s",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := strings.EqualFold(fe.Kind().String(), "string")
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
