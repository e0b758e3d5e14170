package mdconv

import "fmt"

// DecodingError is returned when the source bytes cannot be decoded
// under the selected encoding (spec §7).
type DecodingError struct {
	Encoding string
	Err      error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("mdconv: decode input as %s: %s", e.Encoding, e.Err)
}
func (e *DecodingError) Unwrap() error { return e.Err }

// PreprocessingError is returned on allocation failure or sanitizer
// internal failure, and by ConversionOptions.Validate for a malformed
// option (spec §7, §4.A).
type PreprocessingError struct {
	Field string
	Err   error
}

func (e *PreprocessingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("mdconv: preprocessing: %s", e.Err)
	}
	return fmt.Sprintf("mdconv: preprocessing: option %s: %s", e.Field, e.Err)
}
func (e *PreprocessingError) Unwrap() error { return e.Err }

// ConversionError is returned when a handler hits an unrecoverable
// condition, such as a preserved-HTML subtree that fails to
// re-serialize (spec §7).
type ConversionError struct {
	Tag string
	Err error
}

func (e *ConversionError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("mdconv: conversion: %s", e.Err)
	}
	return fmt.Sprintf("mdconv: conversion of <%s>: %s", e.Tag, e.Err)
}
func (e *ConversionError) Unwrap() error { return e.Err }

// WarningKind classifies a non-fatal advisory collected during a
// conversion (spec §7).
type WarningKind string

const (
	WarnOversizedImage     WarningKind = "oversized_image"
	WarnUndecodableDataURI WarningKind = "undecodable_data_uri"
	WarnRejectedSVG        WarningKind = "rejected_svg"
)

// Warning is a non-fatal advisory. Warnings never abort a conversion;
// they are collected into the side channel returned by
// ConvertWithInlineImages.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Kind, w.Message) }
