package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotJSONFile marks an input whose name does not end in .json
	ErrNotJSONFile = errors.New("not a valid JSON file")
	// ErrReadFailed marks an input that could not be read
	ErrReadFailed = errors.New("error reading file")
	// ErrNoData is returned by sinks when there is nothing to write
	ErrNoData = errors.New("no data to convert")
	// ErrMalformedDocument marks a remittance whose claims or activities are not objects
	ErrMalformedDocument = errors.New("malformed remittance document")
	// ErrUnsupportedFormat is returned for an unknown output format
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// ParseError reports input text that is not well-formed JSON
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: invalid JSON format: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConversionError reports an unexpected failure while building rows from a parsed document
type ConversionError struct {
	Source string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: error converting document: %v", e.Source, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
