package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies a scraping failure
type ErrorType string

const (
	// ErrorTypeNetwork covers timeouts, connection errors and non-2xx responses
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeExtractionEmpty means the page fetched but no strategy matched any record
	ErrorTypeExtractionEmpty ErrorType = "extraction_empty"
	// ErrorTypeEnrichment represents per-record summary fetch failures
	ErrorTypeEnrichment ErrorType = "enrichment"
	// ErrorTypeTimeout means the run deadline expired before the site finished
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStorage represents report persistence errors
	ErrorTypeStorage ErrorType = "storage"
)

// ScrapeError is a failure tagged with its type and originating website
type ScrapeError struct {
	Type    ErrorType
	Website string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Website, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Website, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// New creates a new ScrapeError
func New(errType ErrorType, website, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Website: website,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(website, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, website, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(website, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, website, message, err)
}

// NewExtractionEmpty creates an error for a page that yielded no records
func NewExtractionEmpty(website string) *ScrapeError {
	return New(ErrorTypeExtractionEmpty, website, "no events found on page", nil)
}

// NewEnrichment creates a new enrichment error
func NewEnrichment(website, message string, err error) *ScrapeError {
	return New(ErrorTypeEnrichment, website, message, err)
}

// NewTimeout creates an error for a site abandoned at the run deadline
func NewTimeout(website string) *ScrapeError {
	return New(ErrorTypeTimeout, website, "run deadline exceeded before site finished", nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(website, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, website, message, err)
}

// NewStorage creates a new storage error
func NewStorage(message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, "", message, err)
}

// TypeOf returns the ErrorType of err, or the empty string for untyped errors
func TypeOf(err error) ErrorType {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Type
	}
	return ""
}
