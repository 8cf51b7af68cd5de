// Package response renders the JSON envelope shared by every endpoint:
//
//	{"data": ..., "errors": [...], "meta": {...}, "links": {...}}
//
// Absent members are omitted.
package response

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope wrapping every payload.
type Response struct {
	Data   interface{} `json:"data,omitempty"`
	Errors []APIError  `json:"errors,omitempty"`
	Meta   *Meta       `json:"meta,omitempty"`
	Links  *Links      `json:"links,omitempty"`
}

// APIError describes one failure. Status is the HTTP status as a string.
type APIError struct {
	Title     string    `json:"title"`
	Detail    string    `json:"detail"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// Links is part of the wire format; no endpoint paginates yet.
type Links struct {
	Self string `json:"self,omitempty"`
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// Error is an error that renders as a single-entry error envelope.
type Error struct {
	Code   int
	Title  string
	Detail string
}

func (e *Error) Error() string {
	return e.Title + ": " + e.Detail
}

// NewError creates an *Error.
func NewError(code int, title, detail string) *Error {
	return &Error{Code: code, Title: title, Detail: detail}
}

// Success writes data wrapped in the envelope.
func Success(c *fiber.Ctx, status int, data interface{}, version string) error {
	return c.Status(status).JSON(Response{
		Data: data,
		Meta: &Meta{
			Timestamp: time.Now().UTC(),
			Version:   version,
		},
	})
}

// NewAPIError builds an APIError stamped with the current time.
func NewAPIError(status int, title, detail string) APIError {
	return APIError{
		Title:     title,
		Detail:    detail,
		Status:    strconv.Itoa(status),
		Timestamp: time.Now().UTC(),
	}
}

// Fail writes an envelope carrying a single error.
func Fail(c *fiber.Ctx, status int, title, detail string) error {
	return c.Status(status).JSON(Response{
		Errors: []APIError{NewAPIError(status, title, detail)},
	})
}

// Render writes e as an error envelope.
func (e *Error) Render(c *fiber.Ctx) error {
	return Fail(c, e.Code, e.Title, e.Detail)
}
