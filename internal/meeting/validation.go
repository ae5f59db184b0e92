package meeting

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
)

// Request is the payload a visitor submits to schedule a meeting.
type Request struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
	Topic string `json:"topic" validate:"required,max=200"`
	Notes string `json:"notes"`
	Date  string `json:"date" validate:"required"`
	Time  string `json:"time" validate:"required"`
}

// ValidationError reports malformed scheduling input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid meeting request: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var timeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

// Validator turns a Request into a pending Meeting.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator reporting errors by JSON field name.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Parse validates req and returns a pending Meeting created at now.
// Any problem is reported as a *ValidationError.
func (v *Validator) Parse(req Request, now time.Time) (*Meeting, error) {
	req = normalize(req)
	fields := make(map[string]string)

	if err := v.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate meeting request: %w", err)
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}

	var date civil.Date
	if _, failed := fields["date"]; !failed {
		d, err := civil.ParseDate(req.Date)
		if err != nil {
			fields["date"] = "Enter a valid date."
		}
		date = d
	}

	var clock civil.Time
	if _, failed := fields["time"]; !failed {
		t, ok := parseClock(req.Time)
		if !ok {
			fields["time"] = "Enter a valid time."
		}
		clock = t
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	return &Meeting{
		Name:      req.Name,
		Email:     req.Email,
		Topic:     req.Topic,
		Notes:     req.Notes,
		Date:      date,
		Time:      clock,
		Status:    StatusPending,
		CreatedAt: now.UTC(),
	}, nil
}

func normalize(req Request) Request {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Topic = strings.TrimSpace(req.Topic)
	req.Notes = strings.TrimSpace(req.Notes)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	return req
}

func parseClock(s string) (civil.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.TimeOf(t), true
		}
	}
	return civil.Time{}, false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
