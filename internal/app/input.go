package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"health-go/internal/health"
)

var (
	// ErrMalformedInput is returned when user input is not a number, date
	// or delimiter where one is expected.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotSaved is returned when the store refused a record.
	ErrNotSaved = errors.New("record not saved")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Plausibility bounds for hand-entered values.
type bloodPressureInput struct {
	Systolic  int `validate:"gt=0,lte=300,gtfield=Diastolic"`
	Diastolic int `validate:"gt=0,lte=250"`
}

type weightInput struct {
	Weight int `validate:"gt=0,lte=1500"`
}

type caloriesInput struct {
	Calories int `validate:"gte=0,lte=20000"`
}

type pointsInput struct {
	Points int `validate:"gte=-50,lte=500"`
}

type foodInput struct {
	Calories int `validate:"gte=0,lte=20000"`
	Fat      int `validate:"gte=0,lte=2000"`
	Fiber    int `validate:"gte=0,lte=2000"`
}

// check validates v and reports the first violation as an invalid argument.
func check(v any) error {
	if err := validate.Struct(v); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return err
		}
		fe := errs[0]
		return fmt.Errorf("%s failed %s%s: %w",
			strings.ToLower(fe.Field()), fe.Tag(), param(fe.Param()), health.ErrInvalidArgument)
	}
	return nil
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + strings.ToLower(p)
}

func parseInt(field, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a whole number: %w", field, raw, ErrMalformedInput)
	}
	return n, nil
}

func parseFloat(field, raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number: %w", field, raw, ErrMalformedInput)
	}
	return f, nil
}

// parseAt parses an RFC 3339 timestamp. Empty input means now.
func parseAt(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q is not RFC 3339: %w", raw, ErrMalformedInput)
	}
	return t, nil
}

// parseDelimiter accepts a single character, or "tab".
func parseDelimiter(raw string) (rune, error) {
	switch raw {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(raw) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character: %w", raw, ErrMalformedInput)
	}
	r, _ := utf8.DecodeRuneInString(raw)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q cannot be used: %w", raw, ErrMalformedInput)
	}
	return r, nil
}
