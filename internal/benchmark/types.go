package benchmark

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field positions in a measurement line.
const (
	fieldVariant = iota
	fieldFunction
	fieldBytes
	fieldLoops
	fieldAlignment
	fieldElapsed

	minFields = fieldElapsed + 1
)

// ErrMalformedRecord is wrapped by every ParseError.
var ErrMalformedRecord = errors.New("malformed measurement record")

// Key identifies a single measurement.
type Key struct {
	Variant   string
	Function  string
	Bytes     int
	Loops     int
	Alignment int
}

// String returns the stable colon-separated form used for storage and lookup.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%d:%d:%d", k.Variant, k.Function, k.Bytes, k.Loops, k.Alignment)
}

// Record is one timed run of a benchmark executable.
type Record struct {
	Variant   string
	Function  string
	Bytes     int
	Loops     int
	Alignment int
	Elapsed   float64 // seconds

	// Line is the raw output line. Fields past the elapsed time are kept
	// here untouched.
	Line string
}

// Key returns the key formed by the first five fields of the record.
func (r Record) Key() Key {
	return Key{
		Variant:   r.Variant,
		Function:  r.Function,
		Bytes:     r.Bytes,
		Loops:     r.Loops,
		Alignment: r.Alignment,
	}
}

// ParseError describes why a line could not be turned into a Record.
type ParseError struct {
	Line  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: field %s in %q: %v", ErrMalformedRecord, e.Field, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: field %s in %q", ErrMalformedRecord, e.Field, e.Line)
}

func (e *ParseError) Unwrap() error { return ErrMalformedRecord }

// ParseRecord validates a colon-separated measurement line.
func ParseRecord(line string) (Record, error) {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, ":")
	if len(parts) < minFields {
		return Record{}, &ParseError{
			Line:  line,
			Field: "count",
			Err:   fmt.Errorf("want at least %d fields, got %d", minFields, len(parts)),
		}
	}

	rec := Record{
		Variant:  parts[fieldVariant],
		Function: parts[fieldFunction],
		Line:     line,
	}
	if rec.Variant == "" {
		return Record{}, &ParseError{Line: line, Field: "variant", Err: errors.New("empty")}
	}
	if rec.Function == "" {
		return Record{}, &ParseError{Line: line, Field: "function", Err: errors.New("empty")}
	}

	var err error
	if rec.Bytes, err = parseInt(line, "bytes", parts[fieldBytes], 0); err != nil {
		return Record{}, err
	}
	if rec.Loops, err = parseInt(line, "loops", parts[fieldLoops], 1); err != nil {
		return Record{}, err
	}
	if rec.Alignment, err = parseInt(line, "alignment", parts[fieldAlignment], 1); err != nil {
		return Record{}, err
	}

	elapsed, err := strconv.ParseFloat(strings.TrimSpace(parts[fieldElapsed]), 64)
	if err != nil {
		return Record{}, &ParseError{Line: line, Field: "elapsed", Err: err}
	}
	if math.IsNaN(elapsed) || math.IsInf(elapsed, 0) || elapsed < 0 {
		return Record{}, &ParseError{Line: line, Field: "elapsed", Err: fmt.Errorf("invalid duration %v", elapsed)}
	}
	rec.Elapsed = elapsed

	return rec, nil
}

func parseInt(line, field, raw string, lower int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParseError{Line: line, Field: field, Err: err}
	}
	if v < lower {
		return 0, &ParseError{Line: line, Field: field, Err: fmt.Errorf("must be >= %d, got %d", lower, v)}
	}
	return v, nil
}
