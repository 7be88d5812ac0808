// Package input parses per-site recruitment counts entered as text.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/panbanda/recruitsim/pkg/models"
)

// ParseError reports a token that is not a non-negative integer.
type ParseError struct {
	Line     int    // 1-based line, 0 for single-line input
	Position int    // 1-based position of the token on its line
	Token    string // offending text
	Err      error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, entry %d: %q is not a valid patient count: %v", e.Line, e.Position, e.Token, e.Err)
	}
	return fmt.Sprintf("entry %d: %q is not a valid patient count: %v", e.Position, e.Token, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports ParseError as a kind of models.ErrInvalidInput so callers can
// handle malformed text and degenerate samples the same way.
func (e *ParseError) Is(target error) bool {
	return target == models.ErrInvalidInput
}

var errNegative = errors.New("must not be negative")

// isSeparator reports whether r splits entries.
func isSeparator(r rune) bool {
	switch r {
	case ',', ';', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// ParseCounts parses a delimited list of counts such as "8, 9 10;11".
// Commas, semicolons and whitespace all separate entries. Empty input
// yields an empty slice and no error.
func ParseCounts(s string) ([]int, error) {
	return parseLine(s, 0)
}

// ParseArgs parses counts given as separate arguments, each of which may
// itself be a delimited list.
func ParseArgs(args []string) ([]int, error) {
	var counts []int
	for _, arg := range args {
		parsed, err := ParseCounts(arg)
		if err != nil {
			return nil, err
		}
		counts = append(counts, parsed...)
	}
	return counts, nil
}

// ReadCounts reads counts from r. Lines starting with '#' are ignored.
func ReadCounts(r io.Reader) ([]int, error) {
	var counts []int
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parsed, err := parseLine(text, line)
		if err != nil {
			return nil, err
		}
		counts = append(counts, parsed...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// ReadCountsFile reads counts from the file at path.
func ReadCountsFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCounts(f)
}

func parseLine(s string, line int) ([]int, error) {
	fields := strings.FieldsFunc(s, isSeparator)
	counts := make([]int, 0, len(fields))
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) {
				err = numErr.Err
			}
			return nil, &ParseError{Line: line, Position: i + 1, Token: field, Err: err}
		}
		if n < 0 {
			return nil, &ParseError{Line: line, Position: i + 1, Token: field, Err: errNegative}
		}
		counts = append(counts, n)
	}
	return counts, nil
}
