package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Category represents the type of error.
type Category string

const (
	CategoryBuild     Category = "build"
	CategoryAttribute Category = "attribute"
	CategoryParse     Category = "parse"
	CategoryStructure Category = "structure"
	CategoryCompile   Category = "compile"
	CategoryConfig    Category = "config"
	CategoryIO        Category = "io"
)

// Location represents a position in template source.
type Location struct {
	File   string
	Line   int
	Column int

	// Node is the element path inside the template, e.g. "div[1]/p[2]".
	Node string
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	var s string
	switch {
	case l.Line > 0 && l.Column > 0:
		s = fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	case l.Line > 0:
		s = fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		s = l.File
	}
	if l.Node != "" {
		if s == "" {
			return l.Node
		}
		return s + " (" + l.Node + ")"
	}
	return s
}

// BloxError is a structured error with code, location and suggestions.
type BloxError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (build, compile, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the template location where the error occurred.
	Location *Location

	// Context contains surrounding source lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *BloxError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Location != nil {
		msg = e.Location.String() + ": " + msg
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *BloxError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a BloxError with the same code. A target
// with a category but no code matches every error of that category.
func (e *BloxError) Is(target error) bool {
	t, ok := target.(*BloxError)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Category != "" && t.Category == e.Category
	}
	return t.Code == e.Code
}

// WithLocation adds a file position to the error and reads the
// surrounding lines when the file exists.
func (e *BloxError) WithLocation(file string, line, column int) *BloxError {
	node := ""
	if e.Location != nil {
		node = e.Location.Node
	}
	e.Location = &Location{File: file, Line: line, Column: column, Node: node}
	if line > 0 {
		e.Context = readContextLines(file, line, 5)
	}
	return e
}

// WithNode records the template file and element path of the error.
func (e *BloxError) WithNode(file, node string) *BloxError {
	if e.Location == nil {
		e.Location = &Location{}
	}
	if file != "" {
		e.Location.File = file
	}
	e.Location.Node = node
	return e
}

var lineRE = regexp.MustCompile(`line (\d+)`)

// WithLocationFromError extracts a line number from a parser error
// ("XML syntax error on line 3: ...") and records it for file.
func (e *BloxError) WithLocationFromError(file string, err error) *BloxError {
	if err == nil {
		return e
	}
	m := lineRE.FindStringSubmatch(err.Error())
	if m == nil {
		return e.WithNode(file, "")
	}
	line, _ := strconv.Atoi(m[1])
	return e.WithLocation(file, line, 0)
}

// WithSuggestion adds a fix suggestion to the error.
func (e *BloxError) WithSuggestion(s string) *BloxError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *BloxError) WithDetail(d string) *BloxError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *BloxError) WithDetailf(format string, args ...any) *BloxError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *BloxError) Wrap(err error) *BloxError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a BloxError from a registered error code.
func New(code string) *BloxError {
	template, ok := registry[code]
	if !ok {
		return &BloxError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &BloxError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new BloxError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *BloxError {
	return &BloxError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Sentinel returns a comparison value for errors.Is. It must not be
// returned as an error itself.
func Sentinel(code string) *BloxError {
	return New(code)
}

// CategorySentinel returns a comparison value matching any error of the
// given category.
func CategorySentinel(c Category) *BloxError {
	return &BloxError{Category: c}
}

// FromError wraps a standard error in a BloxError.
func FromError(err error, code string) *BloxError {
	if err == nil {
		return nil
	}
	if be, ok := err.(*BloxError); ok {
		return be
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first *BloxError in err's chain, or
// "unknown".
func Code(err error) string {
	var be *BloxError
	if stderrors.As(err, &be) && be.Code != "" {
		return be.Code
	}
	return "unknown"
}
