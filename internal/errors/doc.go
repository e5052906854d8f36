// Package errors provides structured, actionable error messages for blox.
//
// Every failure the library reports is a *BloxError carrying a stable code
// (e.g. "E001"), a category, a short message and optional detail, hint and
// source location. Codes map to registered templates so the same failure is
// always described the same way.
//
// # Error Categories
//
//   - build: registry lookups and node construction
//   - attribute: declared and free-form attribute access
//   - parse: typed attribute conversion
//   - structure: tree misuse (cycles, children on leaf elements)
//   - compile: template precompilation
//   - config, io: project configuration and template loading
//
// # Matching
//
// A *BloxError matches any other *BloxError with the same code under the
// standard errors.Is, so packages export sentinels built with Sentinel:
//
//	var ErrUnknownElement = errors.Sentinel("E001")
//
//	if errors.Is(err, registry.ErrUnknownElement) { ... }
//
// # Usage
//
//	err := errors.New("E040").
//	    WithDetail(`tag "blink" is not registered`).
//	    WithNode("page.html", "html/body/blink[1]").
//	    WithSuggestion("Register the tag or configure a fallback constructor")
//
//	fmt.Println(err.Format())
package errors
