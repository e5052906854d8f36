package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Build Errors (E001-E009)
	// ============================================

	"E001": {
		Category:   CategoryBuild,
		Message:    "Unknown element",
		Suggestion: "Register the element with the registry before building it",
	},
	"E002": {
		Category: CategoryBuild,
		Message:  "Invalid constructor",
	},

	// ============================================
	// Attribute Errors (E010-E019)
	// ============================================

	"E010": {
		Category: CategoryAttribute,
		Message:  "Missing attribute",
	},
	"E011": {
		Category:   CategoryAttribute,
		Message:    "Unknown declared attribute",
		Suggestion: "Declare the attribute in the element schema or use SetAttr for free-form attributes",
	},
	"E012": {
		Category: CategoryAttribute,
		Message:  "Child not found",
	},
	"E013": {
		Category: CategoryAttribute,
		Message:  "Invalid attribute value",
	},
	"E014": {
		Category:   CategoryAttribute,
		Message:    "Unknown signal",
		Suggestion: "Connect only to signals declared by the node type",
	},

	// ============================================
	// Parse Errors (E020-E029)
	// ============================================

	"E020": {
		Category: CategoryParse,
		Message:  "Malformed attribute value",
	},

	// ============================================
	// Structure Errors (E030-E039)
	// ============================================

	"E030": {
		Category: CategoryStructure,
		Message:  "Structural misuse",
	},
	"E032": {
		Category: CategoryStructure,
		Message:  "Duplicate signal declaration",
	},

	// ============================================
	// Compile Errors (E040-E049)
	// ============================================

	"E040": {
		Category: CategoryCompile,
		Message:  "Template compilation failed",
	},
	"E041": {
		Category:   CategoryCompile,
		Message:    "Unregistered tag",
		Suggestion: "Register the tag or configure a fallback constructor",
	},
	"E042": {
		Category:   CategoryCompile,
		Message:    "Duplicate accessor",
		Suggestion: "Give every id or accessor in the template a unique name",
	},
	"E043": {
		Category: CategoryCompile,
		Message:  "Invalid query selector",
	},
	"E044": {
		Category: CategoryCompile,
		Message:  "Template source could not be parsed",
	},
	"E045": {
		Category: CategoryCompile,
		Message:  "Template build failed",
	},

	// ============================================
	// Config Errors (E050-E059)
	// ============================================

	"E050": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check that blox.json is valid JSON (or blox.yaml valid YAML)",
	},
	"E051": {
		Category:   CategoryConfig,
		Message:    "Configuration not found",
		Suggestion: "Create blox.json in the project directory or pass --config",
	},
	"E052": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// IO Errors (E060-E069)
	// ============================================

	"E060": {
		Category: CategoryIO,
		Message:  "Template not found",
	},
	"E061": {
		Category: CategoryIO,
		Message:  "Template could not be read",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
