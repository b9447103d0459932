// Package errors provides structured, actionable error messages for Datum.
//
// The errors package implements an error system that:
//   - Shows exact source locations for file-backed errors (config, feeds)
//   - Explains what went wrong in plain language
//   - Suggests how to fix issues with code examples
//   - Links to documentation for deeper understanding
//
// # Error Categories
//
// Errors are organized into categories:
//   - runtime: Host runtime errors (dispatch after stop, render failures)
//   - config: Project file errors (missing file, parse failures, bad values)
//   - live: Live server errors (upgrade failures, unknown actions, full queues)
//   - feed: External feed errors (watch setup, decode failures)
//   - cli: Command-line usage errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "E020") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("E021").
//	    WithLocation("datum.toml", 8, 3).
//	    WithSuggestion("Quote duration values, e.g. debounce = \"150ms\"")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E021: Project file is not valid TOML
//	//
//	//   datum.toml:8:3
//	//
//	//      6 │ [live]
//	//      7 │ addr = ":8080"
//	//   →  8 │ debounce = 150ms
//	//        │   ^
//	//      9 │
//	//
//	//   Hint: Quote duration values, e.g. debounce = "150ms"
//	//
//	//   Learn more: https://datum-dev.github.io/datum/errors/E021
package errors
