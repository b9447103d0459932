package errors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "runtime error",
			code:    "E001",
			wantMsg: "Runtime stopped",
			wantCat: CategoryRuntime,
		},
		{
			name:    "config error",
			code:    "E021",
			wantMsg: "Project file is not valid TOML",
			wantCat: CategoryConfig,
		},
		{
			name:    "live error",
			code:    "E042",
			wantMsg: "Action not found",
			wantCat: CategoryLive,
		},
		{
			name:    "feed error",
			code:    "E061",
			wantMsg: "Feed decode failed",
			wantCat: CategoryFeed,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryFeed, "file %q not found", "state.yaml")
	if err.Message != `file "state.yaml" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `file "state.yaml" not found`)
	}
	if err.Category != CategoryFeed {
		t.Errorf("Category = %q, want %q", err.Category, CategoryFeed)
	}
}

func TestDatumError_Error(t *testing.T) {
	err := New("E001")
	got := err.Error()
	want := "E001: Runtime stopped"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// Without code
	err2 := &DatumError{Message: "test error"}
	if err2.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "test error")
	}
}

func TestDatumError_WithLocation(t *testing.T) {
	// Create a temp file with some content
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "datum.toml")
	content := `[live]
addr = ":8080"

[feed]
path = "state.yaml"
debounce = 150ms
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E021").WithLocation(tmpFile, 6, 12)

	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.File != tmpFile {
		t.Errorf("Location.File = %q, want %q", err.Location.File, tmpFile)
	}
	if err.Location.Line != 6 {
		t.Errorf("Location.Line = %d, want %d", err.Location.Line, 6)
	}
	if err.Location.Column != 12 {
		t.Errorf("Location.Column = %d, want %d", err.Location.Column, 12)
	}
	if len(err.Context) == 0 {
		t.Error("Context should not be empty")
	}
}

func TestDatumError_WithSuggestion(t *testing.T) {
	err := New("E021").WithSuggestion(`Quote duration values, e.g. debounce = "150ms"`)
	if err.Suggestion != `Quote duration values, e.g. debounce = "150ms"` {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
}

func TestDatumError_WithExample(t *testing.T) {
	example := `[feed]
path = "state.yaml"
debounce = "150ms"`
	err := New("E021").WithExample(example)
	if err.Example != example {
		t.Errorf("Example = %q, want %q", err.Example, example)
	}
}

func TestDatumError_WithDetail(t *testing.T) {
	err := New("E021").WithDetail("Custom detail")
	if err.Detail != "Custom detail" {
		t.Errorf("Detail = %q, want %q", err.Detail, "Custom detail")
	}
}

func TestDatumError_Wrap(t *testing.T) {
	inner := New("E021")
	outer := New("E020").Wrap(inner)

	if outer.Wrapped != inner {
		t.Error("Wrapped error mismatch")
	}
	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
}

func TestFromError(t *testing.T) {
	// nil error
	if FromError(nil, "E020") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	// Already DatumError
	de := New("E020")
	if FromError(de, "E021") != de {
		t.Error("FromError should return DatumError as-is")
	}

	// Standard error
	stdErr := &testError{msg: "test error"}
	result := FromError(stdErr, "E020")
	if result.Wrapped != stdErr {
		t.Error("Standard error should be wrapped")
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{
			name: "nil location",
			loc:  nil,
			want: "",
		},
		{
			name: "with column",
			loc:  &Location{File: "datum.toml", Line: 10, Column: 5},
			want: "datum.toml:10:5",
		},
		{
			name: "without column",
			loc:  &Location{File: "datum.toml", Line: 10, Column: 0},
			want: "datum.toml:10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.loc.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	// Create a temp file with some content
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "datum.toml")
	content := `[live]
addr = ":8080"

[feed]
debounce = 150ms
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E021").
		WithLocation(tmpFile, 5, 12).
		WithSuggestion("Quote duration values").
		WithExample(`debounce = "150ms"`)

	formatted := err.Format()

	// Check that key components are present
	if !strings.Contains(formatted, "E021") {
		t.Error("Format should contain error code")
	}
	if !strings.Contains(formatted, "Project file is not valid TOML") {
		t.Error("Format should contain error message")
	}
	if !strings.Contains(formatted, tmpFile) {
		t.Error("Format should contain file path")
	}
	if !strings.Contains(formatted, "Hint:") {
		t.Error("Format should contain hint")
	}
	if !strings.Contains(formatted, "Example:") {
		t.Error("Format should contain example")
	}
	if !strings.Contains(formatted, "Learn more:") {
		t.Error("Format should contain doc URL")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E021").WithLocation("datum.toml", 10, 5)
	compact := err.FormatCompact()

	want := "datum.toml:10:5: E021: Project file is not valid TOML"
	if compact != want {
		t.Errorf("FormatCompact() = %q, want %q", compact, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E021").WithLocation("datum.toml", 10, 5)
	json := err.FormatJSON()

	if !strings.Contains(json, `"code":"E021"`) {
		t.Error("JSON should contain code")
	}
	if !strings.Contains(json, `"category":"config"`) {
		t.Error("JSON should contain category")
	}
	if !strings.Contains(json, `"message":"Project file is not valid TOML"`) {
		t.Error("JSON should contain message")
	}
	if !strings.Contains(json, `"location":`) {
		t.Error("JSON should contain location")
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Error("GetAllCodes() should return codes")
	}

	// Check that E020 is in the list
	found := false
	for _, code := range codes {
		if code == "E020" {
			found = true
			break
		}
	}
	if !found {
		t.Error("E020 should be in the codes list")
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate("E020")
	if !ok {
		t.Error("E020 should exist")
	}
	if template.Message != "Project file not found" {
		t.Error("Template message mismatch")
	}

	_, ok = GetTemplate("E999")
	if ok {
		t.Error("E999 should not exist")
	}
}

func TestRegister(t *testing.T) {
	Register("E999", ErrorTemplate{
		Category: CategoryRuntime,
		Message:  "Custom test error",
		Detail:   "This is a test error",
		DocURL:   "https://test.dev/E999",
	})

	err := New("E999")
	if err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}

	// Cleanup
	delete(registry, "E999")
}

func TestWrapText(t *testing.T) {
	// Test short text that doesn't need wrapping
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	// Test text that needs wrapping
	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	// Test empty string returns empty/nil
	got = wrapText("", 10)
	if len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	// With colors enabled
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	// With colors disabled
	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
