package errors

import (
	"fmt"
	"testing"
)

func TestErrorMessageWithSuggestion(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "file not found: x.csv")
	if got, want := err.Error(), "file not found: x.csv"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = err.WithSuggestion("check the path")
	if got, want := err.Error(), "file not found: x.csv (suggestion: check the path)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryReconciliation, 5},
		{CategoryNetwork, 6},
		{ErrorCategory("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, CodeProcessingError, "boom")
			if got := err.GetExitCode(); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := Wrap(cause, CategoryFile, CodeFileCorrupted, "could not read file")

	if err.Unwrap() != cause {
		t.Error("Unwrap() did not return the cause")
	}
	if len(err.StackTrace) == 0 {
		t.Error("StackTrace is empty")
	}
	if Wrap(nil, CategoryFile, CodeFileCorrupted, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestConstructorsCarryContext(t *testing.T) {
	ferr := FileError(CodeFileNotFound, "/tmp/missing.csv", nil)
	if ferr.Category != CategoryFile || ferr.Code != CodeFileNotFound {
		t.Errorf("FileError category/code = %s/%s", ferr.Category, ferr.Code)
	}
	if ferr.Context["file_path"] != "/tmp/missing.csv" {
		t.Errorf("FileError context = %v", ferr.Context)
	}
	if ferr.Suggestion == "" {
		t.Error("FileError has no suggestion")
	}

	perr := ParseError(CodeMissingColumn, "bank.csv", 1, "Belopp", "", nil)
	if perr.Category != CategoryParse {
		t.Errorf("ParseError category = %s", perr.Category)
	}
	if perr.Context["line"] != 1 {
		t.Errorf("ParseError line context = %v", perr.Context["line"])
	}

	nerr := NetworkError(CodeUnexpectedReply, "/budgets", fmt.Errorf("boom"))
	if nerr.Category != CategoryNetwork {
		t.Errorf("NetworkError category = %s", nerr.Category)
	}
	if nerr.Context["endpoint"] != "/budgets" {
		t.Errorf("NetworkError context = %v", nerr.Context)
	}
}

func TestAsReconcilerError(t *testing.T) {
	inner := ConfigurationError(CodeMissingConfig, "token", nil, nil)
	wrapped := fmt.Errorf("loading config: %w", inner)

	got, ok := AsReconcilerError(wrapped)
	if !ok {
		t.Fatal("AsReconcilerError() = false, want true")
	}
	if got != inner {
		t.Error("AsReconcilerError() did not return the wrapped error")
	}

	if _, ok := AsReconcilerError(fmt.Errorf("plain")); ok {
		t.Error("AsReconcilerError() = true for plain error")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	inner := ValidationError(CodeInvalidDate, "date", "junk", nil)
	if got := WrapIfNeeded(inner, CategoryFile, CodeFileCorrupted, "x"); got != inner {
		t.Error("WrapIfNeeded() re-wrapped an existing ReconcilerError")
	}

	plain := fmt.Errorf("plain")
	got := WrapIfNeeded(plain, CategoryNetwork, CodeRequestFailed, "request failed")
	if got.Category != CategoryNetwork || got.Unwrap() != plain {
		t.Errorf("WrapIfNeeded() = %+v, want wrapped network error", got)
	}

	if WrapIfNeeded(nil, CategoryNetwork, CodeRequestFailed, "x") != nil {
		t.Error("WrapIfNeeded(nil) should return nil")
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*ReconcilerError{
		FileError(CodeFileNotFound, "a.csv", nil),
		ParseError(CodeInvalidData, "b.csv", 3, "Belopp", "abc", nil),
		NetworkError(CodeRequestFailed, "/budgets", nil),
	}

	summary := NewErrorSummary(errs)
	if summary.Total != 3 {
		t.Errorf("Total = %d, want 3", summary.Total)
	}
	if summary.ByCategory[CategoryFile] != 1 || summary.ByCategory[CategoryParse] != 1 {
		t.Errorf("ByCategory = %v", summary.ByCategory)
	}
	// Network has the highest exit code of the three.
	if got := summary.GetExitCode(); got != 6 {
		t.Errorf("GetExitCode() = %d, want 6", got)
	}

	empty := NewErrorSummary(nil)
	if empty.GetExitCode() != 0 {
		t.Errorf("empty summary GetExitCode() = %d, want 0", empty.GetExitCode())
	}
	if empty.Error() != "no errors" {
		t.Errorf("empty summary Error() = %q", empty.Error())
	}
}
