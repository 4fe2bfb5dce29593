package config

import (
	"bytes"
	"testing"
	"time"

	"budget-reconciler/internal/parsers"
	"budget-reconciler/internal/reporter"
)

func TestCreateReconcilerConfig(t *testing.T) {
	cfg := CreateReconcilerConfig(3, 80)

	if cfg.Matcher.DateWindowDays != 3 {
		t.Errorf("DateWindowDays = %d, want 3", cfg.Matcher.DateWindowDays)
	}
	if cfg.Matcher.SimilarityThreshold != 80 {
		t.Errorf("SimilarityThreshold = %d, want 80", cfg.Matcher.SimilarityThreshold)
	}
	if cfg.Matcher.Similarity == nil {
		t.Error("Similarity scorer is nil, want the default scorer")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestCreateRegisterConfig(t *testing.T) {
	cutoff := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg := CreateRegisterConfig("Checking", cutoff)

	if cfg.Account != "Checking" {
		t.Errorf("Account = %q, want Checking", cfg.Account)
	}
	if !cfg.FilterDate.Equal(cutoff) {
		t.Errorf("FilterDate = %v, want %v", cfg.FilterDate, cutoff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestCreateBankParser(t *testing.T) {
	cutoff := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		format         string
		includePending bool
		wantErr        bool
	}{
		{"swedbank", false, false},
		{"ica", false, false},
		{"ica", true, false},
		{"unknown", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			parser, err := CreateBankParser(tt.format, cutoff, tt.includePending)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateBankParser() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && parser == nil {
				t.Error("CreateBankParser() returned nil parser")
			}
		})
	}

	parser, err := CreateBankParser("ica", cutoff, true)
	if err != nil {
		t.Fatalf("CreateBankParser() error = %v", err)
	}
	if _, ok := parser.(*parsers.ICAParser); !ok {
		t.Fatalf("CreateBankParser() returned %T, want *parsers.ICAParser", parser)
	}
}

func TestCreateReporterConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := CreateReporterConfig("json", "budget", "swedbank (statement)", &buf)

	if cfg.Format != reporter.FormatJSON {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.BankLabel != "swedbank (statement)" {
		t.Errorf("BankLabel = %q", cfg.BankLabel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestCreateClientConfig(t *testing.T) {
	cfg := CreateClientConfig("secret")

	if cfg.Token != "secret" {
		t.Errorf("Token = %q, want secret", cfg.Token)
	}
	if cfg.BaseURL == "" {
		t.Error("BaseURL is empty, want the default endpoint")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
