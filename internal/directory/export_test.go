package directory

import (
	"strings"
	"testing"
	"time"
)

func TestWriteCSV_QuotesEveryField(t *testing.T) {
	list := ProviderList{
		{Company: "Acme", Contact: `Say "Hi"`, Category: "Home, Services"},
	}

	var b strings.Builder
	if err := WriteCSV(&b, list); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	wantHeader := `"Company","Contact","email","number","Main Location","Category","Specialty","Service_Area","Testimonial"`
	if lines[0] != wantHeader {
		t.Errorf("header = %s, want %s", lines[0], wantHeader)
	}

	if !strings.Contains(lines[1], `"Say ""Hi"""`) {
		t.Errorf("embedded quotes not doubled: %s", lines[1])
	}
	if !strings.Contains(lines[1], `"Home, Services"`) {
		t.Errorf("comma-bearing field not quoted intact: %s", lines[1])
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	text := sampleHeader + "\n" +
		`Acme Plumbing,"Smith, John",js@acme.test,555-0100,Springfield,Home Services,Plumbing,North,"Say ""Hi"""` + "\n" +
		"Bright Sparks,Ada,ada@bright.test,555-0101,Shelbyville,Electrical,Wiring,Citywide,Fast\n"

	original, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var b strings.Builder
	if err := WriteCSV(&b, original); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	reparsed, err := Parse(b.String())
	if err != nil {
		t.Fatalf("Parse(exported) error = %v", err)
	}

	if len(reparsed) != len(original) {
		t.Fatalf("round trip changed record count: %d -> %d", len(original), len(reparsed))
	}
	for i := range original {
		// The synthetic id is recomputed identically since it is deterministic
		if reparsed[i] != original[i] {
			t.Errorf("record %d changed in round trip:\n  before: %+v\n  after:  %+v", i, original[i], reparsed[i])
		}
	}
}

func TestWriteCSV_EmptyList(t *testing.T) {
	var b strings.Builder
	if err := WriteCSV(&b, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if !strings.HasPrefix(b.String(), `"Company"`) {
		t.Errorf("empty export must still carry the header: %q", b.String())
	}
	if strings.Count(b.String(), "\n") != 1 {
		t.Errorf("empty export should be exactly one line, got %q", b.String())
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	if got := ExportFilename(now); got != "providers_20240601_150405.csv" {
		t.Errorf("ExportFilename() = %q", got)
	}
}
