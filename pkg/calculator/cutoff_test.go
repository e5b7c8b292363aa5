package calculator

import (
	"testing"
	"time"
)

func TestParseMonth_Valid(t *testing.T) {
	got, err := parseMonth("122010")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseMonth_InvalidLength(t *testing.T) {
	_, err := parseMonth("12010") // 5 chars
	if err == nil {
		t.Fatal("expected error for invalid length, got nil")
	}
}

func TestParseMonth_InvalidMonth(t *testing.T) {
	_, err := parseMonth("132010") // 13th month
	if err == nil {
		t.Fatal("expected error for invalid month, got nil")
	}
}

func TestParseCutoff(t *testing.T) {
	got, err := ParseCutoff("2010-12-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := ParseCutoff("12/01/2010"); err == nil {
		t.Fatal("expected error for unsupported layout, got nil")
	}
	if _, err := ParseCutoff("ab2010"); err == nil {
		t.Fatal("expected error for non-digit month, got nil")
	}
}
