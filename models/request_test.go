package models

import (
	"testing"
	"time"
)

func TestParseDateRange_Valid(t *testing.T) {
	req := &ScrapeRequest{StartDate: "2024-01-01", EndDate: "2024-06-30"}
	dr, err := req.ParseDateRange()
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if dr.Start != time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("start = %v", dr.Start)
	}
	if dr.End != time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) {
		t.Errorf("end = %v", dr.End)
	}
}

func TestParseDateRange_Unbounded(t *testing.T) {
	dr, err := (&ScrapeRequest{}).ParseDateRange()
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if !dr.IsZero() {
		t.Errorf("empty request should yield a zero range, got %+v", dr)
	}
	if !dr.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("zero range should contain every date")
	}
}

func TestParseDateRange_BadFormat(t *testing.T) {
	req := &ScrapeRequest{StartDate: "01/15/2024"}
	if _, err := req.ParseDateRange(); !HasCode(err, ErrCodeInvalidInput) {
		t.Errorf("error = %v, want code %s", err, ErrCodeInvalidInput)
	}
}

func TestParseDateRange_Inverted(t *testing.T) {
	req := &ScrapeRequest{StartDate: "2024-06-30", EndDate: "2024-01-01"}
	if _, err := req.ParseDateRange(); !HasCode(err, ErrCodeInvalidInput) {
		t.Errorf("error = %v, want code %s", err, ErrCodeInvalidInput)
	}
}

func TestDateRange_ContainsInclusive(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	dr := DateRange{Start: day, End: day}

	if !dr.Contains(day) {
		t.Error("bounds are inclusive")
	}
	if dr.Contains(day.AddDate(0, 0, -1)) {
		t.Error("day before start should be excluded")
	}
	if dr.Contains(day.AddDate(0, 0, 1)) {
		t.Error("day after end should be excluded")
	}
}
