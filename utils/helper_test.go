package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestNormalizePhoneNumber(t *testing.T) {
	got, err := NormalizePhoneNumber("0812-3456-7890", "ID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+6281234567890" {
		t.Fatalf("expected +6281234567890, got %s", got)
	}

	if got, err := NormalizePhoneNumber("  ", "ID"); err != nil || got != "" {
		t.Fatalf("blank input should pass through, got %q %v", got, err)
	}
	if _, err := NormalizePhoneNumber("12", "ID"); err == nil {
		t.Fatalf("expected error for too-short number")
	}
}

func TestProcessValidationErrors(t *testing.T) {
	type input struct {
		Name string `validate:"required"`
		Qty  int    `validate:"gt=0"`
	}
	err := validator.New().Struct(input{})
	got := ProcessValidationErrors(err)
	if got["Name"] != "required" || got["Qty"] != "gt" {
		t.Fatalf("unexpected mapping %v", got)
	}

	got = ProcessValidationErrors(errors.New("boom"))
	if got["_"] != "boom" {
		t.Fatalf("expected plain error under _, got %v", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestMonthKeys(t *testing.T) {
	from := time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	got := MonthKeys(from, to)
	want := []string{"2024-11", "2024-12", "2025-01", "2025-02"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if keys := MonthKeys(to, from); len(keys) != 0 {
		t.Fatalf("expected no keys for reversed range, got %v", keys)
	}
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

	from, to, err := ParseDateRange("", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected default range %v - %v", from, to)
	}

	from, to, err = ParseDateRange("2025-01-10", "2025-01-31", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range %v - %v", from, to)
	}

	if _, _, err := ParseDateRange("2025-02-01", "2025-01-01", now); err == nil {
		t.Fatalf("expected error for reversed range")
	}
	if _, _, err := ParseDateRange("01/02/2025", "", now); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestThumbnailObjectKey(t *testing.T) {
	if got := ThumbnailObjectKey("expenses/12/receipt.png"); got != "expenses/12/thumbnails/receipt.png" {
		t.Fatalf("unexpected thumbnail key %s", got)
	}
}

func TestDetectUploadMimeType(t *testing.T) {
	pdf := []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	if got, err := DetectUploadMimeType(pdf); err != nil || got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q %v", got, err)
	}
	if _, err := DetectUploadMimeType([]byte("plain text")); err == nil {
		t.Fatalf("expected text to be rejected")
	}
}

func TestClaimSequence(t *testing.T) {
	dbDown := errors.New("db down")
	counter := func(start int64) func(context.Context) (int64, error) {
		n := start - 1
		return func(context.Context) (int64, error) {
			n++
			return n, nil
		}
	}
	cases := []struct {
		name    string
		isFree  func(context.Context, int64) error
		want    int64
		wantErr error
	}{
		{"first number free", func(context.Context, int64) error { return nil }, 5, nil},
		{"skips taken numbers", func(_ context.Context, n int64) error {
			if n < 8 {
				return fmt.Errorf("%w: sequence_no", ErrorDuplicateValue)
			}
			return nil
		}, 8, nil},
		{"db error stops the search", func(context.Context, int64) error { return dbDown }, 0, dbDown},
		{"every number taken", func(context.Context, int64) error {
			return fmt.Errorf("%w: sequence_no", ErrorDuplicateValue)
		}, 0, errSequenceExhausted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := claimSequence(context.Background(), counter(5), tc.isFree)
			if !errors.Is(err, tc.wantErr) || got != tc.want {
				t.Fatalf("expected %d (%v), got %d (%v)", tc.want, tc.wantErr, got, err)
			}
		})
	}

	counterDown := func(context.Context) (int64, error) { return 0, dbDown }
	if _, err := claimSequence(context.Background(), counterDown, nil); !errors.Is(err, dbDown) {
		t.Fatalf("counter errors must be returned, got %v", err)
	}
}
