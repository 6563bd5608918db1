package models

import (
	"errors"
	"sort"
	"testing"
	"time"
)

func TestFormatTimeRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 7, 14, 30, 45, 123456000, time.UTC)
	encoded := FormatTime(ts)

	decoded, err := ParseTime(encoded)
	if err != nil {
		t.Fatalf("ParseTime failed: %v", err)
	}
	if !decoded.Equal(ts) {
		t.Errorf("round trip changed the value: %v != %v", decoded, ts)
	}
}

func TestFormatTimeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	local := time.Date(2025, 3, 7, 17, 30, 45, 0, loc)
	utc := local.UTC()

	if FormatTime(local) != FormatTime(utc) {
		t.Errorf("local and UTC encodings differ: %q vs %q", FormatTime(local), FormatTime(utc))
	}
}

func TestFormatTimeLexicalOrdering(t *testing.T) {
	// The encoding is fixed-width, so sorting the strings must sort the
	// instants. Includes values whose sub-second part has trailing zeros.
	times := []time.Time{
		time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 999999000, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 100000000, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 1000, time.UTC),
	}

	encoded := make([]string, len(times))
	for i, ts := range times {
		encoded[i] = FormatTime(ts)
	}
	sort.Strings(encoded)

	for i := 1; i < len(encoded); i++ {
		prev, err := ParseTime(encoded[i-1])
		if err != nil {
			t.Fatalf("ParseTime failed: %v", err)
		}
		cur, err := ParseTime(encoded[i])
		if err != nil {
			t.Fatalf("ParseTime failed: %v", err)
		}
		if prev.After(cur) {
			t.Errorf("lexical order violates chronological order: %q > %q", encoded[i-1], encoded[i])
		}
	}
}

func TestIsValidButtonKind(t *testing.T) {
	for _, b := range []ButtonKind{ButtonAbout, ButtonCases, ButtonOther} {
		if !IsValidButtonKind(b) {
			t.Errorf("IsValidButtonKind(%q) = false", b)
		}
	}
	if IsValidButtonKind("stats") {
		t.Error(`IsValidButtonKind("stats") = true`)
	}
	if IsValidButtonKind("") {
		t.Error(`IsValidButtonKind("") = true`)
	}
}

func TestApplicationValidate(t *testing.T) {
	valid := Application{UserID: 1, Phone: "+79161234567"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid application rejected: %v", err)
	}

	noPhone := Application{UserID: 1}
	if err := noPhone.Validate(); !errors.Is(err, ErrEmptyPhone) {
		t.Errorf("expected ErrEmptyPhone, got %v", err)
	}

	badUser := Application{UserID: 0, Phone: "+79161234567"}
	if err := badUser.Validate(); !errors.Is(err, ErrInvalidUserID) {
		t.Errorf("expected ErrInvalidUserID, got %v", err)
	}
}
