package utils

import (
	"testing"
	"time"
)

func TestFormatINR(t *testing.T) {
	cases := map[float64]string{
		0:         "Rs. 0.00",
		999:       "Rs. 999.00",
		1500.5:    "Rs. 1,500.50",
		123456.75: "Rs. 1,23,456.75",
		-2500:     "-Rs. 2,500.00",
	}
	for in, want := range cases {
		if got := FormatINR(in); got != want {
			t.Errorf("FormatINR(%v) = %q want %q", in, got, want)
		}
	}
}

func TestToPaiseRounds(t *testing.T) {
	if got := ToPaise(1234.56); got != 123456 {
		t.Fatalf("ToPaise = %d", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(2, 3); got != 66.67 {
		t.Fatalf("Percent = %v", got)
	}
	if got := Percent(5, 0); got != 0 {
		t.Fatalf("Percent with zero whole = %v", got)
	}
}

func TestSlugify(t *testing.T) {
	if got := Slugify("  Spiti Valley: Winter Expedition! "); got != "spiti-valley-winter-expedition" {
		t.Fatalf("Slugify = %q", got)
	}
}

func TestDedup(t *testing.T) {
	out, dup := Dedup([]string{"A1", "A2", "A1"})
	if !dup || len(out) != 2 {
		t.Fatalf("Dedup = %v dup=%v", out, dup)
	}
}

func TestMonthStart(t *testing.T) {
	ts := time.Date(2024, 3, 17, 10, 30, 0, 0, time.UTC)
	if got := MonthStart(ts); !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("MonthStart = %v", got)
	}
}
