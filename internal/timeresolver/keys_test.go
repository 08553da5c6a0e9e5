package timeresolver

import "testing"

func TestTimeToMinutes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{in: "00:00", want: 0, ok: true},
		{in: "23:59", want: 1439, ok: true},
		{in: " 09:30 ", want: 570, ok: true},
		{in: "9:30"},
		{in: "24:00"},
		{in: "12:60"},
		{in: "12-30"},
		{in: ""},
	}

	for _, tc := range cases {
		got, ok := TimeToMinutes(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%q: expected (%d, %v), got (%d, %v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

func TestIsValidTimeRange(t *testing.T) {
	t.Parallel()

	if !IsValidTimeRange("10:00", "") {
		t.Fatalf("expected empty end to be valid")
	}
	if !IsValidTimeRange("10:00", "10:00") {
		t.Fatalf("expected equal times to be valid")
	}
	if IsValidTimeRange("10:00", "09:59") {
		t.Fatalf("expected earlier end to be invalid")
	}
	if IsValidTimeRange("", "09:59") {
		t.Fatalf("expected missing start with an end to be invalid")
	}
}

func TestAddDays(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"2026-01-31": "2026-02-01",
		"2026-12-31": "2027-01-01",
		"2028-02-28": "2028-02-29",
	}
	for in, want := range cases {
		got, ok := AddDays(in, 1)
		if !ok || got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
	if _, ok := AddDays("2026-13-01", 1); ok {
		t.Fatalf("expected invalid month to fail")
	}
}

func TestParseModeAndSource(t *testing.T) {
	t.Parallel()

	if ParseMode("timezone") != ModeTimezone || ParseMode("local") != ModeLocal || ParseMode("utc") != "" {
		t.Fatalf("unexpected mode parsing")
	}
	if ParseSource("deviceFallback") != SourceDeviceFallback || ParseSource("device") != "" {
		t.Fatalf("unexpected source parsing")
	}
}
