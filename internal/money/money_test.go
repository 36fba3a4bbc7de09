package money

import "testing"

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input string
		want  int64
		err   error
	}{
		{"10.50", 1050, nil},
		{"0.05", 5, nil},
		{"100", 10000, nil},
		{"-2.5", -250, nil},
		{"+1", 100, nil},
		{".99", 99, nil},
		{"1.234", 0, ErrTooManyDecimals},
		{"abc", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
		{"1.2x", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.input)
		if err != tc.err {
			t.Fatalf("ParseMinor(%q) error = %v, want %v", tc.input, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("ParseMinor(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	if got := FormatMinor(1050); got != "10.50" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatMinor(-5); got != "-0.05" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatMinor(0); got != "0.00" {
		t.Fatalf("unexpected format: %s", got)
	}
}

func TestRupees(t *testing.T) {
	if got := Rupees(1050); got != 10.5 {
		t.Fatalf("unexpected rupees: %f", got)
	}
	if got := Rupees(-250); got != -2.5 {
		t.Fatalf("unexpected rupees: %f", got)
	}
}

func TestFromRupees(t *testing.T) {
	got, err := FromRupees(10.5)
	if err != nil || got != 1050 {
		t.Fatalf("FromRupees(10.5) = %d, %v", got, err)
	}
	// 0.1 is not exactly representable; decoding noise must not reject it.
	got, err = FromRupees(0.1)
	if err != nil || got != 10 {
		t.Fatalf("FromRupees(0.1) = %d, %v", got, err)
	}
	if _, err := FromRupees(0.005); err != ErrTooManyDecimals {
		t.Fatalf("expected ErrTooManyDecimals, got %v", err)
	}
	got, err = FromRupees(-3)
	if err != nil || got != -300 {
		t.Fatalf("FromRupees(-3) = %d, %v", got, err)
	}
}
