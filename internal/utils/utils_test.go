package utils

import "testing"

func TestIntInRange(t *testing.T) {
	cases := []struct {
		s           string
		def, lo, hi int
		want        int
	}{
		{"", 20, 1, 100, 20},
		{"42", 20, 1, 100, 42},
		{" 7 ", 20, 1, 100, 7},
		{"0", 20, 1, 100, 1},
		{"-3", 1, 1, 100, 1},
		{"500", 20, 1, 100, 100},
		{"x", 20, 1, 100, 20},
		{"", 0, 1, 100, 1},
		{"999999999999999999999999", 10, 1, 50, 10},
	}
	for _, tc := range cases {
		if got := IntInRange(tc.s, tc.def, tc.lo, tc.hi); got != tc.want {
			t.Errorf("IntInRange(%q, %d, %d, %d) = %d; want %d", tc.s, tc.def, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+998 (90) 123-45-67": "+998901234567",
		"998901234567":        "+998901234567",
		"90 123 45 67":        "+998901234567",
		"+7 912 345 67 89":    "+79123456789",
		"":                    "",
		"abc":                 "",
		"12345":               "",
		"1234567890123456":    "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestFormatSom(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 so'm"},
		{950, "950 so'm"},
		{180000, "180 000 so'm"},
		{1250000, "1 250 000 so'm"},
	}
	for _, tc := range cases {
		if got := FormatSom(tc.in); got != tc.want {
			t.Errorf("FormatSom(%d) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
