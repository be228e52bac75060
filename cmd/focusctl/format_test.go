package main

import "testing"

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{-5, "0s"},
		{59, "59s"},
		{60, "1m 00s"},
		{90, "1m 30s"},
		{3600, "1h 00m 00s"},
		{3725, "1h 02m 05s"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.seconds); got != tc.want {
			t.Errorf("formatSeconds(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("running"); got != "Running" {
		t.Errorf("titleCase(running) = %q", got)
	}
	if got := titleCase(" academic research "); got != "Academic Research" {
		t.Errorf("titleCase(academic research) = %q", got)
	}
}
