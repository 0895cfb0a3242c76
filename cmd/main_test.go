package main

import "testing"

func TestStdinRequested(t *testing.T) {
	cases := []struct {
		roots   []string
		want    bool
		wantErr bool
	}{
		{nil, false, false},
		{[]string{"."}, false, false},
		{[]string{"-"}, true, false},
		{[]string{"src", "-"}, false, true},
		{[]string{"-", "-"}, false, true},
	}
	for _, tc := range cases {
		got, err := stdinRequested(tc.roots)
		if (err != nil) != tc.wantErr {
			t.Fatalf("stdinRequested(%v) error = %v, wantErr %v", tc.roots, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("stdinRequested(%v) = %v, want %v", tc.roots, got, tc.want)
		}
	}
}
