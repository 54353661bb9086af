package main

import "testing"

func TestFollowCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"AB12CD", "AB12CD", true},
		{" ab12cd\n", "AB12CD", true},
		{"", "", false},
		{"ab12", "", false},
	}

	for _, tt := range tests {
		got, err := followCode(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("%q: err %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.in, got, tt.want)
		}
	}
}
