package model

import "testing"

func TestListOptions_Clamp(t *testing.T) {
	tests := []struct {
		name       string
		input      ListOptions
		wantLimit  int
		wantOffset int
	}{
		{"defaults", ListOptions{Limit: 0, Offset: 0}, 20, 0},
		{"negative limit", ListOptions{Limit: -5, Offset: 0}, 20, 0},
		{"over max", ListOptions{Limit: 2000, Offset: 0}, 500, 0},
		{"negative offset", ListOptions{Limit: 10, Offset: -3}, 10, 0},
		{"valid", ListOptions{Limit: 50, Offset: 10}, 50, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.input
			opts.Clamp()
			if opts.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", opts.Limit, tt.wantLimit)
			}
			if opts.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", opts.Offset, tt.wantOffset)
			}
		})
	}
}

func TestParseEventKind(t *testing.T) {
	tests := []struct {
		in     string
		want   EventKind
		wantOK bool
	}{
		{"", "", true},
		{"probe", EventKindProbe, true},
		{"login", EventKindLogin, true},
		{"notify", EventKindNotify, true},
		{"PROBE", "PROBE", false},
		{"bogus", "bogus", false},
	}
	for _, tt := range tests {
		got, ok := ParseEventKind(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseEventKind(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
