package id

import (
	"testing"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	if !Valid(id) {
		t.Errorf("expected a valid ID, got %s", id)
	}

	id2 := Generate()
	if id == id2 {
		t.Error("expected different IDs for consecutive calls")
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Generate()
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3f2b8c1e-9a4d-4c57-8e0f-6b1d2a7c9e45", true},
		{"", false},
		{"job-1701432000-a1b2c3d4", false},
		{"urn:uuid:3f2b8c1e-9a4d-4c57-8e0f-6b1d2a7c9e45", false},
		{"{3f2b8c1e-9a4d-4c57-8e0f-6b1d2a7c9e45}", false},
		{"../etc/passwd", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
