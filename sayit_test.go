package sayit_test

import (
	"testing"

	"github.com/middlemost/sayit"
)

// Ensure local hostnames are detected.
func TestIsLocal(t *testing.T) {
	for _, tt := range []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"0.0.0.0", true},
		{"say.example.com", false},
		{"203.0.113.7", false},
	} {
		if got := sayit.IsLocal(tt.host); got != tt.want {
			t.Errorf("IsLocal(%q)=%v, want %v", tt.host, got, tt.want)
		}
	}
}
