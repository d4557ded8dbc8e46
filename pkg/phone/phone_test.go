package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trunk prefix", "0712345678", "254712345678"},
		{"bare leading seven", "712345678", "254712345678"},
		{"already international", "254712345678", "254712345678"},
		{"plus prefix", "+254712345678", "254712345678"},
		{"spaces", "0712 345 678", "254712345678"},
		{"hyphens", "0712-345-678", "254712345678"},
		{"mixed separators", "+254 712-345 678", "254712345678"},
		{"fallback prepends country code", "112345678", "254112345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Normalize("0712345678"); got != "254712345678" {
			t.Fatalf("iteration %d: got %q", i, got)
		}
	}
}
