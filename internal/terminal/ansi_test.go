package terminal

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\x1b[31mred\x1b[0m", "red"},
		{"\x1b[1;32;40mI (123) boot: ok\x1b[0m", "I (123) boot: ok"},
		{"\x1b]0;title\x07after", "after"},
		{"\x1b]2;title\x1b\\after", "after"},
		{"\x1b7saved\x1b8", "saved"},
		{"trailing\x1b", "trailing"},
		{"cut\x1b[12", "cut"},
	}
	for _, tt := range tests {
		if got := string(StripANSI([]byte(tt.in))); got != tt.want {
			t.Errorf("StripANSI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
