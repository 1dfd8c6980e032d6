package ui

import "testing"

func TestMark(t *testing.T) {
	tests := []struct {
		failed, partial bool
		want            string
	}{
		{false, false, ColorGreen + MarkDone + ColorReset},
		{false, true, ColorYellow + MarkPartial + ColorReset},
		{true, true, ColorRed + MarkFailed + ColorReset},
	}
	for _, tt := range tests {
		if got := Mark(tt.failed, tt.partial); got != tt.want {
			t.Errorf("Mark(%v, %v) = %q, want %q", tt.failed, tt.partial, got, tt.want)
		}
	}
}
