package core

import "testing"

func TestBandFor(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  Band
	}{
		{name: "unspent", ratio: 0, want: BandGreen},
		{name: "half used", ratio: 0.5, want: BandGreen},
		{name: "just under threshold", ratio: 0.7499, want: BandGreen},
		{name: "exactly three quarters", ratio: 0.75, want: BandYellow},
		{name: "nearly exhausted", ratio: 0.99, want: BandYellow},
		{name: "exactly at limit", ratio: 1.0, want: BandYellow},
		{name: "just over limit", ratio: 1.001, want: BandRed},
		{name: "far over limit", ratio: 2.5, want: BandRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BandFor(tt.ratio); got != tt.want {
				t.Errorf("BandFor(%v) = %q, want %q", tt.ratio, got, tt.want)
			}
		})
	}
}
