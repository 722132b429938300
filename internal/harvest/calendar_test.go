package harvest

import (
	"testing"
	"time"
)

func TestGrowingDays(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"tomato", "Tomato", 75},
		{"cherry tomato resolves as tomato", "Cherry Tomato", 75},
		{"cherry", "cherry", 65},
		{"cucumber", "Japanese Cucumber", 55},
		{"eggplant", "EGGPLANT", 85},
		{"corn", "Sweet corn", 90},
		{"carrot", "carrot", 80},
		{"fallback", "Lettuce", DefaultDays},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GrowingDays(tt.in); got != tt.want {
				t.Fatalf("got=%d want=%d", got, tt.want)
			}
		})
	}
}

func TestEstimateTruncatesToDay(t *testing.T) {
	planted := time.Date(2026, 3, 1, 17, 45, 0, 0, time.UTC)
	got := Estimate("tomato", planted)
	want := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got=%s want=%s", got, want)
	}
}
