package board

import "testing"

func TestCardDropIndex(t *testing.T) {
	mids := []float64{10, 30, 50}

	tests := []struct {
		name    string
		pointer float64
		want    int
	}{
		{name: "above everything", pointer: 0, want: 0},
		{name: "between first and second", pointer: 20, want: 1},
		{name: "exactly on a midpoint goes after it", pointer: 30, want: 2},
		{name: "below everything appends", pointer: 99, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CardDropIndex(mids, tt.pointer); got != tt.want {
				t.Errorf("CardDropIndex(%v) = %d, want %d", tt.pointer, got, tt.want)
			}
		})
	}

	if got := CardDropIndex(nil, 5); got != 0 {
		t.Errorf("empty column: got %d, want 0", got)
	}
}

func TestColumnDropIndex(t *testing.T) {
	mids := []float64{100, 300, 500, 700}

	tests := []struct {
		name    string
		pointer float64
		from    int
		want    int
	}{
		{name: "move left", pointer: 50, from: 2, want: 0},
		{name: "move right shifts by one", pointer: 600, from: 0, want: 2},
		{name: "drop past the end from the left", pointer: 900, from: 1, want: 3},
		{name: "drop onto itself", pointer: 250, from: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColumnDropIndex(mids, tt.pointer, tt.from); got != tt.want {
				t.Errorf("ColumnDropIndex(%v, from %d) = %d, want %d", tt.pointer, tt.from, got, tt.want)
			}
		})
	}
}
