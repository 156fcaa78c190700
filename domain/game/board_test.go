package game

import "testing"

func TestCheckWin(t *testing.T) {
	tests := []struct {
		name       string
		cells      []string
		wantTriple [3]int
		wantWin    bool
	}{
		{
			name:       "top row",
			cells:      []string{"X", "X", "X", "", "", "", "", "", ""},
			wantTriple: [3]int{0, 1, 2},
			wantWin:    true,
		},
		{
			name:       "middle column",
			cells:      []string{"", "O", "", "", "O", "", "", "O", ""},
			wantTriple: [3]int{1, 4, 7},
			wantWin:    true,
		},
		{
			name:       "main diagonal",
			cells:      []string{"X", "O", "", "O", "X", "", "", "", "X"},
			wantTriple: [3]int{0, 4, 8},
			wantWin:    true,
		},
		{
			name:       "anti diagonal",
			cells:      []string{"", "", "O", "", "O", "", "O", "X", "X"},
			wantTriple: [3]int{2, 4, 6},
			wantWin:    true,
		},
		{
			name:    "empty board",
			cells:   []string{"", "", "", "", "", "", "", "", ""},
			wantWin: false,
		},
		{
			name:    "full board without a triple",
			cells:   []string{"X", "O", "X", "X", "O", "O", "O", "X", "X"},
			wantWin: false,
		},
		{
			name:    "two in a row is not a win",
			cells:   []string{"X", "X", "", "", "", "", "", "", ""},
			wantWin: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triple, won := Board(tt.cells).CheckWin()
			if won != tt.wantWin {
				t.Fatalf("CheckWin() won = %v, want %v", won, tt.wantWin)
			}
			if won && triple != tt.wantTriple {
				t.Errorf("CheckWin() triple = %v, want %v", triple, tt.wantTriple)
			}
		})
	}
}

func TestBoardReset(t *testing.T) {
	b := Board{"X", "O", "X", "", "", "", "", "", "O"}
	b.Reset()
	for i, cell := range b {
		if cell != "" {
			t.Errorf("cell %d = %q after Reset, want empty", i, cell)
		}
	}
	if len(b) != BoardSize {
		t.Errorf("board length = %d after Reset, want %d", len(b), BoardSize)
	}
}
