package service

import "testing"

func TestParseQuestionKey(t *testing.T) {
	tests := []struct {
		key    string
		wantID uint
		wantOK bool
	}{
		{"question_42", 42, true},
		{"question_0", 0, true},
		{"question_", 0, false},
		{"question_abc", 0, false},
		{"match_1_0", 0, false},
		{"something_else", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			id, ok := parseQuestionKey(tt.key)
			if id != tt.wantID || ok != tt.wantOK {
				t.Fatalf("parseQuestionKey(%q) = (%d, %v), want (%d, %v)",
					tt.key, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestParseMatchKey(t *testing.T) {
	tests := []struct {
		key     string
		wantQID uint
		wantIdx int
		wantOK  bool
	}{
		{"match_7_0", 7, 0, true},
		{"match_7_12", 7, 12, true},
		{"match_7_", 0, 0, false},
		{"match_7", 0, 0, false},
		{"match_x_1", 0, 0, false},
		{"match_7_-1", 0, 0, false},
		{"question_7", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			qid, idx, ok := parseMatchKey(tt.key)
			if qid != tt.wantQID || idx != tt.wantIdx || ok != tt.wantOK {
				t.Fatalf("parseMatchKey(%q) = (%d, %d, %v), want (%d, %d, %v)",
					tt.key, qid, idx, ok, tt.wantQID, tt.wantIdx, tt.wantOK)
			}
		})
	}
}

func TestParseChoiceIDs(t *testing.T) {
	got := parseChoiceIDs([]string{"1", " 2 ", "banana", "", "3"})
	want := []uint{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Virtual Private Network", "virtual private network"},
		{"  virtual   PRIVATE\tnetwork ", "virtual private network"},
		{"", ""},
		{"  \t ", ""},
	}
	for _, tt := range tests {
		if got := normalizeText(tt.in); got != tt.want {
			t.Fatalf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
