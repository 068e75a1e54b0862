package service

import (
	"strings"
	"testing"
)

func TestValidateAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answers map[int64]string
		wantErr bool
	}{
		{"nil map", nil, true},
		{"empty map", map[int64]string{}, false},
		{"valid", map[int64]string{1: "an answer", 2: ""}, false},
		{"zero question id", map[int64]string{0: "x"}, true},
		{"negative question id", map[int64]string{-5: "x"}, true},
		{"at length cap", map[int64]string{1: strings.Repeat("a", maxAnswerLen)}, false},
		{"over length cap", map[int64]string{1: strings.Repeat("a", maxAnswerLen+1)}, true},
		{"multibyte text", map[int64]string{1: "répondu – 答案"}, false},
		{"invalid utf-8", map[int64]string{1: "\xff\xfe broken"}, true},
		{"truncated rune", map[int64]string{1: "ok so far \xe2\x82"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAnswers(tt.answers)
			if tt.wantErr && err != ErrMalformedAnswers {
				t.Errorf("validateAnswers = %v, want ErrMalformedAnswers", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validateAnswers = %v, want nil", err)
			}
		})
	}
}
