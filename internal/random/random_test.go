package random

import (
	"strings"
	"testing"
)

func TestLetters(t *testing.T) {
	tests := []struct {
		name    string
		length  uint
		wantErr bool
	}{
		{
			name:    "zero length",
			length:  0,
			wantErr: false,
		},
		{
			name:    "20 length",
			length:  20,
			wantErr: false,
		},
		{
			name:    "64 length",
			length:  64,
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Letters(tt.length)
			if (err != nil) != tt.wantErr {
				t.Errorf("Letters() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if uint(len(got)) != tt.length {
				t.Errorf("Letters() got length = %v, want length %v", len(got), tt.length)
			}
			for _, r := range got {
				if !strings.ContainsRune(string(allowedLetters), r) {
					t.Errorf("Letters() returned unexpected rune %q", r)
				}
			}
		})
	}
}
