package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"untouched", "Swiggy Order #42", "Swiggy Order #42"},
		{"invalid utf8", "Caf\xe9 Coffee", "Caf Coffee"},
		{"nul and controls", "Uber\x00 Trip\x07", "Uber Trip"},
		{"whitespace runs", "  Amazon \t\n Pay  ", "Amazon Pay"},
		{"non-breaking space", "Big\u00a0Basket", "Big Basket"},
		{"rupee kept", "₹ 499 Jio", "₹ 499 Jio"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanText(tt.in))
		})
	}
}
