package figmadl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TC001: Dash notation is converted to canonical colon notation
func TestCanonicalNodeID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dash notation", "3228-9855", "3228:9855"},
		{"already canonical", "3228:9855", "3228:9855"},
		{"surrounding whitespace", "  3228-9855 ", "3228:9855"},
		{"multiple dashes", "1-2-3", "1:2:3"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalNodeID(tt.input))
		})
	}
}

// TC001: Canonicalization is idempotent
func TestCanonicalNodeID_Idempotent(t *testing.T) {
	once := CanonicalNodeID("3228-9855")
	twice := CanonicalNodeID(once)
	assert.Equal(t, once, twice)
}

// TC002: Display form round-trips back to dash notation
func TestDisplayNodeID(t *testing.T) {
	assert.Equal(t, "3228-9855", DisplayNodeID("3228:9855"))
	assert.Equal(t, "3228-9855", DisplayNodeID(CanonicalNodeID("3228-9855")))
}

// TC003: Batch canonicalization preserves order
func TestCanonicalNodeIDs(t *testing.T) {
	ids := CanonicalNodeIDs([]string{"1-2", "3:4", " 5-6 "})
	assert.Equal(t, []string{"1:2", "3:4", "5:6"}, ids)
}

// TC004: File names replace the colon with an underscore
func TestNodeFileName(t *testing.T) {
	assert.Equal(t, "3228_9855.png", NodeFileName("3228:9855", FormatPNG))
	assert.Equal(t, "3228_9855.svg", NodeFileName("3228:9855", FormatSVG))
	assert.Equal(t, "3228_9855.png", NodeFileName("3228-9855", FormatPNG))
}
