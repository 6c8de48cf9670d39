package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzerTokens(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultAnalyzerConfig())
	require.NoError(t, err)
	defer analyzer.Close()

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "Stemming",
			text:     "Running runs",
			expected: []string{"run", "run"},
		},
		{
			name:     "Stop words and punctuation",
			text:     "The connections, and the network!",
			expected: []string{"connect", "network"},
		},
		{
			name:     "Numbers are kept",
			text:     "Windows 95",
			expected: []string{"window", "95"},
		},
		{
			name:     "Empty text",
			text:     "  ...  ",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, analyzer.Tokens(tt.text))
		})
	}
}

func TestAnalyzerWithoutStemming(t *testing.T) {
	analyzer, err := NewAnalyzer(AnalyzerConfig{MinTermLength: 3})
	require.NoError(t, err)
	defer analyzer.Close()

	assert.Equal(t, []string{"the", "running", "dog"}, analyzer.Tokens("The running dog is OK"))
}

func TestTermFrequencies(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultAnalyzerConfig())
	require.NoError(t, err)
	defer analyzer.Close()

	tf := analyzer.TermFrequencies("graphics card, graphics driver")
	assert.Equal(t, map[string]int{"graphic": 2, "card": 1, "driver": 1}, tf)
}
