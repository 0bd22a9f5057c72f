package schools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcronym(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Delhi Public School, Kalinga", "DPSK"},
		{"DAV Public School, Unit-8", "DAVPSU"},
		{"The Heritage School, Bhubaneswar", "HSB"},
		{"Kalinga Institute of Social Sciences", "KISS"},
		{"Demonstration Multipurpose School, RIE", "DMSRIE"},
		{"Kendriya Vidyalaya No. 1, Bhubaneswar", "KVNB"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Acronym(tt.name), tt.name)
	}
}

func TestSuggestAcronymFirst(t *testing.T) {
	m := New(Known)

	got := m.Suggest("DPS", Options{})
	require.GreaterOrEqual(t, len(got), 4)
	assert.LessOrEqual(t, len(got), MaxSuggestions)
	assert.Equal(t, []string{
		"Delhi Public School, Kalinga",
		"Delhi Public School, Damanjodi",
		"Delhi Public School, Rourkela",
		"Delhi Public School, Nalco Nagar",
	}, got[:4])
}

func TestSuggestToleratesTypos(t *testing.T) {
	m := New(Known)

	got := m.Suggest("Stewrt School", Options{})
	require.NotEmpty(t, got)
	assert.Equal(t, "Stewart School", got[0])

	got = m.Suggest("kalinga institue", Options{})
	require.NotEmpty(t, got)
	assert.Equal(t, "Kalinga Institute of Social Sciences", got[0])
}

func TestSuggestCapsResults(t *testing.T) {
	m := New(Known)
	assert.Len(t, m.Suggest("School", Options{}), MaxSuggestions)
	assert.Len(t, m.Suggest("School", Options{IncludeInput: true}), MaxSuggestions)
}

func TestSuggestShortAndBlankInput(t *testing.T) {
	m := New(Known)

	assert.Empty(t, m.Suggest("", Options{}))
	assert.Empty(t, m.Suggest("   ", Options{IncludeInput: true}))
	assert.Empty(t, m.Suggest("k", Options{}))
	assert.Equal(t, []string{"k"}, m.Suggest("k", Options{IncludeInput: true}))
}

func TestSuggestIncludeInput(t *testing.T) {
	m := New(Known)

	got := m.Suggest("stewart school", Options{IncludeInput: true})
	require.NotEmpty(t, got)
	assert.Equal(t, "stewart school", got[0])
	assert.NotContains(t, got, "Stewart School")

	got = m.Suggest("New Horizon Academy", Options{IncludeInput: true})
	assert.Equal(t, "New Horizon Academy", got[0])
}

func TestMatchScore(t *testing.T) {
	s, ok := matchScore([]rune("abc"), []rune("abcdef"))
	assert.True(t, ok)
	assert.Zero(t, s)

	s, ok = matchScore([]rune("abc"), []rune("xxabc"))
	assert.True(t, ok)
	assert.InDelta(t, 0.02, s, 1e-9)

	_, ok = matchScore([]rune("zzzz"), []rune("abcdef"))
	assert.False(t, ok)
}
