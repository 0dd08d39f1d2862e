package slug

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Tomato Soup", "tomato-soup"},
		{"punctuation runs", "Mac & Cheese!!  (Baked)", "mac-cheese-baked"},
		{"accents folded", "Crème Brûlée", "creme-brulee"},
		{"leading and trailing separators", "  --Pasta--  ", "pasta"},
		{"digits kept", "5 Minute Eggs", "5-minute-eggs"},
		{"underscores collapse", "a__b", "a-b"},
		{"no ascii left", "寿司", Fallback},
		{"empty", "", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugify_Truncates(t *testing.T) {
	title := strings.Repeat("ab ", 200)

	got := Slugify(title)

	assert.LessOrEqual(t, len(got), MaxBaseLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestNext(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		taken []string
		want  string
	}{
		{"free", "pasta", nil, "pasta"},
		{"first duplicate", "pasta", []string{"pasta"}, "pasta-2"},
		{"after highest suffix", "pasta", []string{"pasta", "pasta-2", "pasta-7"}, "pasta-8"},
		{"base freed again", "pasta", []string{"pasta-2"}, "pasta"},
		{"prefix matches ignored", "cake", []string{"cake", "cake-pops", "cake-pops-2"}, "cake-2"},
		{"prefix only", "cake", []string{"cake-pops"}, "cake"},
		{"zero padded suffix ignored", "soup", []string{"soup", "soup-007"}, "soup-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.base, tt.taken))
		})
	}
}

func TestPattern(t *testing.T) {
	re := regexp.MustCompile(Pattern("cake"))

	assert.True(t, re.MatchString("cake"))
	assert.True(t, re.MatchString("cake-12"))
	assert.False(t, re.MatchString("cake-pops"))
	assert.False(t, re.MatchString("cheesecake"))
	assert.False(t, re.MatchString("cake-"))
}
