package entropy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShannon(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		delta    float64
	}{
		{name: "empty string", input: "", expected: 0},
		{name: "single repeated char", input: "aaaa", expected: 0},
		{name: "two equally likely chars", input: "abab", expected: 1, delta: 0.001},
		{name: "four equally likely chars", input: "abcd", expected: 2, delta: 0.001},
		{name: "case insensitive", input: "AaAa", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Shannon(tt.input)
			if tt.delta == 0 {
				assert.Equal(t, tt.expected, got)
			} else {
				assert.InDelta(t, tt.expected, got, tt.delta)
			}
		})
	}
}

func TestDomainStripsDots(t *testing.T) {
	withDots := Domain("a.b.c.d")
	withoutDots := Shannon("abcd")
	assert.Equal(t, withoutDots, withDots)
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "identical", a: "kitten", b: "kitten", expected: 0},
		{name: "classic example", a: "kitten", b: "sitting", expected: 3},
		{name: "empty vs non-empty", a: "", b: "abc", expected: 3},
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "single substitution", a: "abc", b: "abd", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.expected, Levenshtein(tt.b, tt.a), "must be symmetric")
		})
	}
}

func TestLongestCommonSubstring(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected string
	}{
		{name: "empty list", input: nil, expected: ""},
		{name: "single element", input: []string{"onlyone"}, expected: "onlyone"},
		{name: "shared prefix", input: []string{"abcxyz", "abcdef"}, expected: "abc"},
		{name: "no overlap", input: []string{"abc", "xyz"}, expected: ""},
		{name: "three strings", input: []string{"aabbcc", "xbbccy", "zbbccw"}, expected: "bbcc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LongestCommonSubstring(tt.input))
		})
	}
}

func TestDetectEncodingShape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected EncodingShape
	}{
		{
			name:     "base64-like, length divisible by 4",
			input:    "QWJjRA",
			expected: EncodingShape{Base64Like: false}, // length 6, not div by 4
		},
		{
			name:     "base64-like exact",
			input:    "QWJjZA==",
			expected: EncodingShape{Base64Like: true, HasNumbers: false, HasSpecialChars: true}, // '=' is outside [A-Za-z0-9.-]
		},
		{
			name:     "hex-like even length",
			input:    "deadbeef",
			expected: EncodingShape{HexLike: true, Base64Like: true},
		},
		{
			name:     "binary-like",
			input:    "0101010101",
			expected: EncodingShape{BinaryLike: true, HasNumbers: true, Base64Like: false, HexLike: true}, // length 10, not div by 4
		},
		{
			name:     "url encoded",
			input:    "foo%20bar",
			expected: EncodingShape{URLEncoded: true, HasSpecialChars: true},
		},
		{
			name:     "special chars",
			input:    "foo_bar",
			expected: EncodingShape{HasSpecialChars: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEncodingShape(tt.input)
			assert.Equal(t, tt.expected.Base64Like, got.Base64Like, "base64like")
			assert.Equal(t, tt.expected.HexLike, got.HexLike, "hexlike")
			assert.Equal(t, tt.expected.BinaryLike, got.BinaryLike, "binarylike")
			assert.Equal(t, tt.expected.URLEncoded, got.URLEncoded, "urlencoded")
			assert.Equal(t, tt.expected.HasSpecialChars, got.HasSpecialChars, "hasspecialchars")
		})
	}
}

func TestCompressionRatio(t *testing.T) {
	require.Equal(t, 0.0, CompressionRatio(""))

	repetitive := CompressionRatio("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	random := CompressionRatio("x7Qp2ZbT9mWk1LsNfRd4Ay8VhCjUe3Go6Xi0Bw5M")

	assert.Less(t, repetitive, random, "repetitive content should compress better than high-entropy content")
}

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
		delta    float64
	}{
		{name: "identical", a: "example", b: "example", expected: 1},
		{name: "completely different", a: "abc", b: "xyz", expected: 0},
		{name: "case insensitive identical", a: "ExAmPlE", b: "example", expected: 1},
		{name: "one char different", a: "abcdefgh", b: "abcdefgx", expected: 0.875, delta: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimilarityRatio(tt.a, tt.b)
			if tt.delta == 0 {
				assert.Equal(t, tt.expected, got)
			} else {
				assert.InDelta(t, tt.expected, got, tt.delta)
			}
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, math.Nextafter(1, 2))
		})
	}
}
