package analyzer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activecm/tunnelhunter/model"
)

func TestSetAnalyzerHighCardinalityRatio(t *testing.T) {
	d := model.NewSuspiciousDomain("card.example")
	now := time.Now()
	for i := 0; i < 11; i++ {
		q := model.NewDNSQuery(fmt.Sprintf("s%d.card.example", i), now.Add(time.Duration(i)*time.Second), "10.0.0.1", "", "A", nil)
		require.NoError(t, d.AddQuery(q))
	}

	a := NewSetAnalyzer(2)
	a.Analyze(d)

	found := false
	for _, f := range d.Flags(model.FlagSet) {
		if len(f) >= len("high_cardinality_ratio:") && f[:len("high_cardinality_ratio:")] == "high_cardinality_ratio:" {
			found = true
		}
	}
	assert.True(t, found)
	// all 11 subdomains occur once, so single_use_subdomains_ratio (-10)
	// fires alongside high_cardinality_ratio (-10)
	assert.Equal(t, -20.0, d.Scores["set"])
}

func TestSetAnalyzerSingleUseSubdomainsRatio(t *testing.T) {
	d := model.NewSuspiciousDomain("single.example")
	now := time.Now()
	for i := 0; i < 6; i++ {
		q := model.NewDNSQuery(fmt.Sprintf("u%d.single.example", i), now.Add(time.Duration(i)*time.Second), "10.0.0.1", "", "A", nil)
		require.NoError(t, d.AddQuery(q))
	}

	a := NewSetAnalyzer(2)
	a.Analyze(d)

	found := false
	for _, f := range d.Flags(model.FlagSet) {
		if len(f) >= len("single_use_subdomains_ratio:") && f[:len("single_use_subdomains_ratio:")] == "single_use_subdomains_ratio:" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSetAnalyzerLongLabelsAvg(t *testing.T) {
	d := model.NewSuspiciousDomain("long.example")
	now := time.Now()
	longLabel := "abcdefghijklmnopqrstuvwxyzabcdef" // 32 chars
	q := model.NewDNSQuery(longLabel+".long.example", now, "10.0.0.1", "", "A", nil)
	require.NoError(t, d.AddQuery(q))
	q2 := model.NewDNSQuery(longLabel+"x.long.example", now.Add(time.Second), "10.0.0.1", "", "A", nil)
	require.NoError(t, d.AddQuery(q2))

	a := NewSetAnalyzer(2)
	a.Analyze(d)

	found := false
	for _, f := range d.Flags(model.FlagSet) {
		if len(f) >= len("long_labels_avg:") && f[:len("long_labels_avg:")] == "long_labels_avg:" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSetAnalyzerNearDuplicateSubdomains(t *testing.T) {
	d := model.NewSuspiciousDomain("dup.example")
	now := time.Now()
	// Each pair below shares a long common prefix (SimilarityRatio > 0.8)
	// but differs in all three trailing characters (Levenshtein distance 3,
	// above maxEditDistance), so it should count as a near-duplicate pair
	// rather than the close-typo case StringAnalyzer already covers.
	prefix := strings.Repeat("xyz", 10)
	subdomains := []string{
		prefix + "abc",
		prefix + "def",
		prefix + "ghi",
	}
	for i, sub := range subdomains {
		q := model.NewDNSQuery(sub+".dup.example", now.Add(time.Duration(i)*time.Second), "10.0.0.1", "", "A", nil)
		require.NoError(t, d.AddQuery(q))
	}

	a := NewSetAnalyzer(2)
	a.Analyze(d)

	found := false
	for _, f := range d.Flags(model.FlagSet) {
		if strings.HasPrefix(f, "near_duplicate_subdomains:") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestIsConsonantHeavy(t *testing.T) {
	assert.True(t, isConsonantHeavy("bcdfg"))
	assert.False(t, isConsonantHeavy("aeiou"))
	assert.False(t, isConsonantHeavy("123"))
}

func TestSetAnalyzerNoFlagsOnBenignDomain(t *testing.T) {
	d := model.NewSuspiciousDomain("example.com")
	now := time.Now()
	q1 := model.NewDNSQuery("www.example.com", now, "10.0.0.1", "", "A", nil)
	q2 := model.NewDNSQuery("mail.example.com", now.Add(time.Second), "10.0.0.1", "", "A", nil)
	require.NoError(t, d.AddQuery(q1))
	require.NoError(t, d.AddQuery(q2))

	a := NewSetAnalyzer(2)
	a.Analyze(d)
	assert.Equal(t, 0.0, d.Scores["set"])
}
