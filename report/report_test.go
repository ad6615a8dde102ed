package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activecm/tunnelhunter/pipeline"
)

func TestNewStampsUniqueRunIDs(t *testing.T) {
	base := pipeline.Report{TotalDomainsAnalyzed: 2}

	a := New(base)
	b := New(base)

	require.NotEmpty(t, a.RunID)
	require.NotEmpty(t, b.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, 2, a.TotalDomainsAnalyzed)
}

func TestNewSetsGeneratedAt(t *testing.T) {
	e := New(pipeline.Report{})
	assert.NotEmpty(t, e.GeneratedAt)
}
