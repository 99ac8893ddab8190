package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-workflow-volume/internal/union"
)

func TestToDOT_RoundTripsThroughCompiler(t *testing.T) {
	s := loadSample(t)

	dot, err := ToDOT(s)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(strings.TrimSpace(dot), "digraph"))
	require.Contains(t, dot, "doublecircle")

	back, err := NewCompiler(WithEntry("unused")).Compile(dot)
	require.NoError(t, err)
	require.Equal(t, s.Entry, back.Entry)
	require.Len(t, back.Workflows, len(s.Workflows))
	for name, w := range s.Workflows {
		require.Equal(t, w.String(), back.Workflows[name].String())
	}

	p, err := NewEngine().Propagate(context.Background(), back)
	require.NoError(t, err)
	require.Equal(t, "167409079868000", union.Aggregate(p.Accepted).String())
}
