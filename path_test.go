package thoughtbot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopBranch() *Branch {
	return NewBranch(Regex(`.`), func(context.Context, *State) error { return nil })
}

func TestPathAddPreservesInsertionOrder(t *testing.T) {
	p := NewPath()
	b1, b2, b3 := noopBranch(), noopBranch(), noopBranch()
	p.Add(StageListen, b1)
	p.Add(StageListen, b2)
	p.Add(StageListen, b3)

	got := p.Branches(StageListen)
	require.Len(t, got, 3)
	assert.Same(t, b1, got[0])
	assert.Same(t, b2, got[1])
	assert.Same(t, b3, got[2])
}

func TestPathHasBranches(t *testing.T) {
	p := NewPath()
	assert.False(t, p.HasBranches(StageAct))
	p.Add(StageAct, noopBranch())
	assert.True(t, p.HasBranches(StageAct))
}

func TestPathForcedCollapsesToForceMarkedOnly(t *testing.T) {
	p := NewPath()
	plain := noopBranch()
	forced := noopBranch().Forced()
	p.Add(StageUnderstand, plain)
	p.Add(StageUnderstand, forced)

	p.Forced(StageUnderstand)

	got := p.Branches(StageUnderstand)
	require.Len(t, got, 1)
	assert.Same(t, forced, got[0])
}

func TestPathSameIDLastWriterWins(t *testing.T) {
	p := NewPath()
	b1 := noopBranch()
	b2 := noopBranch()
	b2.ID = b1.ID // simulate a re-registration under the same id

	p.Add(StageServe, b1)
	p.Add(StageServe, b2)

	got := p.Branches(StageServe)
	require.Len(t, got, 1)
	assert.Same(t, b2, got[0])
}
