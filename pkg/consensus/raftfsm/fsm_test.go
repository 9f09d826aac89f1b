package raftfsm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClusterElectsLeaderAndCommits(t *testing.T) {
	c, err := NewCluster([]string{"n1", "n2", "n3"})
	require.NoError(t, err)
	defer c.Shutdown()

	_, err = c.WaitForLeader(2 * time.Second)
	require.NoError(t, err)

	require.NoError(t, c.Propose(VoteEntry{ProposalID: "p1", AgentID: "n1", Choice: "FOR"}, time.Second))
	require.NoError(t, c.Propose(VoteEntry{ProposalID: "p1", AgentID: "n2", Choice: "AGAINST"}, time.Second))

	entries := c.CommittedEntries("p1")
	require.Len(t, entries, 2)
}

func TestApplyRejectsDuplicateVote(t *testing.T) {
	c, err := NewCluster([]string{"n1", "n2", "n3"})
	require.NoError(t, err)
	defer c.Shutdown()

	_, err = c.WaitForLeader(2 * time.Second)
	require.NoError(t, err)

	require.NoError(t, c.Propose(VoteEntry{ProposalID: "p1", AgentID: "n1", Choice: "FOR"}, time.Second))
	err = c.Propose(VoteEntry{ProposalID: "p1", AgentID: "n1", Choice: "AGAINST"}, time.Second)
	require.Error(t, err)
}
