package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpvote(t *testing.T) {
	c2 := citizen("c2@mail.com")
	issue := pendingIssue("c1@mail.com")

	require.NoError(t, CheckUpvote(c2, issue))

	// Apply the vote the way the handlers do, then the second
	// attempt must come back AlreadyVoted with the count still
	// matching the set.
	issue.UpvotedBy = append(issue.UpvotedBy, c2.Email)
	require.ErrorIs(t, CheckUpvote(c2, issue), ErrAlreadyVoted)
	require.Equal(t, len(issue.UpvotedBy), issue.Upvotes())
}

func TestSelfVote(t *testing.T) {
	c1 := citizen("c1@mail.com")
	issue := pendingIssue("c1@mail.com")

	require.ErrorIs(t, CheckUpvote(c1, issue), ErrSelfVote)
	require.Empty(t, issue.UpvotedBy)
}

func TestUpvoteBlocked(t *testing.T) {
	c2 := citizen("c2@mail.com")
	c2.IsBlocked = true
	issue := pendingIssue("c1@mail.com")

	require.ErrorIs(t, CheckUpvote(c2, issue), ErrAccountBlocked)
}

func TestUpvoteManyVoters(t *testing.T) {
	issue := pendingIssue("c1@mail.com")

	voters := []string{"a@mail.com", "b@mail.com", "c@mail.com"}
	for _, email := range voters {
		v := citizen(email)
		require.NoError(t, CheckUpvote(v, issue))
		issue.UpvotedBy = append(issue.UpvotedBy, email)
	}

	require.Equal(t, 3, issue.Upvotes())
	for _, email := range voters {
		require.True(t, issue.HasUpvoted(email))
	}
	require.False(t, issue.HasUpvoted("d@mail.com"))
}
