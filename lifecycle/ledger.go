package lifecycle

import (
	"civiclens-api/models"
)

// CheckUpvote validates an upvote. One vote per principal per issue,
// never on your own report, never while blocked. There is no
// downvote or un-vote.
func CheckUpvote(requester *models.User, issue *models.Issue) error {
	if requester == nil {
		return ErrUnauthenticated
	}
	if requester.IsBlocked {
		return ErrAccountBlocked
	}
	if requester.Email == issue.ReporterEmail {
		return ErrSelfVote
	}
	if issue.HasUpvoted(requester.Email) {
		return ErrAlreadyVoted
	}
	return nil
}
