package lifecycle

import (
	"civiclens-api/models"
)

// This package is the single authority on whether a requested
// status, assignment, edit, or delete on an issue is legal given the
// requester and the issue's current state. It is pure decision
// logic: callers read fresh state, ask here, then commit with a
// conditional update so a concurrent writer surfaces as a conflict.

// CheckTransition validates a status change request. target must
// already be canonical (run NormalizeStatus first). The returned
// error is nil only when the requester may move the issue from its
// current status to target.
func CheckTransition(requester *models.User, issue *models.Issue, target string) error {
	if requester == nil {
		return ErrUnauthenticated
	}
	if requester.IsBlocked {
		return ErrAccountBlocked
	}
	if IsTerminal(issue.Status) {
		return ErrAlreadyTerminal
	}
	if !edgeAllowed(issue.Status, target) {
		return ErrInvalidTransition
	}

	switch requester.Role {
	case models.RoleAdmin:
		// Admins reject spam from pending, and exceptionally from
		// in-progress. Everything else belongs to the assignee.
		if target == StatusRejected {
			return nil
		}
		return ErrForbidden
	case models.RoleStaff:
		if issue.AssignedStaff == nil || issue.AssignedStaff.Email != requester.Email {
			return ErrForbidden
		}
		if issue.Status == StatusInProgress && (target == StatusResolved || target == StatusInProgress) {
			return nil
		}
		return ErrForbidden
	default:
		// Citizens never change status, owner or not. Field edits go
		// through CheckOwnerEdit.
		return ErrForbidden
	}
}

// CheckAssign validates assigning staff to an issue. Admin only,
// pending only, target must be an unblocked staff principal, and an
// existing assignment is a conflict rather than a silent overwrite.
func CheckAssign(requester *models.User, issue *models.Issue, staff *models.User) error {
	if requester == nil {
		return ErrUnauthenticated
	}
	if requester.IsBlocked {
		return ErrAccountBlocked
	}
	if requester.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if issue.AssignedStaff != nil {
		return ErrConflict
	}
	if IsTerminal(issue.Status) {
		return ErrAlreadyTerminal
	}
	if issue.Status != StatusPending {
		return ErrInvalidTransition
	}
	if staff == nil {
		return ErrNotFound
	}
	if staff.Role != models.RoleStaff || staff.IsBlocked {
		return ErrForbidden
	}
	return nil
}

// CheckOwnerEdit validates a field edit (title, description,
// location, category) by the reporting citizen. Legal only while the
// issue is still pending.
func CheckOwnerEdit(requester *models.User, issue *models.Issue) error {
	if requester == nil {
		return ErrUnauthenticated
	}
	if requester.IsBlocked {
		return ErrAccountBlocked
	}
	if requester.Email != issue.ReporterEmail {
		return ErrForbidden
	}
	if issue.Status != StatusPending {
		return ErrForbidden
	}
	return nil
}

// CheckDelete validates deleting an issue. Admins always may; the
// reporting citizen may unless the issue was resolved.
func CheckDelete(requester *models.User, issue *models.Issue) error {
	if requester == nil {
		return ErrUnauthenticated
	}
	if requester.IsBlocked {
		return ErrAccountBlocked
	}
	if requester.Role == models.RoleAdmin {
		return nil
	}
	if requester.Email != issue.ReporterEmail {
		return ErrForbidden
	}
	if issue.Status == StatusResolved {
		return ErrForbidden
	}
	return nil
}
