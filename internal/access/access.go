// Package access resolves a session's role into capability decisions.
// Authorize is a pure predicate over (role, ownership, operation); it gates
// every issue operation before the service layer touches the store.
package access

import "github.com/shreyansh2708-git/samadhan/internal/domain"

// Operation identifies a capability-gated action.
type Operation string

const (
	OpCreateIssue       Operation = "issue:create"
	OpReadIssue         Operation = "issue:read"
	OpListIssues        Operation = "issue:list"
	OpUpdateIssue       Operation = "issue:update"
	OpTransitionIssue   Operation = "issue:transition"
	OpReopenIssue       Operation = "issue:reopen"
	OpReprioritizeIssue Operation = "issue:reprioritize"
	OpReassignIssue     Operation = "issue:reassign"
	OpReadHistory       Operation = "issue:history"
	OpViewStats         Operation = "issue:stats"
	OpReadProfile       Operation = "profile:read"
	OpManageConfig      Operation = "config:manage"
)

// DenyReason explains a rejected authorization.
type DenyReason string

const (
	ReasonNotAuthenticated DenyReason = "not-authenticated"
	ReasonNotOwner         DenyReason = "not-owner"
	ReasonInsufficientRole DenyReason = "insufficient-role"
)

// Session identifies an authenticated caller.
type Session struct {
	UserID string
	Role   domain.Role
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.UserID != "" && s.Role.Valid()
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Authorize resolves whether the session may perform the operation. For
// issue-scoped operations the target carries ownership; it may be nil for
// collection-level operations.
func Authorize(session Session, op Operation, target *domain.Issue) Decision {
	if !session.Authenticated() {
		return deny(ReasonNotAuthenticated)
	}
	if session.Role == domain.RoleAdmin {
		return allow()
	}

	// Citizen capability set: create and read/update own issues, read own
	// profile. Everything else is an admin operation.
	switch op {
	case OpCreateIssue, OpListIssues, OpReadProfile:
		return allow()
	case OpReadIssue, OpUpdateIssue, OpReadHistory:
		if target == nil || target.Reporter != session.UserID {
			return deny(ReasonNotOwner)
		}
		return allow()
	default:
		return deny(ReasonInsufficientRole)
	}
}
