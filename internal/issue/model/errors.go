package model

import "errors"

var (
	// ErrIssueNotFound indicates that the requested issue does not exist.
	ErrIssueNotFound = errors.New("issue not found")
	// ErrInvalidIssueID indicates that the provided issue ID is invalid (e.g., empty).
	ErrInvalidIssueID = errors.New("invalid issue ID")
	// ErrNotAnAssignee indicates that the user confirming a reward is not assigned to the issue.
	ErrNotAnAssignee = errors.New("user is not an assignee of this issue")
	// ErrIssueNotSolved indicates that a reward was confirmed for an issue that is not solved.
	ErrIssueNotSolved = errors.New("issue is not solved")
	// ErrAlreadyRewarded indicates that the assignee has already confirmed receipt.
	ErrAlreadyRewarded = errors.New("assignee is already rewarded")
	// ErrNegativePrice indicates that a negative bounty price was supplied.
	ErrNegativePrice = errors.New("price must be non-negative")
)
