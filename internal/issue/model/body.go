package model

import "time"

// IssueBody is the canonical partial-update shape consumed by the upsert
// layer. Nil pointer and nil slice fields are left untouched on update;
// IssueID is the stable external identity and is always required.
type IssueBody struct {
	IssueID       string
	Number        *int
	Title         *string
	URL           *string
	Description   *string
	State         *string
	Solved        *bool
	Rewarded      *bool
	Price         *int
	Labels        []string
	Assignees     []Assignee
	Managers      []UserRef
	Owner         *UserRef
	Repository    *RepositoryRef
	Thread        *Thread
	Collaborators []string
	Private       *bool
	CreatedAt     *time.Time
	SolvedAt      *time.Time
}

// NewIssue builds a full record from a body, applying creation defaults for
// everything the body does not carry. Safe to call with a minimal body (the
// out-of-order delivery case: an "assigned" event arriving before "opened").
func NewIssue(b *IssueBody) *Issue {
	issue := &Issue{
		IssueID:   b.IssueID,
		State:     "open",
		Labels:    []string{},
		Assignees: []Assignee{},
		Managers:  []UserRef{},
	}
	issue.apply(b, nil)
	return issue
}

// Apply merges the body into an existing record. Assignee lists are replaced
// by the incoming set, but reward state and assignment timestamps of
// already-known assignees survive the replace; managers are a union keyed by
// login. Both rules keep repeated delivery and recovery sweeps no-ops.
func (i *Issue) Apply(b *IssueBody) {
	prev := make([]Assignee, len(i.Assignees))
	copy(prev, i.Assignees)
	i.apply(b, prev)
}

func (i *Issue) apply(b *IssueBody, prevAssignees []Assignee) {
	if b.Number != nil {
		i.Number = *b.Number
	}
	if b.Title != nil {
		i.Title = *b.Title
	}
	if b.URL != nil {
		i.URL = *b.URL
	}
	if b.Description != nil {
		i.Description = *b.Description
	}
	if b.State != nil {
		i.State = *b.State
	}
	if b.Solved != nil {
		i.Solved = *b.Solved
	}
	if b.Rewarded != nil {
		i.Rewarded = *b.Rewarded
	}
	if b.Price != nil {
		i.Price = *b.Price
	}
	if b.Labels != nil {
		i.Labels = b.Labels
	}
	if b.Assignees != nil {
		i.Assignees = mergeAssignees(prevAssignees, b.Assignees)
	}
	if b.Managers != nil {
		i.Managers = mergeManagers(i.Managers, b.Managers)
	}
	if b.Owner != nil {
		i.OwnerLogin = b.Owner.Login
		i.OwnerAvatarURL = b.Owner.AvatarURL
	}
	if b.Repository != nil {
		i.RepositoryID = b.Repository.ID
		i.RepositoryName = b.Repository.Name
	}
	if b.Thread != nil {
		i.Thread = b.Thread
	}
	if b.Collaborators != nil {
		i.Collaborators = b.Collaborators
	}
	if b.Private != nil {
		i.Private = *b.Private
	}
	if b.CreatedAt != nil {
		i.CreatedAt = *b.CreatedAt
	}
	if b.SolvedAt != nil {
		i.SolvedAt = b.SolvedAt
	}
}

// mergeAssignees replaces the assignee set with incoming, deduplicated by
// login, carrying over reward state and assignment time for logins that were
// already present.
func mergeAssignees(existing, incoming []Assignee) []Assignee {
	byLogin := make(map[string]Assignee, len(existing))
	for _, a := range existing {
		byLogin[a.Login] = a
	}

	merged := make([]Assignee, 0, len(incoming))
	seen := make(map[string]bool, len(incoming))
	for _, a := range incoming {
		if a.Login == "" || seen[a.Login] {
			continue
		}
		seen[a.Login] = true
		if known, ok := byLogin[a.Login]; ok {
			// Reward confirmation is monotonic: a projection that defaults
			// rewarded to false must not undo a confirmed reward.
			a.Rewarded = a.Rewarded || known.Rewarded
			if !known.AssignedAt.IsZero() {
				a.AssignedAt = known.AssignedAt
			}
		}
		merged = append(merged, a)
	}
	return merged
}

// mergeManagers unions incoming managers into the existing list, keyed by
// login. Managers are never dropped by a refresh: a price-setter appended by
// the command processor must survive subsequent issue-change upserts.
func mergeManagers(existing, incoming []UserRef) []UserRef {
	merged := make([]UserRef, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	for _, m := range existing {
		if m.Login == "" {
			continue
		}
		if _, ok := index[m.Login]; ok {
			continue
		}
		index[m.Login] = len(merged)
		merged = append(merged, m)
	}
	for _, m := range incoming {
		if m.Login == "" {
			continue
		}
		if at, ok := index[m.Login]; ok {
			if m.AvatarURL != "" {
				merged[at].AvatarURL = m.AvatarURL
			}
			continue
		}
		index[m.Login] = len(merged)
		merged = append(merged, m)
	}
	return merged
}
