package reconcile

import (
	"fmt"
)

// GroupResult is what EnsureGroup did.
type GroupResult int

const (
	GroupAlreadyExists GroupResult = iota + 1
	GroupCreated
	GroupFailed
)

func (g GroupResult) String() string {
	switch g {
	case GroupAlreadyExists:
		return "AlreadyExists"
	case GroupCreated:
		return "Created"
	case GroupFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// EnsureGroup creates name unless the store already has it. A failure is
// logged at ERROR and returned.
func (r *Reconciler) EnsureGroup(name string) (GroupResult, error) {
	exists, err := r.Store.GroupExists(name)
	if err != nil {
		r.Log.Error("group %s: lookup failed: %v", name, err)
		return GroupFailed, fmt.Errorf("lookup group %s: %w", name, err)
	}
	if exists {
		r.Log.Info("group %s: %s", name, GroupAlreadyExists)
		return GroupAlreadyExists, nil
	}
	if err := r.Store.CreateGroup(name); err != nil {
		r.Log.Error("group %s: create failed: %v", name, err)
		return GroupFailed, fmt.Errorf("create group %s: %w", name, err)
	}
	r.Log.Info("group %s: %s", name, GroupCreated)
	return GroupCreated, nil
}
