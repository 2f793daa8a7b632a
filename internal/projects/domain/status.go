// Package domain provides core business rules for the projects bounded
// context.
package domain

// Project statuses. Planning is initial.
const (
	StatusPlanning    = "Planning"
	StatusApproved    = "Approved"
	StatusInProgress  = "In Progress"
	StatusOnHold      = "On Hold"
	StatusUnderReview = "Under Review"
	StatusCompleted   = "Completed"
	StatusCancelled   = "Cancelled"
	StatusArchived    = "Archived"
)

// IsClosed reports whether execution-related actions are blocked. Archiving
// is still permitted from a closed status.
func IsClosed(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// Action is the closed set of project workflow actions.
type Action int

const (
	ActionApprove Action = iota + 1
	ActionStartExecution
	ActionPutOnHold
	ActionResume
	ActionSubmitForReview
	ActionComplete
	ActionCancel
	ActionArchive
)

var actionNames = map[Action]string{
	ActionApprove:         "approve",
	ActionStartExecution:  "startExecution",
	ActionPutOnHold:       "putOnHold",
	ActionResume:          "resume",
	ActionSubmitForReview: "submitForReview",
	ActionComplete:        "complete",
	ActionCancel:          "cancel",
	ActionArchive:         "archive",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for action, name := range actionNames {
		m[name] = action
	}
	return m
}()

// String returns the wire name of the action.
func (a Action) String() string {
	return actionNames[a]
}

// TargetStatus returns the status this action transitions into.
func (a Action) TargetStatus() string {
	switch a {
	case ActionApprove:
		return StatusApproved
	case ActionStartExecution, ActionResume:
		return StatusInProgress
	case ActionPutOnHold:
		return StatusOnHold
	case ActionSubmitForReview:
		return StatusUnderReview
	case ActionComplete:
		return StatusCompleted
	case ActionCancel:
		return StatusCancelled
	case ActionArchive:
		return StatusArchived
	}
	return ""
}

// ParseAction maps a wire action name onto the closed action set.
func ParseAction(name string) (Action, bool) {
	action, ok := actionsByName[name]
	return action, ok
}
