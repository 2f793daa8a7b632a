// Package domain provides core business rules for the requests bounded context.
package domain

// Request statuses. New is initial; Completed and Cancelled are terminal.
const (
	StatusNew       = "New"
	StatusAssigned  = "Assigned"
	StatusInProgress = "In Progress"
	StatusNeedsInfo = "Needs Information"
	StatusQuoted    = "Quoted"
	StatusApproved  = "Approved"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

var terminalStatuses = map[string]bool{
	StatusCompleted: true,
	StatusCancelled: true,
}

// IsTerminal returns true when no further workflow action may run.
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// IsKnownStatus reports whether the status belongs to the fixed enumeration.
func IsKnownStatus(status string) bool {
	switch status {
	case StatusNew, StatusAssigned, StatusInProgress, StatusNeedsInfo,
		StatusQuoted, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Action is a closed set of workflow actions. Unknown strings never become an
// Action: ParseAction is the only entry point from the wire.
type Action int

const (
	ActionAssign Action = iota + 1
	ActionStartProgress
	ActionNeedsInfo
	ActionCreateQuote
	ActionApprove
	ActionComplete
	ActionCancel
)

var actionNames = map[Action]string{
	ActionAssign:        "assign",
	ActionStartProgress: "startProgress",
	ActionNeedsInfo:     "needsInfo",
	ActionCreateQuote:   "createQuote",
	ActionApprove:       "approve",
	ActionComplete:      "complete",
	ActionCancel:        "cancel",
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
	case ActionAssign:
		return StatusAssigned
	case ActionStartProgress:
		return StatusInProgress
	case ActionNeedsInfo:
		return StatusNeedsInfo
	case ActionCreateQuote:
		return StatusQuoted
	case ActionApprove:
		return StatusApproved
	case ActionComplete:
		return StatusCompleted
	case ActionCancel:
		return StatusCancelled
	}
	return ""
}

// ParseAction maps a wire action name onto the closed action set.
func ParseAction(name string) (Action, bool) {
	action, ok := actionsByName[name]
	return action, ok
}

// NextActionHint suggests the recommended next step for a status.
func NextActionHint(status string) string {
	switch status {
	case StatusNew:
		return "Assign the request to a team member"
	case StatusAssigned:
		return "Start working the request"
	case StatusInProgress:
		return "Gather remaining information or prepare a quote"
	case StatusNeedsInfo:
		return "Follow up with the client for missing information"
	case StatusQuoted:
		return "Await client review of the quote"
	case StatusApproved:
		return "Kick off the project"
	case StatusCompleted:
		return "No further action required"
	case StatusCancelled:
		return "No further action required"
	}
	return "Review the request"
}
