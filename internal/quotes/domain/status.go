// Package domain provides core business rules for the quotes bounded context.
package domain

// Quote statuses. Draft is initial; Approved, Rejected, Expired, and
// Cancelled are terminal.
const (
	StatusDraft            = "Draft"
	StatusPendingReview    = "Pending Review"
	StatusSent             = "Sent"
	StatusViewed           = "Viewed"
	StatusUnderNegotiation = "Under Negotiation"
	StatusApproved         = "Approved"
	StatusRejected         = "Rejected"
	StatusExpired          = "Expired"
	StatusCancelled        = "Cancelled"
)

var terminalStatuses = map[string]bool{
	StatusApproved:  true,
	StatusRejected:  true,
	StatusExpired:   true,
	StatusCancelled: true,
}

// IsTerminal returns true when no further workflow action may run.
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// Action is the closed set of quote workflow actions.
type Action int

const (
	ActionSubmitForReview Action = iota + 1
	ActionApprove
	ActionSend
	ActionMarkViewed
	ActionNegotiate
	ActionFinalizeTerms
	ActionReject
	ActionExpire
	ActionCancel
)

var actionNames = map[Action]string{
	ActionSubmitForReview: "submitForReview",
	ActionApprove:         "approve",
	ActionSend:            "send",
	ActionMarkViewed:      "markViewed",
	ActionNegotiate:       "negotiate",
	ActionFinalizeTerms:   "finalizeTerms",
	ActionReject:          "reject",
	ActionExpire:          "expire",
	ActionCancel:          "cancel",
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

// TargetStatus returns the status this action transitions into. Approving a
// quote under review sends it; final approval is finalizeTerms.
func (a Action) TargetStatus() string {
	switch a {
	case ActionSubmitForReview:
		return StatusPendingReview
	case ActionApprove, ActionSend:
		return StatusSent
	case ActionMarkViewed:
		return StatusViewed
	case ActionNegotiate:
		return StatusUnderNegotiation
	case ActionFinalizeTerms:
		return StatusApproved
	case ActionReject:
		return StatusRejected
	case ActionExpire:
		return StatusExpired
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
