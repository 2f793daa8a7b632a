// Package domain provides the closed value sets for the case management
// sub-entities attached to a request.
package domain

// Note types.
const (
	NoteInternal            = "internal"
	NoteClientCommunication = "client-communication"
	NoteTechnical           = "technical"
	NoteFollowUp            = "follow-up"
)

// ValidNoteType reports whether the wire value names a known note type.
func ValidNoteType(t string) bool {
	switch t {
	case NoteInternal, NoteClientCommunication, NoteTechnical, NoteFollowUp:
		return true
	}
	return false
}

// Assignment types. A primary assignment mirrors onto the request's top-level
// assignee fields.
const (
	AssignmentPrimary   = "primary"
	AssignmentSecondary = "secondary"
	AssignmentObserver  = "observer"
)

// ValidAssignmentType reports whether the wire value names a known type.
func ValidAssignmentType(t string) bool {
	switch t {
	case AssignmentPrimary, AssignmentSecondary, AssignmentObserver:
		return true
	}
	return false
}

// Assignment statuses.
const (
	AssignmentActive      = "active"
	AssignmentCompleted   = "completed"
	AssignmentTransferred = "transferred"
	AssignmentCancelled   = "cancelled"
)

// Status-change trigger sources.
const (
	TriggerUser       = "user"
	TriggerSystem     = "system"
	TriggerAutomation = "automation"
)

// Information item statuses. Verified items count toward readiness.
const (
	InfoMissing   = "missing"
	InfoRequested = "requested"
	InfoReceived  = "received"
	InfoVerified  = "verified"
)

// ValidInformationStatus reports whether the wire value names a known status.
func ValidInformationStatus(s string) bool {
	switch s {
	case InfoMissing, InfoRequested, InfoReceived, InfoVerified:
		return true
	}
	return false
}

// Information item importance levels. Only required items feed the
// information contribution of the readiness score.
const (
	ImportanceRequired  = "required"
	ImportanceImportant = "important"
	ImportanceOptional  = "optional"
)

// ValidImportance reports whether the wire value names a known level.
func ValidImportance(s string) bool {
	switch s {
	case ImportanceRequired, ImportanceImportant, ImportanceOptional:
		return true
	}
	return false
}

// Scope item statuses. Approved items count toward readiness.
const (
	ScopeDraft    = "draft"
	ScopeDefined  = "defined"
	ScopeApproved = "approved"
	ScopeQuoted   = "quoted"
)

// ValidScopeStatus reports whether the wire value names a known status.
func ValidScopeStatus(s string) bool {
	switch s {
	case ScopeDraft, ScopeDefined, ScopeApproved, ScopeQuoted:
		return true
	}
	return false
}

// Aggregate information-gathering statuses derived from the checklist.
const (
	GatheringPending    = "pending"
	GatheringInProgress = "in-progress"
	GatheringCompleted  = "completed"
)

// GatheringStatus derives the aggregate checklist state from verified and
// total counts.
func GatheringStatus(verified, total int) string {
	switch {
	case total == 0 || verified == 0:
		return GatheringPending
	case verified < total:
		return GatheringInProgress
	default:
		return GatheringCompleted
	}
}

// Aggregate scope-definition statuses derived from the scope tree.
const (
	DefinitionNotStarted = "not-started"
	DefinitionInProgress = "in-progress"
	DefinitionCompleted  = "completed"
)

// DefinitionStatus derives the aggregate scope state from approved and total
// counts.
func DefinitionStatus(approved, total int) string {
	switch {
	case total == 0:
		return DefinitionNotStarted
	case approved < total:
		return DefinitionInProgress
	default:
		return DefinitionCompleted
	}
}
