package feedback

const (
	CycleStatusDraft  = "draft"
	CycleStatusActive = "active"
	CycleStatusClosed = "closed"

	RequestStatusPending   = "pending"
	RequestStatusSubmitted = "submitted"

	RelationshipSelf         = "self"
	RelationshipManager      = "manager"
	RelationshipPeer         = "peer"
	RelationshipDirectReport = "direct_report"
	RelationshipExternal     = "external"

	DefaultAnonymityThreshold = 3
)

var Relationships = []string{
	RelationshipSelf,
	RelationshipManager,
	RelationshipPeer,
	RelationshipDirectReport,
	RelationshipExternal,
}

// anonymousRelationships are suppressed below the anonymity threshold.
var anonymousRelationships = map[string]bool{
	RelationshipPeer:         true,
	RelationshipDirectReport: true,
}
