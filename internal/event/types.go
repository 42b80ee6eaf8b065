package event

const (
	// LifecycleQueue receives every policy and claim lifecycle transition.
	LifecycleQueue = "policy_lifecycle_events"
)

// Lifecycle event types carried in LifecycleEvent.EventType.
const (
	PolicyCreated   = "policy.created"
	PolicyActivated = "policy.activated"
	PolicyExpired   = "policy.expired"
	PolicyCancelled = "policy.cancelled"
	ClaimSubmitted  = "claim.submitted"
	ClaimApproved   = "claim.approved"
	ClaimRejected   = "claim.rejected"
	ClaimPaid       = "claim.paid"
)

// LifecycleEvent is the wire envelope published to the lifecycle queue.
type LifecycleEvent struct {
	EventType string `json:"event_type"`
	Payload   any    `json:"payload"`
	EmittedAt int64  `json:"emitted_at"`
}
