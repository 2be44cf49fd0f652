package domain

import "time"

// Entity kinds used in events and metrics labels.
const (
	KindIncident    = "incident"
	KindMachine     = "machine"
	KindSuggestion  = "suggestion"
	KindMaterial    = "material"
	KindEnvironment = "environment"
)

// Identifier prefixes.
const (
	PrefixIncident    = "SI"
	PrefixMachine     = "MCH"
	PrefixMaintenance = "MAINT"
	PrefixAlert       = "ALT"
	PrefixTask        = "TASK"
	PrefixSuggestion  = "SUG"
	PrefixMaterial    = "MAT"
	PrefixMovement    = "MOV"
	PrefixEnvironment = "ENV"
)

// Event describes a completed lifecycle change.
type Event struct {
	Type       string    `json:"type"`
	EntityKind string    `json:"entityKind"`
	EntityID   string    `json:"entityId"`
	ActorID    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}
