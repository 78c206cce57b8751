package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeFragmentCreated is emitted after a fragment is persisted.
	EventTypeFragmentCreated = "memoire.fragment.created"

	// EventTypeFragmentsDeleted is emitted after a batch fragment delete.
	EventTypeFragmentsDeleted = "memoire.fragments.deleted"

	// EventTypeContextCreated is emitted after a context is persisted.
	EventTypeContextCreated = "memoire.context.created"
)

// MutationEvent is a transport-neutral event payload describing a memory
// store mutation. Downstream consumers (audit trails, sync pipelines)
// subscribe to these rather than polling the store.
type MutationEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// ProjectID is the project the mutation happened in.
	ProjectID string `json:"project_id"`

	// FragmentIDs lists the fragments created or deleted.
	FragmentIDs []string `json:"fragment_ids,omitempty"`

	// ContextID is set for context mutations.
	ContextID string `json:"context_id,omitempty"`

	// Source tags the pipeline that caused the mutation
	// (e.g. "curated_ingestion", "api").
	Source string `json:"source,omitempty"`
}
