package models

// DeletionClosure is the set of store resources discovered for one external
// id, resolved immediately before removal rather than from local state.
type DeletionClosure struct {
	ExternalID string             `json:"external_id"`
	Resources  []ResourceIdentity `json:"resources"`
}

func (c *DeletionClosure) Empty() bool {
	return len(c.Resources) == 0
}

// Partition groups the closure by deletion tier, preserving discovery order
// within each tier. Unknown types land in the default tier.
func (c *DeletionClosure) Partition() map[Tier][]ResourceIdentity {
	grouped := make(map[Tier][]ResourceIdentity)
	for _, resource := range c.Resources {
		tier, _ := TierOf(resource.Type)
		grouped[tier] = append(grouped[tier], resource)
	}
	return grouped
}

type DeletionOutcome string

const (
	OutcomeDeleted     DeletionOutcome = "deleted"
	OutcomeAlreadyGone DeletionOutcome = "already_gone"
	OutcomeBlocked     DeletionOutcome = "blocked"
	OutcomeFailed      DeletionOutcome = "failed"
)

// TeardownItem records what happened to one resource during a removal run.
type TeardownItem struct {
	Resource ResourceIdentity `json:"resource"`
	Tier     Tier             `json:"tier"`
	Outcome  DeletionOutcome  `json:"outcome"`
	Reason   string           `json:"reason,omitempty"`
}

// TeardownSummary accumulates per-resource outcomes across a removal run.
// Failures never abort the run; they are counted and reported here.
type TeardownSummary struct {
	ExternalID      string         `json:"external_id"`
	Found           int            `json:"found"`
	Deleted         int            `json:"deleted"`
	AlreadyGone     int            `json:"already_gone"`
	Blocked         int            `json:"blocked"`
	Failed          int            `json:"failed"`
	SharedRequested bool           `json:"shared_requested"`
	MappingRows     int64          `json:"mapping_rows_deleted"`
	RecordRows      int64          `json:"record_rows_deleted"`
	Items           []TeardownItem `json:"items,omitempty"`
}

func (s *TeardownSummary) Record(item TeardownItem) {
	s.Items = append(s.Items, item)
	switch item.Outcome {
	case OutcomeDeleted:
		s.Deleted++
	case OutcomeAlreadyGone:
		s.AlreadyGone++
	case OutcomeBlocked:
		s.Blocked++
	case OutcomeFailed:
		s.Failed++
	}
}

// Clean reports whether every discovered resource was removed or already
// gone.
func (s *TeardownSummary) Clean() bool {
	return s.Blocked == 0 && s.Failed == 0
}
