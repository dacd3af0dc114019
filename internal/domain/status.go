package domain

type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusScheduled  Status = "scheduled"
	StatusPublished  Status = "published"
	StatusRejected   Status = "rejected"
)

// transitions lists the allowed next states for each status. Published and
// rejected have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:    {StatusGenerating, StatusCompleted, StatusScheduled, StatusPublished, StatusRejected},
	StatusGenerating: {StatusCompleted, StatusError},
	StatusError:      {StatusGenerating},
	StatusCompleted:  {StatusScheduled, StatusPublished, StatusRejected},
	StatusScheduled:  {StatusScheduled, StatusPublished},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusGenerating, StatusCompleted, StatusError, StatusScheduled, StatusPublished, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
