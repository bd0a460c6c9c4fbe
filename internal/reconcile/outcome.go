package reconcile

// Kind tags an Outcome.
type Kind int

const (
	Created Kind = iota + 1
	Updated
	Skipped
	Failed
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "Created"
	case Updated:
		return "Updated"
	case Skipped:
		return "Skipped"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Outcome is the result of processing one record.
type Outcome struct {
	Kind     Kind
	Line     int
	Username string
	Groups   []string
	// Reason is set for Skipped and Failed.
	Reason string
}

// OK reports whether the account is in the desired state.
func (o Outcome) OK() bool {
	return o.Kind == Created || o.Kind == Updated
}

// Fail returns a copy of o marked Failed with reason.
func (o Outcome) Fail(reason string) Outcome {
	o.Kind = Failed
	o.Reason = reason
	return o
}
