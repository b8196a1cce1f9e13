package billing

// Result summarizes what processing did with an event.
type Result string

const (
	// ResultApplied means a lifecycle handler changed tenant state.
	ResultApplied Result = "applied"
	// ResultIgnored means the event type has no handler.
	ResultIgnored Result = "ignored"
	// ResultSkipped means a handler ran but found nothing to change, e.g. no
	// tenant id in checkout metadata or no tenant for the customer.
	ResultSkipped Result = "skipped"
	// ResultDuplicate means the ledger had already seen the event id.
	ResultDuplicate Result = "duplicate"
)

// Names of best-effort side writes.
const (
	SideWriteSubscription = "subscription"
	SideWriteAudit        = "audit"
	SideWriteArchive      = "archive"
	SideWriteLedger       = "ledger"
)

// SideWrite is the result of one best-effort write. Its failure never fails
// the delivery.
type SideWrite struct {
	Name string
	Err  error
}

// Outcome describes a successfully acknowledged delivery.
type Outcome struct {
	EventID        string
	EventType      string
	Result         Result
	TenantsUpdated int
	SideWrites     []SideWrite
}

// Failed returns the side writes that returned an error.
func (o *Outcome) Failed() []SideWrite {
	var failed []SideWrite
	for _, w := range o.SideWrites {
		if w.Err != nil {
			failed = append(failed, w)
		}
	}
	return failed
}

func (o *Outcome) record(name string, err error) {
	o.SideWrites = append(o.SideWrites, SideWrite{Name: name, Err: err})
}
