package blueprint

// FailReason is the outcome of a transform that can partly fail without
// aborting: either success, or a failure carrying a user-facing message.
type FailReason struct {
	failed bool
	reason string
}

func Success() FailReason { return FailReason{} }

func Fail(reason string) FailReason { return FailReason{failed: true, reason: reason} }

func (f FailReason) OK() bool { return !f.failed }

func (f FailReason) Reason() string { return f.reason }

func (f FailReason) String() string {
	if f.OK() {
		return "ok"
	}
	return f.reason
}

type PlacementReport int

const (
	CanNotPlace PlacementReport = iota
	CanPlace
	AlreadyPlaced
)

func (r PlacementReport) String() string {
	switch r {
	case CanPlace:
		return "CAN_PLACE"
	case AlreadyPlaced:
		return "ALREADY_PLACED"
	default:
		return "CAN_NOT_PLACE"
	}
}
