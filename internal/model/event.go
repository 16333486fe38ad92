package model

// Kind classifies a canonical event.
type Kind string

const (
	KindOrder  Kind = "ORDER"
	KindTrade  Kind = "TRADE"
	KindCancel Kind = "CANCEL"
	KindTick   Kind = "TICK"
)

// ExecType codes carried on the SZSE tick feed.
const (
	ExecTypeTrade  = "F" // fill
	ExecTypeCancel = "4"
)

// KindFromExecType maps a tick row's ExecType code to an event kind.
// "F" is a trade, "4" is a cancel, every other code is a generic tick.
func KindFromExecType(execType string) Kind {
	switch execType {
	case ExecTypeTrade:
		return KindTrade
	case ExecTypeCancel:
		return KindCancel
	default:
		return KindTick
	}
}

// SourceFamily tags which raw stream an event came from.
type SourceFamily string

const (
	FamilyOrder SourceFamily = "order"
	FamilyTick  SourceFamily = "tick"
)

// Event is one normalized feed record. Immutable once constructed.
type Event struct {
	Channel  int64 // broadcast channel (ChannelNo)
	Sequence int64 // per-channel sequence number (ApplSeqNum)
	Kind     Kind
	Symbol   string // instrument code, derived from the source file name

	// Identity fields (optional; which ones are set depends on Kind)
	OrderID      string // ORDER rows: the submission's own sequence number
	BidOrderID   string // tick rows: BidApplSeqNum
	OfferOrderID string // tick rows: OfferApplSeqNum

	// Trade fields (verbatim feed strings)
	Side     string // ORDER rows only
	Price    string
	Qty      string
	Amt      string // tick rows only
	OrdType  string // ORDER rows only
	ExecType string // tick rows only

	// Timing (verbatim feed strings)
	TransactTime string
	SendingTime  string

	Source SourceFamily
}

// Key returns the merge ordering key for this event.
func (e Event) Key() Key {
	return Key{Channel: e.Channel, Sequence: e.Sequence}
}

// Key is the (channel, sequence) pair the merge orders by. Ties across
// sources are broken by source index, outside this type.
type Key struct {
	Channel  int64
	Sequence int64
}

// Less reports whether k orders strictly before other, lexicographically by
// (channel, sequence).
func (k Key) Less(other Key) bool {
	if k.Channel != other.Channel {
		return k.Channel < other.Channel
	}
	return k.Sequence < other.Sequence
}
