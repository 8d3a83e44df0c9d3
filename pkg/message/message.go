package message

// Kind classifies who or what produced a message, mirroring the kinds the
// desktop chat client reports.
type Kind string

const (
	KindSystem Kind = "sys"
	KindTime   Kind = "time"
	KindRecall Kind = "recall"
	KindSelf   Kind = "self"
	KindFriend Kind = "friend"
)

// Message is a single message observed at the automation boundary. The
// engine stores and forwards messages but never mutates them.
type Message struct {
	ID      string
	Kind    Kind
	Sender  string
	Content string
}

// Quotable reports whether the message may be used as the anchor of a
// quoted reply. Only real chat messages can be quoted; system, time, and
// recall notices cannot.
func (m Message) Quotable() bool {
	return m.Kind == KindSelf || m.Kind == KindFriend
}
