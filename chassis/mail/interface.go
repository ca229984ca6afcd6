package mail

// Config - unified configuration for outbound mail.
type Config struct {
	Server string
	Port   int
	From   string
}

// Message - one assembled digest, ready for transport.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender interface for digest transmission. The preview implementation renders
// identical content without transmitting, for mail-disabled runs.
type Sender interface {
	Send(msg *Message) error
}
