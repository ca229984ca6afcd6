package mail

import (
	"strings"
	"sync"

	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// PreviewSender renders digests to the log instead of transmitting them.
// Sent messages are retained so tests and preview runs can inspect content.
type PreviewSender struct {
	mu       sync.Mutex
	Messages []*Message
}

// InitPreviewSender - ...
func InitPreviewSender() *PreviewSender {
	return &PreviewSender{}
}

// Send - ...
func (s *PreviewSender) Send(msg *Message) error {
	s.mu.Lock()
	s.Messages = append(s.Messages, msg)
	s.mu.Unlock()
	log.WithFields(log.Fields{
		"event":      "mail_preview",
		"recipients": strings.Join(msg.To, ", "),
		"subject":    msg.Subject,
	}).Info("\n" + msg.Body)
	return nil
}
