package digest

import (
	"fmt"
	"sort"
	"strings"

	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/mail"
)

// Aggregator turns the run's queued failures into one digest per recipient
// set.
type Aggregator struct {
	sender     mail.Sender
	logFileURL string
}

// InitAggregator - ...
func InitAggregator(sender mail.Sender, logFileURL string) *Aggregator {
	return &Aggregator{
		sender:     sender,
		logFileURL: logFileURL,
	}
}

// Flush drains the queue and sends one message per recipient set. Returns the
// number of digests handed to the sender.
func (a *Aggregator) Flush(q *Queue) int {
	sent := 0
	for _, group := range q.Drain() {
		msg := a.assemble(group)
		if err := a.sender.Send(msg); err != nil {
			log.WithFields(log.Fields{
				"event":   "digest_send_failed",
				"subject": msg.Subject,
			}).Error(err)
			continue
		}
		sent++
	}
	return sent
}

func (a *Aggregator) assemble(group []*Notification) *mail.Message {
	// The subject favors any constituent whose text mentions an error.
	subject := group[0].Subject
	for _, n := range group {
		if strings.Contains(strings.ToLower(n.Subject), "error") ||
			strings.Contains(strings.ToLower(n.IssueType), "error") {
			subject = n.Subject
			break
		}
	}
	if len(group) > 1 {
		subject = fmt.Sprintf("%s (%d datasets)", subject, len(group))
	}

	byType := map[string][]*Notification{}
	var types []string
	for _, n := range group {
		if _, seen := byType[n.IssueType]; !seen {
			types = append(types, n.IssueType)
		}
		byType[n.IssueType] = append(byType[n.IssueType], n)
	}
	sort.Strings(types)

	var body strings.Builder
	for _, issueType := range types {
		items := byType[issueType]
		fmt.Fprintf(&body, "%s (%dx)\n", issueType, len(items))
		seenInfo := map[string]bool{}
		for _, n := range items {
			fmt.Fprintf(&body, "  - %s", n.IssueDetail)
			if n.DatasetPath != "" {
				fmt.Fprintf(&body, " [%s]", n.DatasetPath)
			}
			body.WriteString("\n")
			if n.AdditionalInfo != "" && !seenInfo[n.AdditionalInfo] {
				seenInfo[n.AdditionalInfo] = true
				fmt.Fprintf(&body, "    %s\n", n.AdditionalInfo)
			}
		}
		body.WriteString("\n")
	}
	if a.logFileURL != "" {
		fmt.Fprintf(&body, "Log file: %s\n", a.logFileURL)
	}

	return &mail.Message{
		To:      group[0].Recipients,
		Subject: subject,
		Body:    body.String(),
	}
}
