// Package payload assembles the outbound request document for each
// command family and serializes it with omission-of-absent-field
// semantics.
package payload

import (
	"encoding/json"
	"fmt"

	"github.com/iancoleman/orderedmap"

	"github.com/sungwon/mailctl/internal/attach"
	"github.com/sungwon/mailctl/internal/route"
)

// From carries the three sender identity strings. The remote API combines
// them into the sender address; this client never validates syntax.
type From struct {
	Name   string `json:"name"`
	Alias  string `json:"alias"`
	Domain string `json:"domain"`
}

// Template selects the remote template and carries its variables.
// Variables preserve insertion order: day names and appointment lists are
// rendered in the order they were set.
type Template struct {
	Category  string                 `json:"category,omitempty"`
	File      string                 `json:"file,omitempty"`
	Variables *orderedmap.OrderedMap `json:"variables,omitempty"`
}

// Attachment is the wire form of one attachment unit.
type Attachment struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Name    string `json:"name"`
}

// Envelope is the fully assembled request document. Empty cc, bcc, subject,
// replyTo, headers, and attachments are omitted from the serialized form;
// the remote template renderer treats present-but-empty differently from
// absent. `to` is always present.
type Envelope struct {
	From        From              `json:"from"`
	To          []string          `json:"to"`
	Cc          []string          `json:"cc,omitempty"`
	Bcc         []string          `json:"bcc,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	ReplyTo     []string          `json:"replyTo,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Template    *Template         `json:"template,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
}

// Marshal serializes the envelope to its wire form.
func (e *Envelope) Marshal() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("payload: marshal envelope: %w", err)
	}
	return body, nil
}

// Request pairs a built envelope with its resolved route target.
type Request struct {
	Route    route.Route
	Endpoint route.Endpoint
	Envelope *Envelope
}

// Recipients groups the three recipient classes of a command.
type Recipients struct {
	To  []string
	Cc  []string
	Bcc []string
}

// wireAttachment converts a resolved attachment to its wire form.
func wireAttachment(a attach.Attachment) Attachment {
	return Attachment{
		Type:    string(a.Kind),
		Content: a.Content,
		Name:    a.Name,
	}
}

// inviteAttachment converts a generated calendar invite to its wire form.
// Invites are text content and carry the txt kind tag.
func inviteAttachment(content, name string) Attachment {
	return Attachment{
		Type:    string(attach.KindTXT),
		Content: content,
		Name:    name,
	}
}
