package core

import (
	"bytes"
	"net/mail"
)

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string
		Attachments []Attachment
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m EmailMessage) HasRecipients() bool  { return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0 }
func (m EmailMessage) HasContent() bool     { return m.BodyStr != "" }
func (m EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }
