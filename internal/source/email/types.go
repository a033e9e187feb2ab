package email

import "time"

// ParsedMessage holds the parts of an RFC 5322 message the inbox uses.
type ParsedMessage struct {
	MessageID   string
	From        string
	FromAddress string
	Subject     string
	Date        time.Time
	Priority    string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment holds metadata about a message attachment.
type Attachment struct {
	Filename string
	Size     uint64
	MIMEType string
}
