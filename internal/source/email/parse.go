package email

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailmuse/internal/model"
)

// parseMessage reads headers and body parts from a raw message using
// go-message.
func parseMessage(r io.Reader) (*ParsedMessage, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	msg := &ParsedMessage{}
	h := mr.Header

	if id, err := h.MessageID(); err == nil {
		msg.MessageID = id
	}
	if subject, err := h.Subject(); err == nil {
		msg.Subject = subject
	}
	if date, err := h.Date(); err == nil {
		msg.Date = date
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Name
		msg.FromAddress = from[0].Address
	}
	msg.Priority = h.Get("X-Priority")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading message part: %w", err)
		}

		switch ph := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := ph.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case (contentType == "" || strings.HasPrefix(contentType, "text/plain")) && msg.TextBody == "":
				msg.TextBody = string(body)
			case strings.HasPrefix(contentType, "text/html") && msg.HTMLBody == "":
				msg.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := ph.Filename()
			contentType, _, _ := ph.ContentType()

			n, readErr := io.Copy(io.Discard, part.Body)
			if readErr != nil {
				continue
			}

			msg.Attachments = append(msg.Attachments, Attachment{
				Filename: filename,
				Size:     uint64(n),
				MIMEType: contentType,
			})
		}
	}

	return msg, nil
}

// body returns the plain-text body, falling back to stripped HTML, with
// one line per attachment appended.
func (m *ParsedMessage) body() string {
	text := strings.TrimSpace(m.TextBody)
	if text == "" && m.HTMLBody != "" {
		text = stripHTML(m.HTMLBody)
	}

	if len(m.Attachments) == 0 {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n")
	for _, att := range m.Attachments {
		fmt.Fprintf(&sb, "\n[attachment: %s, %s, %s]", att.Filename, att.MIMEType, humanize.Bytes(att.Size))
	}
	return sb.String()
}

// priority maps the X-Priority header (1 highest, 5 lowest) onto the
// inbox priority. An absent or unparseable header yields "" so the
// message can be classified later.
func (m *ParsedMessage) priority() model.Priority {
	p := strings.TrimSpace(m.Priority)
	if p == "" {
		return ""
	}
	switch p[0] {
	case '1', '2':
		return model.PriorityHigh
	case '3':
		return model.PriorityMedium
	case '4', '5':
		return model.PriorityLow
	}
	return ""
}

// sender returns the display name, falling back to the local part of the
// address.
func (m *ParsedMessage) sender() string {
	if name := strings.TrimSpace(m.From); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(m.FromAddress, "@"); ok {
		return local
	}
	return m.FromAddress
}

// idUnsafeChars matches characters replaced when deriving an email ID from
// a Message-ID header.
var idUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._@-]`)

func sanitizeID(s string) string {
	return idUnsafeChars.ReplaceAllString(s, "_")
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
