// Package mime extracts the fields the spam scorer needs from raw RFC 5322 messages.
package mime

import (
	"errors"
	"html"
	"io"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/easemail/easemail-backend/internal/validator"
	"github.com/jhillyerd/enmime"
	"github.com/microcosm-cc/bluemonday"
)

// MaxMessageSize bounds the raw message accepted by Parse.
const MaxMessageSize = 10 << 20

const snippetLength = 255

// ErrMessageTooLarge is returned when the raw message exceeds MaxMessageSize.
var ErrMessageTooLarge = errors.New("message exceeds maximum size")

var (
	fromPattern  = regexp.MustCompile(`^(?:"?([^"<]*)"?\s*)?<?([^<>]+@[^<>]+)>?$`)
	strictPolicy = bluemonday.StrictPolicy()
)

// ParsedEmail represents a parsed email message
type ParsedEmail struct {
	MessageID   string             `json:"message_id,omitempty"`
	SenderEmail string             `json:"sender_email"`
	SenderName  string             `json:"sender_name,omitempty"`
	To          []string           `json:"to,omitempty"`
	Subject     string             `json:"subject"`
	Snippet     string             `json:"snippet"`
	BodyText    string             `json:"-"`
	BodyHTML    string             `json:"-"`
	Attachments []ParsedAttachment `json:"attachments,omitempty"`
}

// ParsedAttachment describes an attachment without its content
type ParsedAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Body returns the text body, or the HTML body when there is no text part.
func (p *ParsedEmail) Body() string {
	if p.BodyText != "" {
		return p.BodyText
	}
	return p.BodyHTML
}

// Parse parses an email from an io.Reader
func Parse(r io.Reader) (*ParsedEmail, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxMessageSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	env, err := enmime.ReadEnvelope(strings.NewReader(string(raw)))
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{
		MessageID: strings.Trim(env.GetHeader("Message-Id"), "<>"),
		Subject:   env.GetHeader("Subject"),
		BodyText:  env.Text,
		BodyHTML:  env.HTML,
	}
	// enmime down-converts HTML-only messages into Text; keep Text for real text parts only.
	if env.HTML != "" && env.Root != nil && env.Root.BreadthMatchFirst(isTextPart) == nil {
		parsed.BodyText = ""
	}
	parsed.SenderName, parsed.SenderEmail = parseFromHeader(env.GetHeader("From"))

	if to, err := env.AddressList("To"); err == nil {
		for _, addr := range to {
			parsed.To = append(parsed.To, validator.NormalizeEmail(addr.Address))
		}
	}

	parsed.Snippet = generateSnippet(parsed.BodyText, parsed.BodyHTML)

	for _, part := range env.Attachments {
		parsed.Attachments = append(parsed.Attachments, attachment(part))
	}
	for _, part := range env.Inlines {
		if part.FileName != "" {
			parsed.Attachments = append(parsed.Attachments, attachment(part))
		}
	}

	return parsed, nil
}

func isTextPart(part *enmime.Part) bool {
	return part.ContentType == "text/plain" && part.Disposition != "attachment"
}

func attachment(part *enmime.Part) ParsedAttachment {
	return ParsedAttachment{
		Filename:    validator.SanitizeFilename(part.FileName),
		ContentType: part.ContentType,
		Size:        int64(len(part.Content)),
	}
}

// parseFromHeader extracts name and email from a From header
func parseFromHeader(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}

	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Name, validator.NormalizeEmail(addr.Address)
	}

	// Pattern: "Name" <email@example.com> or Name <email@example.com>
	if m := fromPattern.FindStringSubmatch(from); len(m) >= 3 {
		return strings.Trim(strings.TrimSpace(m[1]), `"`), validator.NormalizeEmail(m[2])
	}
	return "", validator.NormalizeEmail(from)
}

// generateSnippet creates a preview snippet from email body
func generateSnippet(bodyText, bodyHTML string) string {
	text := bodyText
	if text == "" && bodyHTML != "" {
		text = html.UnescapeString(strictPolicy.Sanitize(bodyHTML))
	}

	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > snippetLength {
		runes := []rune(text)
		text = string(runes[:snippetLength-3]) + "..."
	}
	return text
}
