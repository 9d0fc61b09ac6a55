package mime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Parse Tests ====================

func TestParse_SimpleText(t *testing.T) {
	// Arrange
	raw := `From: sender@example.com
To: receiver@test.com
Subject: Simple Text Email
Message-ID: <abc123@example.com>
Content-Type: text/plain; charset=utf-8

Hello, this is a simple text email.`

	// Act
	parsed, err := Parse(strings.NewReader(raw))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "sender@example.com", parsed.SenderEmail)
	assert.Equal(t, "Simple Text Email", parsed.Subject)
	assert.Equal(t, "abc123@example.com", parsed.MessageID)
	assert.Equal(t, []string{"receiver@test.com"}, parsed.To)
	assert.Contains(t, parsed.Body(), "Hello, this is a simple text email")
	assert.Empty(t, parsed.Attachments)
}

func TestParse_HTMLOnly(t *testing.T) {
	// Arrange
	raw := `From: "Promo Team" <Deals@Shop.example>
To: receiver@test.com
Subject: HTML Email
Content-Type: text/html; charset=utf-8

<html><body><h1>Hello&nbsp;World</h1><p>Big &amp; bold.</p><script>track()</script></body></html>`

	// Act
	parsed, err := Parse(strings.NewReader(raw))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Promo Team", parsed.SenderName)
	assert.Equal(t, "deals@shop.example", parsed.SenderEmail)
	assert.Empty(t, parsed.BodyText)
	assert.Contains(t, parsed.Body(), "<h1>")
	assert.Contains(t, parsed.Snippet, "Big & bold.")
	assert.NotContains(t, parsed.Snippet, "track")
}

func TestParse_AlternativePrefersText(t *testing.T) {
	// Arrange
	raw := `From: sender@example.com
To: receiver@test.com
Subject: Both Parts
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="alt789"

--alt789
Content-Type: text/plain; charset=utf-8

Plain version.

--alt789
Content-Type: text/html; charset=utf-8

<p>HTML version.</p>

--alt789--`

	// Act
	parsed, err := Parse(strings.NewReader(raw))

	// Assert
	require.NoError(t, err)
	assert.Contains(t, parsed.Body(), "Plain version.")
	assert.NotContains(t, parsed.Body(), "<p>")
	assert.Contains(t, parsed.BodyHTML, "<p>HTML version.</p>")
}

func TestParse_AttachmentMetadata(t *testing.T) {
	// Arrange
	raw := `From: sender@example.com
To: receiver@test.com
Subject: Email with Attachment
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="boundary456"

--boundary456
Content-Type: text/plain; charset=utf-8

Email body with attachment.

--boundary456
Content-Type: application/pdf; name="../../etc/invoice.pdf"
Content-Disposition: attachment; filename="../../etc/invoice.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQKJeLjz9MK

--boundary456--`

	// Act
	parsed, err := Parse(strings.NewReader(raw))

	// Assert
	require.NoError(t, err)
	assert.Contains(t, parsed.BodyText, "Email body with attachment")
	require.Len(t, parsed.Attachments, 1)
	assert.NotContains(t, parsed.Attachments[0].Filename, "/")
	assert.Equal(t, "application/pdf", parsed.Attachments[0].ContentType)
	assert.Positive(t, parsed.Attachments[0].Size)
}

func TestParse_TooLarge(t *testing.T) {
	raw := "Subject: big\r\n\r\n" + strings.Repeat("a", MaxMessageSize)

	_, err := Parse(strings.NewReader(raw))

	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

// ==================== parseFromHeader Tests ====================

func TestParseFromHeader(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantName  string
		wantEmail string
	}{
		{"email only", "sender@example.com", "", "sender@example.com"},
		{"name and email", "John Doe <John@Example.com>", "John Doe", "john@example.com"},
		{"quoted name", `"Doe, John" <john@example.com>`, "Doe, John", "john@example.com"},
		{"empty", "", "", ""},
		{"whitespace", "   sender@example.com   ", "", "sender@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, email := parseFromHeader(tt.header)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantEmail, email)
		})
	}
}

// ==================== generateSnippet Tests ====================

func TestGenerateSnippet_PrefersText(t *testing.T) {
	assert.Equal(t, "plain text", generateSnippet("  plain\n\ntext ", "<p>html</p>"))
}

func TestGenerateSnippet_TruncatesOnRuneBoundary(t *testing.T) {
	snippet := generateSnippet(strings.Repeat("é", 300), "")

	assert.Equal(t, 255, len([]rune(snippet)))
	assert.True(t, strings.HasSuffix(snippet, "..."))
}

func TestGenerateSnippet_Empty(t *testing.T) {
	assert.Empty(t, generateSnippet("", ""))
}
