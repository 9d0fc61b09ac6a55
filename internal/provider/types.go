package provider

// Participant is a named address on a message, contact or event.
type Participant struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Message is a provider-owned email. Date is unix seconds.
type Message struct {
	ID       string        `json:"id"`
	GrantID  string        `json:"grant_id"`
	ThreadID string        `json:"thread_id,omitempty"`
	Subject  string        `json:"subject"`
	From     []Participant `json:"from"`
	To       []Participant `json:"to"`
	Cc       []Participant `json:"cc,omitempty"`
	Bcc      []Participant `json:"bcc,omitempty"`
	ReplyTo  []Participant `json:"reply_to,omitempty"`
	Snippet  string        `json:"snippet"`
	Body     string        `json:"body,omitempty"`
	Folders  []string      `json:"folders"`
	Unread   bool          `json:"unread"`
	Starred  bool          `json:"starred"`
	Date     int64         `json:"date"`
}

// Sender returns the first From participant, or the zero value.
func (m *Message) Sender() Participant {
	if len(m.From) == 0 {
		return Participant{}
	}
	return m.From[0]
}

// MessageQuery filters a message listing. FolderIDs are provider folder ids.
type MessageQuery struct {
	Limit     int
	FolderIDs []string
	PageToken string
	Unread    *bool
}

// MessagePage is one page of a message listing.
type MessagePage struct {
	Data       []Message `json:"data"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// MessageUpdate is a partial update; nil fields are left untouched.
type MessageUpdate struct {
	Unread  *bool    `json:"unread,omitempty"`
	Starred *bool    `json:"starred,omitempty"`
	Folders []string `json:"folders,omitempty"`
}

// SendRequest is an outgoing message.
type SendRequest struct {
	To      []Participant `json:"to"`
	Cc      []Participant `json:"cc,omitempty"`
	Bcc     []Participant `json:"bcc,omitempty"`
	Subject string        `json:"subject"`
	Body    string        `json:"body"`
	ReplyTo string        `json:"reply_to_message_id,omitempty"`
}

// Folder is a provider mailbox folder or label.
type Folder struct {
	ID           string   `json:"id"`
	GrantID      string   `json:"grant_id,omitempty"`
	Name         string   `json:"name"`
	ParentID     string   `json:"parent_id,omitempty"`
	SystemFolder bool     `json:"system_folder"`
	Attributes   []string `json:"attributes,omitempty"`
	TotalCount   int      `json:"total_count"`
	UnreadCount  int      `json:"unread_count"`
}

// ContactEmail is one address of a contact.
type ContactEmail struct {
	Email string `json:"email"`
	Type  string `json:"type,omitempty"`
}

// PhoneNumber is one number of a contact.
type PhoneNumber struct {
	Number string `json:"number"`
	Type   string `json:"type,omitempty"`
}

// Contact is an address book entry.
type Contact struct {
	ID           string         `json:"id,omitempty"`
	GivenName    string         `json:"given_name,omitempty"`
	Surname      string         `json:"surname,omitempty"`
	CompanyName  string         `json:"company_name,omitempty"`
	Emails       []ContactEmail `json:"emails,omitempty"`
	PhoneNumbers []PhoneNumber  `json:"phone_numbers,omitempty"`
	Notes        string         `json:"notes,omitempty"`
}

// EventWhen is the time span of an event in unix seconds.
type EventWhen struct {
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
}

// EventParticipant is an invitee with RSVP status.
type EventParticipant struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email"`
	Status string `json:"status,omitempty"`
}

// Event is a calendar event.
type Event struct {
	ID           string             `json:"id,omitempty"`
	CalendarID   string             `json:"calendar_id,omitempty"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	Location     string             `json:"location,omitempty"`
	When         EventWhen          `json:"when"`
	Participants []EventParticipant `json:"participants,omitempty"`
	Busy         bool               `json:"busy"`
}

// EventQuery filters an event listing.
type EventQuery struct {
	CalendarID string
	Limit      int
	Start      int64
	End        int64
}

// Grant is the result of a completed hosted-auth flow.
type Grant struct {
	GrantID  string
	Email    string
	Provider string
}
