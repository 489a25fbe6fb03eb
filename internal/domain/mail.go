package domain

const (
	MailTypeWelcome = "welcome"
	MailTypeMention = "mention"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WelcomeMailData struct {
	Name string `json:"name"`
}

type MentionMailData struct {
	RecipientName  string `json:"recipientName"`
	AuthorName     string `json:"authorName"`
	CandidateName  string `json:"candidateName"`
	MessagePreview string `json:"messagePreview"`
}
