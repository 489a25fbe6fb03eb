package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

type fakeChannel struct {
	key string
	msg amqp.Publishing
	err error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	f.key = key
	f.msg = msg
	return f.err
}

func TestPublishMail(t *testing.T) {
	ch := &fakeChannel{}
	p := NewMailPublisher(ch, "email_queue", time.Second)

	err := p.PublishMail(context.Background(), domain.MailMessage{
		Type: domain.MailTypeMention,
		To:   "alice@example.com",
		Data: domain.MentionMailData{RecipientName: "Alice", AuthorName: "Bob", CandidateName: "Jordan", MessagePreview: "hi @Alice"},
	})
	require.NoError(t, err)

	assert.Equal(t, "email_queue", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var decoded struct {
		Type string                 `json:"type"`
		To   string                 `json:"to"`
		Data domain.MentionMailData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, domain.MailTypeMention, decoded.Type)
	assert.Equal(t, "Jordan", decoded.Data.CandidateName)
}

func TestPublishMail_Error(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewMailPublisher(ch, "email_queue", time.Second)

	err := p.PublishMail(context.Background(), domain.MailMessage{Type: domain.MailTypeWelcome, To: "x@example.com"})
	assert.EqualError(t, err, "channel closed")
}
