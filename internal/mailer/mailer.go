// Package mailer 把队列中的邮件消息渲染成可以发送的邮件
package mailer

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

// Envelope 是从队列中读出的消息，Data 按 Type 延迟解码
type Envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type kind struct {
	subject  string
	template *template.Template
	data     func() any
}

type Renderer struct {
	from  string
	kinds map[string]kind
}

func NewRenderer(from string) (*Renderer, error) {
	welcome, err := template.ParseFS(templateFS, "templates/welcome.html")
	if err != nil {
		return nil, err
	}
	mention, err := template.ParseFS(templateFS, "templates/mention.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{
		from: from,
		kinds: map[string]kind{
			domain.MailTypeWelcome: {
				subject:  "招聘跟踪系统 - 欢迎",
				template: welcome,
				data:     func() any { return &domain.WelcomeMailData{} },
			},
			domain.MailTypeMention: {
				subject:  "招聘跟踪系统 - 你在备注中被提及",
				template: mention,
				data:     func() any { return &domain.MentionMailData{} },
			},
		},
	}, nil
}

// Build 解析消息体并生成邮件，返回的错误说明这条消息永远无法发送
func (r *Renderer) Build(body []byte) (*mail.Msg, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	k, ok := r.kinds[env.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型: %q", env.Type)
	}

	data := k.data()
	if err := json.Unmarshal(env.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(r.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(env.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	if err := m.SetBodyHTMLTemplate(k.template, data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	m.Subject(k.subject)

	return m, nil
}
