package cli

import (
	"strings"

	"github.com/skosovsky/promptreg"
)

type argumentView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type infoView struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Arguments   []argumentView `json:"arguments,omitempty"`
}

type contentView struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	URL      string `json:"url,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

type messageView struct {
	Role    promptreg.Role `json:"role"`
	Content contentView    `json:"content"`
}

type payloadView struct {
	Description string        `json:"description"`
	Messages    []messageView `json:"messages"`
}

func toInfoView(info promptreg.Info) infoView {
	v := infoView{ID: info.ID, Description: info.Description}
	for _, a := range info.Arguments {
		v.Arguments = append(v.Arguments, argumentView(a))
	}
	return v
}

func toPayloadView(p *promptreg.Payload) payloadView {
	v := payloadView{Description: p.Description, Messages: make([]messageView, 0, len(p.Messages))}
	for _, m := range p.Messages {
		mv := messageView{Role: m.Role}
		switch c := m.Content.(type) {
		case promptreg.TextPart:
			mv.Content = contentView{Type: promptreg.ContentText, Text: c.Text}
		case promptreg.ImagePart:
			mv.Content = contentView{Type: promptreg.ContentImage, URL: c.URL, MIMEType: c.MIMEType, Data: c.Data}
		}
		v.Messages = append(v.Messages, mv)
	}
	return v
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
