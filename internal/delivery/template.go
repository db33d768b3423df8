package delivery

import (
	"fmt"
	"strings"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

const bodyTextMaxLength = 3500 // bounded length suitable for one Telegram message

// renderTelegram formats a message body per the account's push_template:
// title_only names the subject only, short adds a bounded summary, full
// adds the account email, date and full summary, full_email includes the
// body text cut to bodyTextMaxLength runes.
func renderTelegram(account *model.Account, msg *model.Message) string {
	switch account.PushTemplate {
	case model.TemplateTitleOnly:
		return renderTitleOnly(msg)
	case model.TemplateShort:
		return renderShort(msg)
	case model.TemplateFullEmail:
		return renderFullEmail(account, msg)
	default: // model.TemplateFull
		return renderFull(account, msg)
	}
}

// renderTitleOnly shows only the subject.
func renderTitleOnly(msg *model.Message) string {
	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	return fmt.Sprintf("<b>%s</b>", escapeHTML(subject))
}

// renderShort adds sender and subject plus the first 120 chars of the
// summary.
func renderShort(msg *model.Message) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>From:</b> %s\n", escapeHTML(msg.Sender)))
	sb.WriteString(fmt.Sprintf("<b>Subject:</b> %s\n\n", escapeHTML(msg.Subject)))
	sb.WriteString(escapeHTML(truncate(msg.ContentSummary, 120)))
	return sb.String()
}

// renderFull adds received time, account email and the full summary.
func renderFull(account *model.Account, msg *model.Message) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>Account:</b> %s\n", escapeHTML(account.Email)))
	sb.WriteString(fmt.Sprintf("<b>From:</b> %s\n", escapeHTML(msg.Sender)))
	sb.WriteString(fmt.Sprintf("<b>Subject:</b> %s\n", escapeHTML(msg.Subject)))
	sb.WriteString(fmt.Sprintf("<b>Date:</b> %s\n\n", msg.ReceivedAt.Format("2006-01-02 15:04")))
	sb.WriteString(escapeHTML(msg.ContentSummary))
	return sb.String()
}

// renderFullEmail adds the truncated body text, bounded to stay within
// one Telegram message.
func renderFullEmail(account *model.Account, msg *model.Message) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>Account:</b> %s\n", escapeHTML(account.Email)))
	sb.WriteString(fmt.Sprintf("<b>From:</b> %s\n", escapeHTML(msg.Sender)))
	sb.WriteString(fmt.Sprintf("<b>Subject:</b> %s\n", escapeHTML(msg.Subject)))
	sb.WriteString(fmt.Sprintf("<b>Date:</b> %s\n\n", msg.ReceivedAt.Format("2006-01-02 15:04")))
	sb.WriteString(escapeHTML(truncate(msg.BodyText, bodyTextMaxLength)))
	return sb.String()
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "\n…(truncated)"
}
