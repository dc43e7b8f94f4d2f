package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"client-chat/internal/channel"
	"client-chat/internal/conversation"
)

type Exporter struct {
	dir string
	now func() time.Time
}

// New writes exports under dir, resolved against the working directory when
// relative. An empty dir means "<cwd>/exports".
func New(dir string) (*Exporter, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" || !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "resolve cwd")
		}
		if dir == "" {
			dir = "exports"
		}
		dir = filepath.Join(cwd, dir)
	}
	return &Exporter{dir: dir, now: time.Now}, nil
}

func (e *Exporter) Dir() string {
	return e.dir
}

// Export writes the channel's transcript to <dir>/<channel-id>.md and returns
// the path.
func (e *Exporter) Export(ch channel.Channel, messages []conversation.Message) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create export directory")
	}
	path := filepath.Join(e.dir, safeFileName(ch.ID)+".md")
	md := BuildChannelMarkdown(ch, messages, e.now().UTC())
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", errors.Wrap(err, "write export file")
	}
	return path, nil
}

// BuildTranscriptMarkdown renders messages as one "##" section per message.
func BuildTranscriptMarkdown(messages []conversation.Message) string {
	var b strings.Builder
	for _, m := range messages {
		content := strings.TrimSpace(m.Text)
		if content == "" {
			continue
		}
		switch m.Role {
		case conversation.RoleUser:
			b.WriteString("## You\n\n")
			b.WriteString(content + "\n\n")
		case conversation.RoleAssistant:
			b.WriteString("## Assistant\n\n")
			b.WriteString(content + "\n\n")
		default:
			b.WriteString("## System\n\n")
			b.WriteString("```text\n")
			b.WriteString(content + "\n")
			b.WriteString("```\n\n")
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return ""
	}
	return out + "\n"
}

func BuildChannelMarkdown(ch channel.Channel, messages []conversation.Message, now time.Time) string {
	transcript := BuildTranscriptMarkdown(messages)
	var b strings.Builder
	b.WriteString("# " + safeValue(ch.Name) + "\n\n")
	b.WriteString("Exported: " + now.Format(time.RFC3339) + "\n\n")
	b.WriteString("```text\n")
	b.WriteString("channel: " + safeValue(ch.ID) + "\n")
	b.WriteString(fmt.Sprintf("message_count: %d\n", len(messages)))
	b.WriteString("```\n\n")
	if strings.TrimSpace(transcript) == "" {
		b.WriteString("_No messages._\n")
		return b.String()
	}
	b.WriteString(transcript)
	if !strings.HasSuffix(transcript, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

func safeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "channel"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(s)
}

func safeValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "n/a"
	}
	return s
}
