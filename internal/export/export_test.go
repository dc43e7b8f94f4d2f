package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"client-chat/internal/channel"
	"client-chat/internal/conversation"
)

func sample() []conversation.Message {
	at := time.Unix(1_700_000_000, 0)
	return []conversation.Message{
		{Role: conversation.RoleUser, Text: "hello", CreatedAt: at},
		{Role: conversation.RoleAssistant, Text: `Reply for "client-1" based on: hello`, CreatedAt: at},
		{Role: conversation.RoleSystem, Text: "Reply failed: timeout", CreatedAt: at},
		{Role: conversation.RoleUser, Text: "   ", CreatedAt: at},
	}
}

func TestBuildTranscriptMarkdown_RoleSections(t *testing.T) {
	out := BuildTranscriptMarkdown(sample())
	for _, want := range []string{"## You\n\nhello", "## Assistant\n\nReply for", "## System\n\n```text\nReply failed: timeout\n```"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "## ") != 3 {
		t.Fatalf("blank messages should be skipped, got:\n%s", out)
	}
}

func TestBuildTranscriptMarkdown_Empty(t *testing.T) {
	if out := BuildTranscriptMarkdown(nil); out != "" {
		t.Fatalf("expected empty transcript, got %q", out)
	}
}

func TestBuildChannelMarkdown_Header(t *testing.T) {
	ch := channel.Channel{ID: "client-1", Name: "Client 1"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := BuildChannelMarkdown(ch, sample(), now)
	if !strings.HasPrefix(out, "# Client 1\n\nExported: 2026-01-02T03:04:05Z\n") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "channel: client-1\nmessage_count: 4\n") {
		t.Fatalf("unexpected metadata block:\n%s", out)
	}

	empty := BuildChannelMarkdown(ch, nil, now)
	if !strings.Contains(empty, "_No messages._") {
		t.Fatalf("expected empty marker, got:\n%s", empty)
	}
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path, err := e.Export(channel.Channel{ID: "client/1", Name: "Client 1"}, sample())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if path != filepath.Join(dir, "client_1.md") {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "## Assistant") {
		t.Fatalf("export missing transcript:\n%s", data)
	}
}

func TestNewResolvesRelativeDir(t *testing.T) {
	e, err := New("out")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !filepath.IsAbs(e.Dir()) || filepath.Base(e.Dir()) != "out" {
		t.Fatalf("expected absolute dir ending in out, got %q", e.Dir())
	}
}
