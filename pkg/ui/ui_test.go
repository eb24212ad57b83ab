package ui

import (
	"bytes"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	SetNoColor(true)
	t.Cleanup(func() {
		Out = prev
		SetNoColor(false)
	})
	return &buf
}

func TestColorize(t *testing.T) {
	if got := Red("x"); got != "\033[31mx\033[0m" {
		t.Errorf("Unexpected colored text %q", got)
	}
	SetNoColor(true)
	defer SetNoColor(false)
	if got := Red("x"); got != "x" {
		t.Errorf("Expected plain text with colors off, got %q", got)
	}
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		ok      bool
		message string
		want    string
	}{
		{true, "collected 3 comments", "[DONE] notes: 5 items"},
		{true, "collected 3 comments and 1 replies (partial: 1 reply streams incomplete)", "[PARTIAL] notes: 5 items"},
		{false, "GET /api: server error", "[FAILED] notes: 5 items kept, GET /api: server error"},
	}

	for _, tt := range tests {
		buf := captureOutput(t)
		PrintResult("notes", tt.ok, tt.message, 5)
		if !strings.HasPrefix(buf.String(), tt.want) {
			t.Errorf("PrintResult() = %q, want prefix %q", buf.String(), tt.want)
		}
	}
}

func TestStatusTracker(t *testing.T) {
	st := NewStatusTracker(4)
	st.Record(true, "", 10)
	st.Record(true, "partial", 3)

	if st.Done() != 2 || st.Items != 13 {
		t.Errorf("Unexpected counts: done=%d items=%d", st.Done(), st.Items)
	}
	if got := st.GetProgress(); got != "[██████████░░░░░░░░░░] 2/4" {
		t.Errorf("Unexpected progress %q", got)
	}
	if !st.AllOK() {
		t.Error("Expected no failures yet")
	}

	st.Record(false, "boom", 0)
	if st.AllOK() || st.Failed != 1 {
		t.Error("Expected one failure")
	}

	buf := captureOutput(t)
	st.PrintSummary()
	if !strings.Contains(buf.String(), "1 complete, 1 partial, 1 failed, 13 items") {
		t.Errorf("Unexpected summary %q", buf.String())
	}
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func TestNotifier(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	n.SendSuccess("Crawl complete", "3 crawls")
	n.SendError("Crawl failed", "1 crawl")

	if len(sender.titles) != 2 {
		t.Errorf("Expected 2 notifications, got %d", len(sender.titles))
	}
	if !strings.Contains(buf.String(), "Crawl complete: 3 crawls") {
		t.Errorf("Expected console copy, got %q", buf.String())
	}

	NewNotifierWithSender(nil).SendNotification("t", "m")
}

func TestPlatformSendersQuote(t *testing.T) {
	name, args := platformSenders["darwin"](`say "hi"`, `a\b`)
	if name != "osascript" {
		t.Fatalf("Unexpected program %s", name)
	}
	if want := `display notification "a\\b" with title "say \"hi\""`; args[1] != want {
		t.Errorf("Expected %q, got %q", want, args[1])
	}

	if got := powerShellString("it's"); got != "'it''s'" {
		t.Errorf("Unexpected PowerShell quoting %q", got)
	}

	_, args = platformSenders["linux"]("title", "body")
	if args[len(args)-2] != "title" || args[len(args)-1] != "body" {
		t.Errorf("Unexpected notify-send args %v", args)
	}
}
