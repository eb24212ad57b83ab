package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

const notifyTimeout = 5 * time.Second

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// CommandSender sends notifications by running a platform tool
type CommandSender struct {
	// Build returns the program and arguments for one notification
	Build func(title, message string) (string, []string)
}

// Send implements NotificationSender
func (c *CommandSender) Send(title, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	name, args := c.Build(title, message)
	return exec.CommandContext(ctx, name, args...).Run()
}

// platformSenders maps GOOS to the tool that shows notifications there
var platformSenders = map[string]func(title, message string) (string, []string){
	"linux": func(title, message string) (string, []string) {
		return "notify-send", []string{"--app-name=xhscrawl", title, message}
	},
	"darwin": func(title, message string) (string, []string) {
		script := fmt.Sprintf("display notification %s with title %s", appleScriptString(message), appleScriptString(title))
		return "osascript", []string{"-e", script}
	},
	"windows": func(title, message string) (string, []string) {
		script := fmt.Sprintf(`[reflection.assembly]::loadwithpartialname('System.Windows.Forms') | Out-Null
$n = New-Object System.Windows.Forms.NotifyIcon
$n.Icon = [System.Drawing.SystemIcons]::Information
$n.Visible = $true
$n.ShowBalloonTip(5000, %s, %s, 'Info')`, powerShellString(title), powerShellString(message))
		return "powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script}
	},
}

func appleScriptString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func powerShellString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Notifier prints run outcomes and mirrors them as desktop notifications
type Notifier struct {
	sender NotificationSender
}

// NewNotifier creates a Notifier for the current platform. On platforms
// without a known tool it only prints.
func NewNotifier() *Notifier {
	build, ok := platformSenders[runtime.GOOS]
	if !ok {
		return &Notifier{}
	}
	return &Notifier{sender: &CommandSender{Build: build}}
}

// NewNotifierWithSender creates a Notifier over sender; nil only prints
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) send(color func(string) string, title, message string) {
	fmt.Fprintf(Out, "\n%s: %s\n", color(title), message)
	if n.sender != nil {
		// a missing notification tool is not worth failing a crawl over
		_ = n.sender.Send(title, message)
	}
}

// SendNotification prints and sends a neutral notification
func (n *Notifier) SendNotification(title, message string) {
	n.send(Cyan, title, message)
}

// SendError prints and sends a failure notification
func (n *Notifier) SendError(title, message string) {
	n.send(Red, title, message)
}

// SendSuccess prints and sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	n.send(Green, title, message)
}
