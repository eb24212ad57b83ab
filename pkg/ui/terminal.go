package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ASCIILogo is printed by the CLI banner
const ASCIILogo = `
    ╔══════════════════════════════════════════════════╗
    ║   __  ___  _ ___  ___ ___  ___ __      __ _      ║
    ║   \ \/ / || / __|/ __| _ \/   \\ \    / /| |     ║
    ║    >  <| __ \__ \ (__|   /| - | \ \/\/ / | |__   ║
    ║   /_/\_\_||_|___/\___|_|_\|_|_|  \_/\_/  |____|  ║
    ║                                                  ║
    ║     XIAOHONGSHU NOTE, COMMENT AND FEED CRAWLER   ║
    ╚══════════════════════════════════════════════════╝
`

// Out is where the print helpers write
var Out io.Writer = os.Stdout

var noColor bool

// SetNoColor turns ANSI colors off for every helper
func SetNoColor(off bool) {
	noColor = off
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(Out, Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Out, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Out, Magenta(msg))
}

// PrintResult prints the outcome line of one crawl
func PrintResult(name string, ok bool, message string, items int) {
	switch {
	case !ok:
		fmt.Fprintf(Out, "%s %s: %d items kept, %s\n", Red("[FAILED]"), name, items, message)
	case strings.Contains(message, "partial"):
		fmt.Fprintf(Out, "%s %s: %d items, %s\n", Yellow("[PARTIAL]"), name, items, message)
	default:
		fmt.Fprintf(Out, "%s %s: %d items\n", Green("[DONE]"), name, items)
	}
}
