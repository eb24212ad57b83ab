package export

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"xhscrawl/pkg/metadata"
	"xhscrawl/pkg/storage"
)

const markdownCellRunes = 60

// MarkdownWriter writes a summary table followed by the items table
type MarkdownWriter struct{}

// Format implements Writer
func (MarkdownWriter) Format() string { return "md" }

// Write implements Writer
func (MarkdownWriter) Write(ctx context.Context, d *Dataset, store *storage.Manager) (string, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1(d.Name)
	md.PlainText("")

	status := "complete"
	if !d.OK {
		status = "failed"
	} else if strings.Contains(d.Message, "partial") {
		status = "partial"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Kind", d.Kind},
			{"Items", strconv.Itoa(d.Len())},
			{"Status", status},
		},
	})
	md.PlainText("")

	if !d.OK {
		md.Warningf("Crawl stopped early: %s", cell(d.Message))
		md.PlainText("")
	}

	if d.Len() == 0 {
		md.PlainText("No items collected.")
	} else {
		rows := make([][]string, len(d.Rows))
		for i, row := range d.Rows {
			rows[i] = make([]string, len(row))
			for j, v := range row {
				rows[i][j] = cell(v)
			}
		}
		md.Table(markdown.TableSet{Header: d.Columns, Rows: rows})
	}

	if err := md.Build(); err != nil {
		return "", err
	}
	name := d.Name + ".md"
	return name, store.Save(&buf, name)
}

// cell keeps a value on one line and out of the table syntax
func cell(v string) string {
	return strings.ReplaceAll(metadata.Snippet(v, markdownCellRunes), "|", `\|`)
}
