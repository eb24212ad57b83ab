package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xhscrawl/pkg/crawl"
	"xhscrawl/pkg/logger"
	"xhscrawl/pkg/metadata"
	"xhscrawl/pkg/models"
	"xhscrawl/pkg/storage"
)

// Dataset is one crawl's output in table form
type Dataset struct {
	// Name is the base file name, without extension
	Name string
	// Kind names the item type and is the sqlite table
	Kind    string
	OK      bool
	Message string

	Columns []string
	Rows    [][]string

	// Records are the crawled items as the API returned them
	Records interface{}
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Writer renders a dataset into the output directory and returns the file
// name it wrote
type Writer interface {
	Format() string
	Write(ctx context.Context, d *Dataset, store *storage.Manager) (string, error)
}

// New returns the writer for a format name
func New(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "json":
		return JSONWriter{}, nil
	case "xlsx":
		return ExcelWriter{}, nil
	case "md", "markdown":
		return MarkdownWriter{}, nil
	case "sqlite":
		return SQLiteWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

// WriteAll writes d in every format and returns the written file names.
// It stops at the first failing format.
func WriteAll(ctx context.Context, d *Dataset, store *storage.Manager, formats []string, log logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	var files []string
	for _, format := range formats {
		w, err := New(format)
		if err != nil {
			return files, err
		}
		name, err := w.Write(ctx, d, store)
		if err != nil {
			log.WithError(err).ErrorWithFields("Export failed", map[string]interface{}{
				"format":  w.Format(),
				"dataset": d.Name,
			})
			return files, fmt.Errorf("failed to write %s: %w", w.Format(), err)
		}
		log.InfoWithFields("Exported results", map[string]interface{}{
			"file": store.Path(name),
			"rows": d.Len(),
		})
		files = append(files, name)
	}
	return files, nil
}

func newDataset[T any](name, kind string, res crawl.Result[T], columns []string, rows [][]string) *Dataset {
	data := res.Data
	if data == nil {
		data = []T{}
	}
	return &Dataset{
		Name:    name,
		Kind:    kind,
		OK:      res.OK,
		Message: res.Message,
		Columns: columns,
		Rows:    rows,
		Records: data,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

var noteColumns = []string{
	"id", "title", "type", "author_id", "author_name", "likes", "collects",
	"comments", "shares", "tags", "images", "ip_location", "published", "xsec_token",
}

// Notes builds a dataset from a note crawl
func Notes(name string, res crawl.Result[models.Note]) *Dataset {
	rows := make([][]string, 0, len(res.Data))
	for _, n := range res.Data {
		m := metadata.FromNote(n)
		rows = append(rows, []string{
			m.ID, m.Title, m.Type, m.AuthorID, m.AuthorName, m.Likes, m.Collects,
			m.Comments, m.Shares, strings.Join(m.Tags, ","), strings.Join(m.Images, "\n"),
			m.IPLocation, formatTime(m.Published), m.XsecToken,
		})
	}
	return newDataset(name, "notes", res, noteColumns, rows)
}

var commentColumns = []string{
	"id", "parent_id", "note_id", "author_id", "author_name", "content", "likes", "ip_location", "created",
}

// Comments builds a dataset from a comment crawl, one row per comment or reply
func Comments(name string, res crawl.Result[*models.Comment]) *Dataset {
	flat := metadata.FromComments(res.Data)
	rows := make([][]string, 0, len(flat))
	for _, c := range flat {
		rows = append(rows, []string{
			c.ID, c.ParentID, c.NoteID, c.AuthorID, c.AuthorName, c.Content, c.Likes, c.IPLocation, formatTime(c.Created),
		})
	}
	return newDataset(name, "comments", res, commentColumns, rows)
}

var userColumns = []string{"id", "name", "red_id", "fans", "note_count", "sub_title"}

// Users builds a dataset from a user search
func Users(name string, res crawl.Result[models.User]) *Dataset {
	rows := make([][]string, 0, len(res.Data))
	for _, u := range res.Data {
		m := metadata.FromUser(u)
		rows = append(rows, []string{m.ID, m.Name, m.RedID, m.Fans, m.NoteCount, m.SubTitle})
	}
	return newDataset(name, "users", res, userColumns, rows)
}

var messageColumns = []string{"id", "type", "title", "user_id", "user_name", "time"}

// Messages builds a dataset from a message feed crawl
func Messages(name string, res crawl.Result[models.MessageEvent]) *Dataset {
	rows := make([][]string, 0, len(res.Data))
	for _, e := range res.Data {
		m := metadata.FromMessage(e)
		rows = append(rows, []string{m.ID, m.Type, m.Title, m.UserID, m.UserName, formatTime(m.Time)})
	}
	return newDataset(name, "messages", res, messageColumns, rows)
}

// FileBase builds a file base name from a crawl kind and its subject,
// keeping only characters that are safe in file names
func FileBase(kind, subject string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, strings.TrimSpace(subject))
	clean = strings.ReplaceAll(clean, " ", "_")
	if clean == "" {
		return kind
	}
	return kind + "_" + clean
}
