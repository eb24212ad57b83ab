package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"xhscrawl/pkg/storage"
)

// JSONWriter writes the crawl result envelope with the items as the API
// returned them
type JSONWriter struct{}

type jsonResult struct {
	OK      bool        `json:"ok"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Format implements Writer
func (JSONWriter) Format() string { return "json" }

// Write implements Writer
func (JSONWriter) Write(ctx context.Context, d *Dataset, store *storage.Manager) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonResult{OK: d.OK, Message: d.Message, Data: d.Records}); err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	name := d.Name + ".json"
	return name, store.Save(&buf, name)
}
