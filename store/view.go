package store

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"mcp-mqtt/mcp"
)

// printTableHeader prints a tab-separated header row followed by a matching underline row.
// Example: printTableHeader(w, "ID", "Method") outputs:
// ID	Method
// --	------
func printTableHeader(w io.Writer, columns ...string) {
	if len(columns) == 0 {
		return
	}
	fmt.Fprintln(w, strings.Join(columns, "\t"))

	under := make([]string, len(columns))
	for i, col := range columns {
		width := utf8.RuneCountInString(col)
		if width <= 0 {
			width = 1
		}
		under[i] = strings.Repeat("-", width)
	}
	fmt.Fprintln(w, strings.Join(under, "\t"))
}

// ViewHistory displays journal entries.
func ViewHistory(w io.Writer, entries []Entry, format OutputFormat) error {
	if entries == nil {
		entries = []Entry{}
	}
	table := func() {
		printTableHeader(w, "ID", "At", "Client", "Method", "Target", "Outcome", "Duration")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID,
				e.At.Local().Format(time.DateTime),
				e.ClientID,
				e.Method,
				e.Target,
				e.Outcome,
				e.Duration.Round(time.Microsecond),
			)
		}
	}
	return render(w, format, table, entries)
}

// ToolRecord is the rendered form of a registered tool.
type ToolRecord struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Arguments   []ArgumentRecord `json:"arguments" yaml:"arguments"`
}

type ArgumentRecord struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ViewTools displays the tool catalog.
func ViewTools(w io.Writer, tools []mcp.Tool, format OutputFormat) error {
	records := make([]ToolRecord, 0, len(tools))
	for _, t := range tools {
		rec := ToolRecord{Name: t.Name, Description: t.Description, Arguments: make([]ArgumentRecord, 0, len(t.Args))}
		for _, a := range t.Args {
			rec.Arguments = append(rec.Arguments, ArgumentRecord{Name: a.Name, Type: a.Type.String(), Description: a.Description})
		}
		records = append(records, rec)
	}

	table := func() {
		printTableHeader(w, "Name", "Arguments", "Description")
		for _, r := range records {
			args := make([]string, 0, len(r.Arguments))
			for _, a := range r.Arguments {
				args = append(args, a.Name+":"+a.Type)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, strings.Join(args, ","), r.Description)
		}
	}
	return render(w, format, table, records)
}

// ViewResources displays the resource catalog.
func ViewResources(w io.Writer, resources []mcp.Resource, format OutputFormat) error {
	type resourceRecord struct {
		URI         string `json:"uri" yaml:"uri"`
		Name        string `json:"name" yaml:"name"`
		MIMEType    string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
		Description string `json:"description,omitempty" yaml:"description,omitempty"`
	}
	records := make([]resourceRecord, 0, len(resources))
	for _, r := range resources {
		records = append(records, resourceRecord{URI: r.URI, Name: r.Name, MIMEType: r.MIMEType, Description: r.Description})
	}

	table := func() {
		printTableHeader(w, "URI", "Name", "MIME", "Description")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.URI, r.Name, r.MIMEType, r.Description)
		}
	}
	return render(w, format, table, records)
}
