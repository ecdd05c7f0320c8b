package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TableFormatter formats output as aligned text tables, one per section.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text table output"
}

// Format writes each section of result as a table.
func (f *TableFormatter) Format(w io.Writer, result any, opts FormatOptions) error {
	sections, err := Sections(result, opts.Columns)
	if err != nil {
		return err
	}

	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := f.writeSection(w, s, opts); err != nil {
			return err
		}
	}
	return nil
}

func (f *TableFormatter) writeSection(w io.Writer, s Section, opts FormatOptions) error {
	if s.Title != "" {
		fmt.Fprintf(w, "%s\n", formatLabel(s.Title))
	}
	if len(s.Rows) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !opts.NoHeader {
		headers := make([]string, len(s.Columns))
		for i, col := range s.Columns {
			headers[i] = strings.ToUpper(col)
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}

	for _, row := range s.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = cellString(v, opts.MaxWidth)
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	if s.Footer != "" {
		fmt.Fprintln(w, s.Footer)
	}
	return nil
}

// FormatError formats an error message.
func (f *TableFormatter) FormatError(w io.Writer, err error) error {
	fmt.Fprintf(w, "Error: %s\n", err.Error())
	return nil
}

// formatLabel converts snake_case or dotted keys to Title Case.
func formatLabel(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '.'
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func init() {
	if err := Register(NewTableFormatter()); err != nil {
		fmt.Printf("failed to register table formatter: %v\n", err)
	}
}
