package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/pgscope/pkg/query"
	"github.com/ajitpratap0/pgscope/pkg/rowmap"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func parseFormat(s string) (string, error) {
	switch strings.ToLower(s) {
	case formatTable, "":
		return formatTable, nil
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// render writes v as JSON or YAML, or calls table for the tabular format.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	f, err := parseFormat(format)
	if err != nil {
		return err
	}

	switch f {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func renderStrings(w io.Writer, format, header string, items []string) error {
	return render(w, format, items, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, strings.ToUpper(header))
		for _, item := range items {
			fmt.Fprintln(tw, item)
		}
	})
}

func renderColumns(w io.Writer, format string, cols []rowmap.ColumnDescriptor) error {
	return render(w, format, cols, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "NAME\tDATA TYPE\tMAX LENGTH\tNULLABLE")
		for _, c := range cols {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", c.Name, c.DataType, optionalInt(c.MaxLength), c.Nullable)
		}
	})
}

func renderPeople(w io.Writer, format string, people []rowmap.Person) error {
	return render(w, format, people, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tENABLED")
		for _, p := range people {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Email, optionalBool(p.Enabled))
		}
	})
}

func renderResult(w io.Writer, format string, res *query.Result) error {
	records := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		rec := make(map[string]any, len(row))
		for i, v := range row.Values() {
			if i < len(res.Columns) {
				rec[res.Columns[i]] = v
			}
		}
		records = append(records, rec)
	}

	return render(w, format, records, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, strings.ToUpper(strings.Join(res.Columns, "\t")))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = v.String()
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
	})
}

func optionalInt(v *int64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatInt(*v, 10)
}

func optionalBool(v *bool) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatBool(*v)
}
