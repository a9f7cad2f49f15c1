package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fireside-db/fireside/fireside/collections"
	"github.com/fireside-db/fireside/fireside/export"
	"github.com/fireside-db/fireside/internal/ui"
)

// renderDocument renders one document's fields in the selected format.
func renderDocument(fields map[string]any, format string) (string, error) {
	switch format {
	case "json":
		return toJSON(fields)
	case "yaml":
		return toYAML(fields)
	default:
		tbl := ui.NewTable(2)
		tbl.SetHeader("Field", "Value")
		for _, key := range sortedKeys(fields) {
			tbl.AddRow(ui.Accent.Render(key), compactValue(fields[key]))
		}
		return tbl.String(), nil
	}
}

// renderDocuments renders a list of documents.
func renderDocuments(items []map[string]any, format string) (string, error) {
	switch format {
	case "json":
		return toJSON(items)
	case "yaml":
		return toYAML(items)
	default:
		out := ""
		for i, item := range items {
			s, err := renderDocument(item, format)
			if err != nil {
				return "", err
			}
			if i > 0 {
				out += "\n"
			}
			out += s
		}
		if out == "" {
			out = ui.Muted.Render("(no documents)") + "\n"
		}
		return out, nil
	}
}

// renderCollections renders discovery results.
func renderCollections(infos []collections.CollectionInfo, format string) (string, error) {
	switch format {
	case "json":
		return toJSON(infos)
	case "yaml":
		return toYAML(infos)
	default:
		if len(infos) == 0 {
			return ui.Muted.Render("(no collections found)") + "\n", nil
		}
		tbl := ui.NewTable(4)
		tbl.SetHeader("Collection", "Documents", "Est. Size", "Last Modified")
		for _, info := range infos {
			lastModified := info.LastModified
			if len(lastModified) > 19 {
				lastModified = lastModified[:19]
			}
			if lastModified == "" {
				lastModified = "Unknown"
			}
			tbl.AddRow(
				ui.Accent.Render(info.Name),
				strconv.Itoa(info.DocumentCount),
				info.EstimatedSize,
				ui.Muted.Render(lastModified),
			)
		}
		return tbl.String(), nil
	}
}

// renderSchema renders an inferred collection schema.
func renderSchema(cs *collections.CollectionSchema, format string) (string, error) {
	switch format {
	case "json":
		return toJSON(cs)
	case "yaml":
		return toYAML(cs)
	default:
		out := fmt.Sprintf("Collection: %s (%d documents sampled)\n\n",
			ui.AccentBold.Render(cs.CollectionName), cs.TotalDocuments)

		tbl := ui.NewTable(5)
		tbl.SetHeader("Field", "Type", "Required", "Frequency", "Samples")
		for _, field := range cs.Fields {
			required := "no"
			if field.IsRequired {
				required = "yes"
			}
			samples := ""
			for i, s := range field.SampleValues {
				if i == 3 {
					samples += fmt.Sprintf(", ... (%d total)", len(field.SampleValues))
					break
				}
				if i > 0 {
					samples += ", "
				}
				samples += s
			}
			name := field.Name
			if field.AutoField != collections.AutoNone {
				name += " " + ui.Muted.Render("(auto)")
			}
			tbl.AddRow(ui.Accent.Render(name), field.FieldType, required,
				fmt.Sprintf("%d/%d", field.Frequency, cs.TotalDocuments), samples)
		}
		out += tbl.String()

		if cs.SampleDocument != nil {
			sample, err := toJSON(cs.SampleDocument)
			if err != nil {
				return "", err
			}
			out += "\nSample document:\n" + sample
		}
		return out, nil
	}
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", NewInputError("render output", fmt.Sprintf("failed to encode JSON: %v", err))
	}
	return string(data) + "\n", nil
}

func toYAML(v any) (string, error) {
	data, err := yaml.Marshal(export.Normalize(toPlain(v)))
	if err != nil {
		return "", NewInputError("render output", fmt.Sprintf("failed to encode YAML: %v", err))
	}
	return string(data), nil
}

// toPlain round-trips structs through JSON so YAML output follows the
// same field names as JSON output.
func toPlain(v any) any {
	switch x := v.(type) {
	case map[string]any, []any:
		return v
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return v
	}
	return plain
}

// compactValue renders one field value on a single line.
func compactValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ui.Muted.Render("null")
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(data)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
