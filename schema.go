package results

import (
	"fmt"
	"sort"
	"strings"
)

// ToolSchema is the set of queryable fields for one tool revision. Field
// names are namespaced "input.<name>" or "output.<name>"; uniqueness holds
// only within a single tool.
type ToolSchema struct {
	// Tool is the tool the schema belongs to.
	Tool string

	fields []string
	set    map[string]bool
}

// Fields returns the field names in a stable order: input fields first, then
// output fields, each group sorted alphabetically.
func (s *ToolSchema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Has reports whether the named field exists in the schema.
func (s *ToolSchema) Has(field string) bool {
	return s.set[field]
}

// newToolSchema builds a ToolSchema from namespaced field names.
func newToolSchema(tool string, fields []string) *ToolSchema {
	s := &ToolSchema{
		Tool:   tool,
		fields: fields,
		set:    make(map[string]bool, len(fields)),
	}
	for _, f := range fields {
		s.set[f] = true
	}
	return s
}

// parseToolSchema extracts the field list from a tool_detail response.
//
// The envelope nests the schema as results[0][tool].input / .output, each an
// object keyed by bare field name. JSON objects carry no order, so the field
// list is normalized: sorted inputs followed by sorted outputs.
func parseToolSchema(tool string, resp *Response) (*ToolSchema, error) {
	if !resp.Success {
		return nil, fmt.Errorf("failed to fetch schema for tool %q: %s",
			tool, orUnknown(resp.Message))
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("tool %q not found or has no schema", tool)
	}

	v, ok := resp.Results[0][tool]
	if !ok {
		return nil, fmt.Errorf("tool %q schema is empty or malformed", tool)
	}
	detail, ok := v.Scalar().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tool %q schema is empty or malformed", tool)
	}

	var fields []string
	fields = append(fields, namespacedKeys("input", detail["input"])...)
	fields = append(fields, namespacedKeys("output", detail["output"])...)
	if len(fields) == 0 {
		return nil, fmt.Errorf("tool %q has no input or output fields defined", tool)
	}

	return newToolSchema(tool, fields), nil
}

// namespacedKeys returns the sorted keys of a schema section prefixed with
// its namespace (e.g., "input.Ef").
func namespacedKeys(ns string, section any) []string {
	m, ok := section.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, ns+"."+k)
	}
	sort.Strings(keys)
	return keys
}

func orUnknown(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return "unknown error"
	}
	return msg
}
