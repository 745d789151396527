package gemini

import "strings"

// toResponseSchema converts a JSON-Schema subset into Gemini's response_schema
// dialect: uppercase type names, `nullable: true` instead of ["T","null"]
// unions, null stripped from enums, and keywords the API rejects dropped.
func toResponseSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))

	for key, value := range schema {
		switch key {
		case "type":
			typeName, nullable := splitNullableType(value)
			if typeName != "" {
				out["type"] = strings.ToUpper(typeName)
			}
			if nullable {
				out["nullable"] = true
			}
		case "properties":
			props, ok := value.(map[string]any)
			if !ok {
				continue
			}
			converted := make(map[string]any, len(props))
			for name, sub := range props {
				if subSchema, ok := sub.(map[string]any); ok {
					converted[name] = toResponseSchema(subSchema)
				}
			}
			out["properties"] = converted
		case "items":
			if subSchema, ok := value.(map[string]any); ok {
				out["items"] = toResponseSchema(subSchema)
			}
		case "enum":
			values, nullable := stripNullEnum(value)
			if len(values) > 0 {
				out["enum"] = values
			}
			if nullable {
				out["nullable"] = true
			}
		case "required", "description", "format":
			out[key] = value
		default:
			// additionalProperties, $schema and friends are not part of the
			// response_schema dialect.
		}
	}
	return out
}

func splitNullableType(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, false
	case []string:
		return pickNonNull(v)
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return pickNonNull(names)
	default:
		return "", false
	}
}

func pickNonNull(names []string) (string, bool) {
	typeName := ""
	nullable := false
	for _, name := range names {
		if name == "null" {
			nullable = true
			continue
		}
		if typeName == "" {
			typeName = name
		}
	}
	return typeName, nullable
}

func stripNullEnum(value any) ([]any, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]any, 0, len(items))
	nullable := false
	for _, item := range items {
		if item == nil {
			nullable = true
			continue
		}
		out = append(out, item)
	}
	return out, nullable
}
