package memory

import (
	"fmt"
	"strings"

	contractx "github.com/merrysway/brewflow/agent/contract"
	statex "github.com/merrysway/brewflow/agent/state"
)

// Apply merges a MemoryIntent into a preference record. Operation sets are
// applied in a fixed order — add_or_update, remove, replace — so later
// operations override earlier ones on the same field. The input record is
// not mutated.
func Apply(mem statex.UserMemory, intent contractx.MemoryIntent) statex.UserMemory {
	out := mem.Clone()
	for key, val := range intent.AddOrUpdate {
		addOrUpdateField(&out, key, val)
	}
	for key, val := range intent.Remove {
		removeField(&out, key, val)
	}
	for key, val := range intent.Replace {
		replaceField(&out, key, val)
	}
	return out
}

// addOrUpdateField unions values into list fields (deduplicated
// case-insensitively, first-seen casing wins) and overwrites scalar fields.
func addOrUpdateField(mem *statex.UserMemory, key string, val any) {
	if list, ok := listField(mem, key); ok {
		*list = union(*list, toStrings(val))
		return
	}
	if scalar, ok := scalarField(mem, key); ok {
		*scalar = toString(val)
	}
}

// removeField deletes matching list entries case-insensitively, or nulls a
// scalar only when it exactly equals the given value.
func removeField(mem *statex.UserMemory, key string, val any) {
	if list, ok := listField(mem, key); ok {
		drop := make(map[string]struct{})
		for _, v := range toStrings(val) {
			drop[strings.ToLower(v)] = struct{}{}
		}
		kept := (*list)[:0]
		for _, existing := range *list {
			if _, hit := drop[strings.ToLower(existing)]; !hit {
				kept = append(kept, existing)
			}
		}
		*list = kept
		return
	}
	if scalar, ok := scalarField(mem, key); ok {
		if *scalar == toString(val) {
			*scalar = ""
		}
	}
}

// replaceField overwrites a field wholesale, for any field type.
func replaceField(mem *statex.UserMemory, key string, val any) {
	if list, ok := listField(mem, key); ok {
		*list = toStrings(val)
		return
	}
	if scalar, ok := scalarField(mem, key); ok {
		*scalar = toString(val)
	}
}

func listField(mem *statex.UserMemory, key string) (*[]string, bool) {
	switch key {
	case "likes":
		return &mem.Likes, true
	case "dislikes":
		return &mem.Dislikes, true
	case "allergies":
		return &mem.Allergies, true
	case "feedback":
		return &mem.Feedback, true
	}
	return nil, false
}

func scalarField(mem *statex.UserMemory, key string) (*string, bool) {
	switch key {
	case "name":
		return &mem.Name, true
	case "last_order":
		return &mem.LastOrder, true
	case "location":
		return &mem.Location, true
	}
	return nil, false
}

func union(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := append([]string(nil), existing...)
	for _, v := range existing {
		seen[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range incoming {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func toStrings(val any) []string {
	switch v := val.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(toString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case nil:
		return nil
	default:
		if s := strings.TrimSpace(toString(val)); s != "" {
			return []string{s}
		}
		return nil
	}
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
