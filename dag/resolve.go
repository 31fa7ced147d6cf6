package dag

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kbukum/gobatch/errors"
)

// Resolve evaluates ref against the published results. It fails with
// PARENT_NOT_YET_EXECUTED when the parent has no result and with
// FIELD_PATH_NOT_FOUND at the first segment that does not resolve.
func Resolve(ref Reference, results map[NodeID]*NodeResult) (Value, error) {
	r, ok := results[ref.Parent]
	if !ok || r == nil {
		return Value{}, errors.ParentNotYetExecuted(string(ref.Parent))
	}

	cur := r.Object()
	for i, seg := range ref.Path {
		// Header names match case-insensitively.
		if i == 1 && !seg.IsIndex && ref.Path[0] == Field("Headers") {
			seg = Field(http.CanonicalHeaderKey(seg.Name))
		}
		next, ok := step(cur, seg)
		if !ok {
			return Value{}, errors.FieldPathNotFound(string(ref.Parent), formatPath(ref.Path[:i+1]))
		}
		cur = next
	}
	return cur, nil
}

func step(v Value, seg Segment) (Value, bool) {
	switch v.Kind() {
	case KindObject:
		if seg.IsIndex {
			return v.Field(strconv.Itoa(seg.Index))
		}
		return v.Field(seg.Name)
	case KindArray:
		if seg.IsIndex {
			return v.Index(seg.Index)
		}
		i, err := strconv.Atoi(seg.Name)
		if err != nil {
			return Value{}, false
		}
		return v.Index(i)
	case KindNull, KindBool, KindNumber, KindString:
		return Value{}, false
	}
	return Value{}, false
}

// ResolveAll evaluates every reference of a node in order.
func ResolveAll(refs []Reference, results map[NodeID]*NodeResult) ([]Value, error) {
	values := make([]Value, len(refs))
	for i, ref := range refs {
		v, err := Resolve(ref, results)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// FillTemplate replaces each {i} in template with values[i].Text().
// Placeholders without a matching value are left as they are.
//
// Substitution is textual. A string value is inserted without JSON escaping,
// so filling {"Name":"{0}"} with a"b yields invalid JSON. Place {i} outside
// quotes to insert a value as compact JSON, or make sure referenced strings
// need no escaping.
func FillTemplate(template string, values []Value) string {
	if len(values) == 0 || !strings.Contains(template, "{") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		if template[i] == '{' {
			j := i + 1
			for j < len(template) && template[j] >= '0' && template[j] <= '9' {
				j++
			}
			if j > i+1 && j < len(template) && template[j] == '}' {
				if n, err := strconv.Atoi(template[i+1 : j]); err == nil && n < len(values) {
					b.WriteString(values[n].Text())
					i = j + 1
					continue
				}
			}
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String()
}
