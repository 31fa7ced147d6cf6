package dag

import (
	"strconv"
	"strings"

	"github.com/kbukum/gobatch/errors"
)

// Segment is one step of a reference path: a field name or an array index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Field returns a field segment.
func Field(name string) Segment { return Segment{Name: name} }

// Index returns an index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// Reference addresses a value inside a parent's result. The path is rooted at
// the result object {Status, Headers, Content}.
//
//	$.1.Content.WebId
//	$.1.Content.Items[0].Value
//	$.1.Headers.Location
type Reference struct {
	Parent NodeID
	Path   []Segment
}

// ParseReference parses the $.<parent>.<path> syntax.
func ParseReference(s string) (Reference, error) {
	if !strings.HasPrefix(s, "$.") {
		return Reference{}, errors.InvalidInput("parameters", "reference "+strconv.Quote(s)+" must start with \"$.\"")
	}
	rest := s[2:]
	end := strings.IndexAny(rest, ".[")
	if end < 0 {
		end = len(rest)
	}
	parent := rest[:end]
	if parent == "" {
		return Reference{}, errors.InvalidInput("parameters", "reference "+strconv.Quote(s)+" has no parent id")
	}

	path, err := parsePath(rest[end:])
	if err != nil {
		return Reference{}, errors.InvalidInput("parameters", "reference "+strconv.Quote(s)+": "+err.Error())
	}
	return Reference{Parent: NodeID(parent), Path: path}, nil
}

// MustParseReference is ParseReference for literals; it panics on error.
func MustParseReference(s string) Reference {
	ref, err := ParseReference(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// String renders the reference in its wire syntax.
func (r Reference) String() string {
	p := formatPath(r.Path)
	if p == "" {
		return "$." + string(r.Parent)
	}
	if p[0] == '[' {
		return "$." + string(r.Parent) + p
	}
	return "$." + string(r.Parent) + "." + p
}

type pathError string

func (e pathError) Error() string { return string(e) }

func parsePath(p string) ([]Segment, error) {
	var segs []Segment
	for i := 0; i < len(p); {
		switch p[i] {
		case '.':
			j := i + 1
			for j < len(p) && p[j] != '.' && p[j] != '[' {
				j++
			}
			if j == i+1 {
				return nil, pathError("empty path segment")
			}
			segs = append(segs, Field(p[i+1:j]))
			i = j
		case '[':
			j := strings.IndexByte(p[i:], ']')
			if j < 0 {
				return nil, pathError("unterminated '['")
			}
			seg, err := bracketSegment(p[i+1 : i+j])
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i += j + 1
		default:
			return nil, pathError("unexpected character " + strconv.QuoteRune(rune(p[i])))
		}
	}
	return segs, nil
}

// bracketSegment accepts [3] and the quoted forms ['Name'] and ["Name"].
func bracketSegment(inner string) (Segment, error) {
	if len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0] {
		return Field(inner[1 : len(inner)-1]), nil
	}
	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 {
		return Segment{}, pathError("invalid index " + strconv.Quote(inner))
	}
	return Index(n), nil
}

func formatPath(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		switch {
		case s.IsIndex:
			b.WriteString(s.String())
		case strings.ContainsAny(s.Name, ".[]") || s.Name == "":
			b.WriteString("['" + s.Name + "']")
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Name)
		}
	}
	return b.String()
}
