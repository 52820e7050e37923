package docstore

import (
	"fmt"
	"net/url"
	"strings"
)

// Path addresses a document (an even number of segments) or a collection
// (an odd number), relative to the database's documents root. The empty
// Path is the root.
type Path []string

// Doc builds a path from alternating collection and id segments.
func Doc(segments ...string) Path {
	return append(Path(nil), segments...)
}

// ParsePath splits a slash-separated path. Leading and trailing slashes
// are ignored.
func ParsePath(s string) (Path, error) {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil, nil
	}
	p := Path(strings.Split(s, "/"))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate rejects empty segments and segments containing a slash.
func (p Path) Validate() error {
	for i, seg := range p {
		if seg == "" {
			return fmt.Errorf("docstore: path %q has an empty segment at %d", p.String(), i)
		}
		if strings.Contains(seg, "/") {
			return fmt.Errorf("docstore: path segment %q contains '/'", seg)
		}
	}
	return nil
}

func (p Path) IsDocument() bool { return len(p) > 0 && len(p)%2 == 0 }

// Child returns p/collection/id.
func (p Path) Child(collection, id string) Path {
	out := make(Path, 0, len(p)+2)
	out = append(out, p...)
	return append(out, collection, id)
}

// Collection returns p/collection.
func (p Path) Collection(name string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, name)
}

// ID is the last segment.
func (p Path) ID() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent drops the last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

func (p Path) String() string { return strings.Join(p, "/") }

// escaped returns the path with each segment escaped for use in a URL.
func (p Path) escaped() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = url.PathEscape(seg)
	}
	return strings.Join(parts, "/")
}

// Users is the root collection of per-user documents.
func Users(uid string) Path { return Doc("users", uid) }
