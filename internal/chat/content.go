package chat

import "strings"

type FragmentKind string

const (
	FragmentText    FragmentKind = "text"
	FragmentLink    FragmentKind = "link"
	FragmentList    FragmentKind = "list"
	FragmentContact FragmentKind = "contact"
)

// Fragment is one piece of rich message content.
type Fragment struct {
	Kind  FragmentKind `json:"kind"`
	Text  string       `json:"text,omitempty"`
	Href  string       `json:"href,omitempty"`
	Items []string     `json:"items,omitempty"`
}

type Content struct {
	Fragments []Fragment `json:"fragments"`
}

func Text(s string) Fragment {
	return Fragment{Kind: FragmentText, Text: s}
}

func Link(label, href string) Fragment {
	return Fragment{Kind: FragmentLink, Text: label, Href: href}
}

func List(items ...string) Fragment {
	return Fragment{Kind: FragmentList, Items: items}
}

func Contact(lines ...string) Fragment {
	return Fragment{Kind: FragmentContact, Items: lines}
}

func NewContent(fragments ...Fragment) Content {
	return Content{Fragments: fragments}
}

// PlainText flattens the content, one fragment or list entry per line.
func (c Content) PlainText() string {
	var lines []string
	for _, f := range c.Fragments {
		if f.Text != "" {
			lines = append(lines, f.Text)
		}
		lines = append(lines, f.Items...)
	}
	return strings.Join(lines, "\n")
}

// Links returns the hrefs carried by link fragments, in order.
func (c Content) Links() []string {
	var out []string
	for _, f := range c.Fragments {
		if f.Kind == FragmentLink {
			out = append(out, f.Href)
		}
	}
	return out
}
