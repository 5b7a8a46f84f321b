package mention

import (
	"strings"

	"golang.org/x/net/html"
)

// Ref is a decorated user reference embedded in a comment's rich text.
type Ref struct {
	UserGID  string
	UserName string
}

// ExtractRefs parses a comment's rich-text body and returns the user
// references embedded in it. The tracker encodes a mention as an anchor
// carrying the user's GID:
//
//	<a data-asana-type="user" data-asana-gid="GID">@Name</a>
//
// Only this decorated form is detected. A plain-text "@Name" without the
// embedded GID is not a mention under this contract.
func ExtractRefs(richText string) []Ref {
	if richText == "" {
		return nil
	}

	root, err := html.Parse(strings.NewReader(richText))
	if err != nil {
		return nil
	}

	var refs []Ref
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if ref, ok := userRef(n); ok {
				refs = append(refs, ref)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return refs
}

// userRef extracts a Ref from an anchor node if it is a user mention.
func userRef(n *html.Node) (Ref, bool) {
	var gid string
	isUser := false
	for _, attr := range n.Attr {
		switch attr.Key {
		case "data-asana-type":
			isUser = attr.Val == "user"
		case "data-asana-gid":
			gid = attr.Val
		}
	}
	if !isUser || gid == "" {
		return Ref{}, false
	}

	name := strings.TrimPrefix(strings.TrimSpace(nodeText(n)), "@")
	return Ref{UserGID: gid, UserName: name}, true
}

// nodeText collects the text content of a node's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
