package atom

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// ParseDocument parses a management response body and returns its root
// element. Malformed XML and documents without a root element are
// reported as ErrEntityNotFound because the response cannot contain the
// requested entity.
func ParseDocument(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: malformed document: %v", ErrEntityNotFound, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: document has no root element", ErrEntityNotFound)
	}
	return root, nil
}

// UnwrapEntry validates the Atom entry envelope and returns the entry
// title together with the entity body named bodyName. Every structural
// defect, from a wrong root element to an empty title, is reported as
// ErrEntityNotFound.
func UnwrapEntry(root *etree.Element, bodyName string) (string, *etree.Element, error) {
	if root.Tag != "entry" {
		return "", nil, fmt.Errorf("%w: root element is %q, want entry", ErrEntityNotFound, root.Tag)
	}
	titleEl := childInNamespace(root, "title", NamespaceAtom)
	if titleEl == nil {
		return "", nil, fmt.Errorf("%w: entry has no title", ErrEntityNotFound)
	}
	title := strings.TrimSpace(titleEl.Text())
	if title == "" {
		return "", nil, fmt.Errorf("%w: entry title is empty", ErrEntityNotFound)
	}
	content := childInNamespace(root, "content", NamespaceAtom)
	if content == nil {
		return "", nil, fmt.Errorf("%w: entry has no content", ErrEntityNotFound)
	}
	body := childNamed(content, bodyName)
	if body == nil {
		return "", nil, fmt.Errorf("%w: content has no %s element", ErrEntityNotFound, bodyName)
	}
	return title, body, nil
}

// UnwrapFeed validates the Atom feed envelope and returns its entry
// elements in document order. A feed without entries is how the service
// reports an empty collection, so that case is ErrEntityNotFound as
// well.
func UnwrapFeed(root *etree.Element) ([]*etree.Element, error) {
	if root.Tag != "feed" {
		return nil, fmt.Errorf("%w: root element is %q, want feed", ErrEntityNotFound, root.Tag)
	}
	var entries []*etree.Element
	for _, child := range root.ChildElements() {
		if child.Tag == "entry" && child.NamespaceURI() == NamespaceAtom {
			entries = append(entries, child)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: feed has no entries", ErrEntityNotFound)
	}
	return entries, nil
}

// WrapEntry builds the Atom entry document for a request payload. The
// body element is adopted by the document, so callers must not attach it
// elsewhere afterwards.
func WrapEntry(title string, body *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	entry := doc.CreateElement("entry")
	entry.CreateAttr("xmlns", NamespaceAtom)
	titleEl := entry.CreateElement("title")
	titleEl.CreateAttr("type", "text")
	titleEl.SetText(title)
	content := entry.CreateElement("content")
	content.CreateAttr("type", "application/xml")
	content.AddChild(body)
	return doc
}

// childNamed returns the first child element with the given local name,
// regardless of namespace.
func childNamed(parent *etree.Element, name string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == name {
			return child
		}
	}
	return nil
}

// childInNamespace returns the first child element with the given local
// name whose resolved namespace matches ns.
func childInNamespace(parent *etree.Element, name, ns string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == name && child.NamespaceURI() == ns {
			return child
		}
	}
	return nil
}
