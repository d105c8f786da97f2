package nfo

import (
	"encoding/xml"
	"fmt"
)

// Header is prepended to every rendered descriptor.
const Header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"

// File is a rendered descriptor and its path relative to the item root.
type File struct {
	Path string
	Data []byte
}

// Render serializes the document. Element order follows the struct field
// order and lists keep record order, so equal documents render to equal
// bytes. The main descriptor comes first, then episodes in document order.
func Render(doc *Document) ([]File, error) {
	var main any
	switch {
	case doc == nil:
		return nil, fmt.Errorf("render: nil document")
	case doc.Movie != nil:
		main = doc.Movie
	case doc.Show != nil:
		main = doc.Show
	default:
		return nil, fmt.Errorf("render: empty document")
	}
	data, err := encode(main)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", doc.Path, err)
	}
	files := []File{{Path: doc.Path, Data: data}}
	for _, ep := range doc.Episodes {
		data, err := encode(ep.Details)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", ep.Path, err)
		}
		files = append(files, File{Path: ep.Path, Data: data})
	}
	return files, nil
}

func encode(v any) ([]byte, error) {
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(Header)+len(b)+1)
	out = append(out, Header...)
	out = append(out, b...)
	return append(out, '\n'), nil
}
