// Package xmldoc re-parses rendered XML and writes it back in a canonical indented form.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Indent is the indentation unit of normalized documents.
const Indent = "  "

// Normalize parses data as a single XML document and serializes it again: the XML
// declaration first, then any processing instructions found before the root element,
// then the element tree with whitespace-only text removed and two-space indentation.
// A document that is not well-formed is returned as an error.
func Normalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var (
		body  bytes.Buffer
		head  bytes.Buffer
		stack []string
		roots int
	)

	enc := xml.NewEncoder(&body)
	enc.Indent("", Indent)

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				roots++
				if roots > 1 {
					return nil, fmt.Errorf("malformed xml: more than one root element (%s)", qualified(t.Name))
				}
			}
			name := qualified(t.Name)
			stack = append(stack, name)

			start := xml.StartElement{Name: xml.Name{Local: name}}
			for _, attr := range t.Attr {
				start.Attr = append(start.Attr, xml.Attr{
					Name:  xml.Name{Local: qualified(attr.Name)},
					Value: attr.Value,
				})
			}
			if err := enc.EncodeToken(start); err != nil {
				return nil, err
			}

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("malformed xml: unexpected end element </%s>", name)
			}
			if open := stack[len(stack)-1]; open != name {
				return nil, fmt.Errorf("malformed xml: element <%s> closed by </%s>", open, name)
			}
			stack = stack[:len(stack)-1]
			if err := enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); err != nil {
				return nil, err
			}

		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("malformed xml: text outside the root element")
			}
			if err := enc.EncodeToken(t.Copy()); err != nil {
				return nil, err
			}

		case xml.Comment:
			if len(stack) == 0 {
				continue
			}
			if err := enc.EncodeToken(t.Copy()); err != nil {
				return nil, err
			}

		case xml.ProcInst:
			if t.Target == "xml" || roots > 0 {
				continue
			}
			fmt.Fprintf(&head, "<?%s %s?>\n", t.Target, bytes.TrimSpace(t.Inst))
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("malformed xml: element <%s> is not closed", stack[len(stack)-1])
	}
	if roots == 0 {
		return nil, fmt.Errorf("malformed xml: no root element")
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(xml.Header)+head.Len()+body.Len()+1)
	out = append(out, xml.Header...)
	out = append(out, head.Bytes()...)
	out = append(out, body.Bytes()...)
	out = append(out, '\n')
	return out, nil
}

// qualified keeps the prefix of a raw name as part of its local part so the tree is
// written back with the prefixes it was parsed with.
func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
