// Package xmlrpc encodes the probe request and decodes the documents a
// WordPress-style site answers with: XML-RPC method responses and RSD
// (Really Simple Discovery) service descriptions.
package xmlrpc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ListMethods is the introspection method used to probe an endpoint.
const ListMethods = "system.listMethods"

// ContentType is sent with every method call.
const ContentType = "text/xml"

type methodCall struct {
	XMLName    xml.Name `xml:"methodCall"`
	MethodName string   `xml:"methodName"`
	Params     struct{} `xml:"params"`
}

// NewMethodCall returns a methodCall document for a method without
// parameters.
func NewMethodCall(method string) ([]byte, error) {
	if strings.TrimSpace(method) == "" {
		return nil, errors.New("empty method name")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(methodCall{MethodName: method}); err != nil {
		return nil, fmt.Errorf("encode method call %s: %w", method, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode method call %s: %w", method, err)
	}
	return buf.Bytes(), nil
}

// newDecoder returns a strict decoder that understands the charsets
// commonly declared by PHP hosts.
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// rootElement skips the prolog and returns the document's root element.
func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.Comment, xml.ProcInst, xml.Directive:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return xml.StartElement{}, errors.New("text before root element")
			}
		default:
			return xml.StartElement{}, fmt.Errorf("unexpected %T before root element", tok)
		}
	}
}

// expectEOF consumes the rest of the document and fails if anything other
// than whitespace, comments or processing instructions follows the root
// element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return fmt.Errorf("trailing text after root element")
			}
		default:
			return fmt.Errorf("trailing %T after root element", tok)
		}
	}
}
