package xmlrpc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNotMethodResponse is returned when a document is well-formed XML but is
// not an XML-RPC methodResponse.
var ErrNotMethodResponse = errors.New("not an XML-RPC methodResponse")

// Fault is the payload of a fault response.
type Fault struct {
	Code   int
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xml-rpc fault %d: %s", f.Code, f.String)
}

// Response is a decoded methodResponse. Exactly one of Fault and Params is
// meaningful: Fault is non-nil for fault responses.
type Response struct {
	Fault  *Fault
	Params []Value
}

// Methods returns the method names of a system.listMethods answer. It is
// empty for faults and for responses whose first param is not an array.
func (r *Response) Methods() []string {
	if r.Fault != nil || len(r.Params) == 0 {
		return nil
	}
	var methods []string
	for _, v := range r.Params[0].Array {
		if s, ok := v.Str(); ok {
			methods = append(methods, s)
		}
	}
	return methods
}

// Value is a decoded XML-RPC value. Scalars keep their lexical form.
type Value struct {
	Kind   string // "string", "int", "boolean", "double", "base64", "dateTime.iso8601", "array", "struct", "nil"
	Text   string
	Array  []Value
	Struct map[string]Value
}

// Str returns the value's text when it is a string.
func (v Value) Str() (string, bool) {
	if v.Kind != "string" {
		return "", false
	}
	return v.Text, true
}

// Int returns the value as an integer when it is an int or i4.
func (v Value) Int() (int, bool) {
	if v.Kind != "int" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.Text))
	if err != nil {
		return 0, false
	}
	return n, true
}

type rawMember struct {
	Name  string   `xml:"name"`
	Value rawValue `xml:"value"`
}

type rawValue struct {
	Inner []rawScalar `xml:",any"`
	Text  string      `xml:",chardata"`
}

type rawScalar struct {
	XMLName xml.Name `xml:""`
	Text    string   `xml:",chardata"`
	Data    *struct {
		Values []rawValue `xml:"value"`
	} `xml:"data"`
	Members []rawMember `xml:"member"`
}

type rawResponse struct {
	XMLName xml.Name `xml:"methodResponse"`
	Params  *struct {
		Param []struct {
			Value rawValue `xml:"value"`
		} `xml:"param"`
	} `xml:"params"`
	Fault *struct {
		Value rawValue `xml:"value"`
	} `xml:"fault"`
}

// ParseResponse decodes an XML-RPC methodResponse. Both success and fault
// payloads are accepted; the document must be well-formed with a
// methodResponse root and nothing after it.
func ParseResponse(r io.Reader) (*Response, error) {
	dec := newDecoder(r)

	root, err := rootElement(dec)
	if err != nil {
		return nil, fmt.Errorf("decode methodResponse: %w", err)
	}
	if root.Name.Local != "methodResponse" {
		return nil, fmt.Errorf("%w: root element <%s>", ErrNotMethodResponse, root.Name.Local)
	}

	var raw rawResponse
	if err := dec.DecodeElement(&raw, &root); err != nil {
		return nil, fmt.Errorf("decode methodResponse: %w", err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, fmt.Errorf("decode methodResponse: %w", err)
	}

	switch {
	case raw.Fault != nil && raw.Params != nil:
		return nil, fmt.Errorf("%w: both params and fault present", ErrNotMethodResponse)
	case raw.Fault != nil:
		v, err := raw.Fault.Value.decode()
		if err != nil {
			return nil, fmt.Errorf("decode fault: %w", err)
		}
		return &Response{Fault: faultFrom(v)}, nil
	case raw.Params != nil:
		resp := &Response{}
		for i, p := range raw.Params.Param {
			v, err := p.Value.decode()
			if err != nil {
				return nil, fmt.Errorf("decode param %d: %w", i, err)
			}
			resp.Params = append(resp.Params, v)
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: neither params nor fault present", ErrNotMethodResponse)
	}
}

func faultFrom(v Value) *Fault {
	f := &Fault{}
	if code, ok := v.Struct["faultCode"]; ok {
		f.Code, _ = code.Int()
	}
	if msg, ok := v.Struct["faultString"]; ok {
		f.String = msg.Text
	}
	return f
}

func (rv rawValue) decode() (Value, error) {
	// A value without a type element is a string.
	if len(rv.Inner) == 0 {
		return Value{Kind: "string", Text: rv.Text}, nil
	}
	if len(rv.Inner) > 1 {
		return Value{}, fmt.Errorf("value has %d type elements", len(rv.Inner))
	}

	inner := rv.Inner[0]
	switch kind := inner.XMLName.Local; kind {
	case "string", "boolean", "double", "base64", "dateTime.iso8601":
		return Value{Kind: kind, Text: inner.Text}, nil
	case "int", "i4", "i8":
		return Value{Kind: "int", Text: inner.Text}, nil
	case "nil":
		return Value{Kind: "nil"}, nil
	case "array":
		v := Value{Kind: "array"}
		if inner.Data == nil {
			return Value{}, errors.New("array without data")
		}
		for _, item := range inner.Data.Values {
			dv, err := item.decode()
			if err != nil {
				return Value{}, err
			}
			v.Array = append(v.Array, dv)
		}
		return v, nil
	case "struct":
		v := Value{Kind: "struct", Struct: make(map[string]Value, len(inner.Members))}
		for _, m := range inner.Members {
			mv, err := m.Value.decode()
			if err != nil {
				return Value{}, fmt.Errorf("member %s: %w", m.Name, err)
			}
			v.Struct[m.Name] = mv
		}
		return v, nil
	default:
		return Value{}, fmt.Errorf("unknown value type <%s>", kind)
	}
}
