package xmlrpc

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// RSD is a Really Simple Discovery document as served by WordPress at
// xmlrpc.php?rsd.
type RSD struct {
	XMLName xml.Name `xml:"rsd"`
	Service struct {
		EngineName   string `xml:"engineName"`
		HomePageLink string `xml:"homePageLink"`
		APIs         []API  `xml:"apis>api"`
	} `xml:"service"`
}

// API is one entry in an RSD service's api list.
type API struct {
	Name      string `xml:"name,attr"`
	BlogID    string `xml:"blogID,attr"`
	Preferred bool   `xml:"preferred,attr"`
	APILink   string `xml:"apiLink,attr"`
}

// ParseRSD decodes an RSD document.
func ParseRSD(r io.Reader) (*RSD, error) {
	dec := newDecoder(r)

	var doc RSD
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rsd: %w", err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, fmt.Errorf("decode rsd: %w", err)
	}
	return &doc, nil
}

// APILink picks the XML-RPC link: the WordPress api if listed, otherwise the
// preferred one, otherwise the first with a link.
func (d *RSD) APILink() (string, bool) {
	var preferred, first string
	for _, api := range d.Service.APIs {
		link := strings.TrimSpace(api.APILink)
		if link == "" {
			continue
		}
		if strings.EqualFold(api.Name, "WordPress") {
			return link, true
		}
		if api.Preferred && preferred == "" {
			preferred = link
		}
		if first == "" {
			first = link
		}
	}
	if preferred != "" {
		return preferred, true
	}
	return first, first != ""
}
