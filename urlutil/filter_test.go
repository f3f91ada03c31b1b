package urlutil

import (
	"net/url"
	"testing"
)

func TestIsHTTPScheme(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "https://mywordpresssite.com/xmlrpc.php", want: true},
		{input: "http://mywordpresssite.com", want: true},
		{input: "HTTP://mywordpresssite.com", want: true},
		{input: "hppt://mywordpresssite.com/test", want: false},
		{input: "ftp://mywordpresssite.com/test", want: false},
		{input: "git://mywordpresssite.com/test", want: false},
		{input: "javascript:void(0)", want: false},
		{input: "mywordpresssite.com/xmlrpc.php", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		if got := IsHTTPScheme(tt.input); got != tt.want {
			t.Errorf("IsHTTPScheme(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestResolveReference(t *testing.T) {
	base, err := url.Parse("http://mywordpresssite.com/blog/xmlrpc.php")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		ref      string
		expected string
		wantErr  bool
	}{
		{
			name:     "absolute URL returned as-is",
			ref:      "https://mywordpresssite.com/xmlrpc.php",
			expected: "https://mywordpresssite.com/xmlrpc.php",
		},
		{
			name:     "relative path resolved",
			ref:      "other.php",
			expected: "http://mywordpresssite.com/blog/other.php",
		},
		{
			name:     "root-relative resolved",
			ref:      "/xmlrpc.php?rsd",
			expected: "http://mywordpresssite.com/xmlrpc.php?rsd",
		},
		{
			name:     "protocol-relative",
			ref:      "//cdn.example.com/xmlrpc.php",
			expected: "http://cdn.example.com/xmlrpc.php",
		},
		{
			name:     "fragment dropped",
			ref:      "/xmlrpc.php#top",
			expected: "http://mywordpresssite.com/xmlrpc.php",
		},
		{
			name:    "empty reference",
			ref:     "  ",
			wantErr: true,
		},
		{
			name:    "non-HTTP scheme",
			ref:     "ftp://mywordpresssite.com/xmlrpc.php",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveReference(base, tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveReference() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.String() != tt.expected {
				t.Errorf("ResolveReference(%q) = %v, want %v", tt.ref, got, tt.expected)
			}
		})
	}
}
