package result

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
)

func sampleSites() []SiteResult {
	return []SiteResult{
		{
			Site:     "mywordpresssite.com",
			Endpoint: "http://mywordpresssite.com/xmlrpc.php?a=1&b=2",
			Source:   "appended",
			Methods:  80,
			Probes:   1,
		},
		{
			Site:      "ftp://mywordpresssite.com/test",
			ErrorKind: "unsupported_scheme",
			Error:     `unsupported scheme: "ftp://mywordpresssite.com/test"`,
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSites()); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var decoded []SiteResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 sites, got %d", len(decoded))
	}

	// Verify field names are snake_case
	var raw []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to unmarshal to map: %v", err)
	}
	for _, key := range []string{"site", "endpoint", "source", "methods", "probes"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("Expected %q field in JSON output", key)
		}
	}
	if _, ok := raw[0]["error"]; ok {
		t.Error("error field should be omitted for resolved site")
	}
	if _, ok := raw[1]["error_type"]; !ok {
		t.Error("Expected 'error_type' field for failed site")
	}

	// Verify URLs are not HTML-escaped
	if !strings.Contains(buf.String(), "xmlrpc.php?a=1&b=2") {
		t.Error("URLs should not be HTML-escaped")
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	// Should output empty array
	if !bytes.Equal(buf.Bytes(), []byte("[]\n")) {
		t.Errorf("Expected '[]\\n', got %q", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleSites()); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}

	expectedHeader := []string{"site", "endpoint", "source", "methods", "probes", "error_type", "error"}
	if len(records) != 3 { // header + 2 data rows
		t.Fatalf("Expected 3 records (header + 2 data), got %d", len(records))
	}
	for i, col := range expectedHeader {
		if records[0][i] != col {
			t.Errorf("Header column %d: expected %q, got %q", i, col, records[0][i])
		}
	}

	if records[1][1] != "http://mywordpresssite.com/xmlrpc.php?a=1&b=2" {
		t.Errorf("Expected endpoint in row 1, got %q", records[1][1])
	}
	if records[1][3] != "80" {
		t.Errorf("Expected methods '80' in row 1, got %q", records[1][3])
	}
	if records[2][1] != "" {
		t.Errorf("Expected empty endpoint in row 2, got %q", records[2][1])
	}
	if records[2][5] != "unsupported_scheme" {
		t.Errorf("Expected error_type 'unsupported_scheme' in row 2, got %q", records[2][5])
	}
}

func TestWriteCSV_EmptyWithHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record (header only), got %d", len(records))
	}
}
