package archive

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// ReadMets loads a URN's METS record and returns it re-indented for
// display.
func (a *Archive) ReadMets(urn string) (string, error) {
	path, err := a.MetsPath(urn)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read metadata file %s: %w", path, err)
	}
	return FormatXML(raw), nil
}

// FormatXML re-indents an XML document, dropping whitespace-only text
// nodes. Documents that fail to parse come back unchanged.
func FormatXML(raw []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf bytes.Buffer
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return string(raw)
		}

		if chars, ok := token.(xml.CharData); ok && len(bytes.TrimSpace(chars)) == 0 {
			continue
		}
		if err := encoder.EncodeToken(token); err != nil {
			return string(raw)
		}
	}

	if err := encoder.Flush(); err != nil {
		return string(raw)
	}
	return buf.String()
}
