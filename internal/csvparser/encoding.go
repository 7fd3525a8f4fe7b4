package csvparser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// CHARACTER ENCODING
// =============================================================================
// Spreadsheet tools on French-locale Windows still save CSV as Windows-1252,
// and Excel's "Unicode text" export is UTF-16 with a BOM. Both are common in
// the files this tool receives.

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts data to a UTF-8 string.
//
// PARAMETERS:
//   - data: The raw bytes.
//   - declared: An encoding name from the configuration ("utf-8",
//     "windows-1252", "iso-8859-15", "utf-16", ...). Empty means detect.
//
// RETURNS:
//   - The decoded text, without any byte order mark.
//   - The name of the encoding that was used.
//   - An error if the declared encoding is unknown or decoding fails.
func Decode(data []byte, declared string) (string, string, error) {
	declared = strings.ToLower(strings.TrimSpace(declared))

	if declared != "" && declared != "auto" {
		enc, name, err := lookupEncoding(declared)
		if err != nil {
			return "", "", err
		}
		text, err := decodeWith(enc, data)
		if err != nil {
			return "", "", err
		}
		return strings.TrimPrefix(text, "\uFEFF"), name, nil
	}

	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), "utf-8", nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		text, err := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
		if err != nil {
			return "", "", err
		}
		return text, "utf-16", nil
	case utf8.Valid(data):
		return string(data), "utf-8", nil
	default:
		text, err := decodeWith(charmap.Windows1252, data)
		if err != nil {
			return "", "", err
		}
		return text, "windows-1252", nil
	}
}

func lookupEncoding(name string) (encoding.Encoding, string, error) {
	switch name {
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), "utf-16", nil
	case "latin1", "latin-1":
		return charmap.ISO8859_1, "iso-8859-1", nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, "", fmt.Errorf("unknown encoding %q", name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = name
	}
	return enc, canonical, nil
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode input: %w", err)
	}
	return string(out), nil
}
