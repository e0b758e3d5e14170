package mdconv

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// decodeInput transcodes raw into UTF-8 using the encoding named by hint
// (an IANA/WHATWG label such as "windows-1252" or "shift_jis"). An empty
// hint means the input is already UTF-8 and is returned as a string
// without transcoding. Decode failures surface as
// DecodingError (spec §7) and abort the conversion.
//
// Transcoding runs through a transform.Reader rather than the decoder's
// own Bytes helper so it streams through the same chain a larger input
// would use instead of requiring the whole buffer up front.
func decodeInput(raw []byte, hint string) (string, error) {
	if hint == "" {
		return string(raw), nil
	}
	enc, err := htmlindex.Get(hint)
	if err != nil {
		return "", &DecodingError{Encoding: hint, Err: err}
	}
	r := transform.NewReader(bytes.NewReader(raw), enc.NewDecoder())
	out, err := io.ReadAll(r)
	if err != nil {
		return "", &DecodingError{Encoding: hint, Err: err}
	}
	return string(out), nil
}

// detectEncodingHint inspects the first 2048 bytes of raw HTML for a
// <meta charset="..."> or <meta http-equiv="Content-Type" content="...;
// charset=..."> declaration, returning the declared label or "" if
// none is found. Only consulted when the caller did not supply an
// explicit Encoding option.
func detectEncodingHint(raw []byte) string {
	head := raw
	if len(head) > 2048 {
		head = head[:2048]
	}
	s := strings.ToLower(string(head))
	if i := strings.Index(s, "charset="); i != -1 {
		rest := s[i+len("charset="):]
		rest = strings.TrimLeft(rest, `"' `)
		end := strings.IndexAny(rest, `"' >;`)
		if end == -1 {
			end = len(rest)
		}
		label := strings.TrimSpace(rest[:end])
		if label != "" && label != "utf-8" && label != "utf8" {
			return label
		}
	}
	return ""
}
