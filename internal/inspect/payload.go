package inspect

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/url"
	"strings"
)

// SnippetLength is the number of runes of a serialized payload carried in
// classification results and broadcast events.
const SnippetLength = 150

// Serialize renders a request's body and query into the single document the
// rules are evaluated against: {"body":<body>,"query":<query>}.
//
// JSON bodies keep their field order. Form bodies and the query become
// objects. Anything else, including malformed JSON, is embedded as a string
// of its raw text, so every input has a serialization.
func Serialize(contentType string, body []byte, query url.Values) string {
	var buf bytes.Buffer
	buf.WriteString(`{"body":`)
	buf.Write(serializeBody(contentType, body))
	buf.WriteString(`,"query":`)
	buf.Write(encodeValues(query))
	buf.WriteByte('}')
	return buf.String()
}

func serializeBody(contentType string, body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []byte("{}")
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		if form, err := url.ParseQuery(string(trimmed)); err == nil {
			return encodeValues(form)
		}
	case mediaType == "" || mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err == nil {
			return compact.Bytes()
		}
	}

	return encode(string(body))
}

func encodeValues(values url.Values) []byte {
	obj := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) == 1 {
			obj[k] = v[0]
		} else {
			obj[k] = v
		}
	}
	return encode(obj)
}

// encode marshals v without escaping HTML characters; the XSS rules must see
// '<' and '>' as written by the client.
func encode(v interface{}) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return []byte("{}")
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}
