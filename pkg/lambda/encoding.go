package lambda

import (
	"encoding/base64"
	"net/http"
	"regexp"
)

// Content types whose bodies are returned as UTF-8 text. Everything else,
// application/yaml included, is base64 encoded.
var textContentTypes = []*regexp.Regexp{
	regexp.MustCompile(`^text/`),
	regexp.MustCompile(`^application/(dart|(java|ecma|post)script)`),
	regexp.MustCompile(`^application/(.+\+)?(json|xml)`),
}

// IsBinary reports whether a response with the given headers must be
// base64 encoded in the reply envelope.
func IsBinary(header http.Header) bool {
	if enc := header.Get("Content-Encoding"); enc != "" && enc != "identity" {
		return true
	}
	contentType := header.Get("Content-Type")
	for _, re := range textContentTypes {
		if re.MatchString(contentType) {
			return false
		}
	}
	return true
}

func encodeBody(body []byte, binary bool) string {
	if binary {
		return base64.StdEncoding.EncodeToString(body)
	}
	return string(body)
}
