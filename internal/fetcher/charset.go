package fetcher

import (
	"bytes"
	"io"
	"mime"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// decodeBody converts body to UTF-8 using the charset named in contentType.
// A missing or UTF-8 charset returns the body unchanged.
func decodeBody(contentType string, body []byte) (string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body), nil
	}
	charset := params["charset"]
	if charset == "" {
		return string(body), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", eris.Wrapf(err, "unsupported charset %q", charset)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return string(body), nil
	}

	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return "", eris.Wrapf(err, "decode %s body", charset)
	}
	return string(decoded), nil
}
