package nuxt

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// ScriptID is the id of the script element carrying the payload.
const ScriptID = "__NUXT_DATA__"

var (
	// ErrNoHydration means the page has no payload script.
	ErrNoHydration = eris.New("nuxt: hydration payload not found")
	// ErrMalformedPayload means the payload script is not a JSON array.
	ErrMalformedPayload = eris.New("nuxt: malformed hydration payload")
)

// Locate finds the payload script in an HTML page and decodes it.
func Locate(html string) (*Pool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(ErrMalformedPayload, "parse html: "+err.Error())
	}

	script := doc.Find("script#" + ScriptID).First()
	if script.Length() == 0 {
		return nil, eris.Wrap(ErrNoHydration, "locate")
	}

	return Decode([]byte(script.Text()))
}

// Decode parses the payload JSON. The top level must be an array.
func Decode(data []byte) (*Pool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, eris.Wrap(ErrMalformedPayload, "empty payload")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, eris.Wrap(ErrMalformedPayload, "decode json: "+err.Error())
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, eris.Wrapf(ErrMalformedPayload, "top level is %T, want array", raw)
	}

	values := make([]Value, len(items))
	for i, item := range items {
		values[i] = fromJSON(item)
	}
	return NewPool(values...), nil
}
