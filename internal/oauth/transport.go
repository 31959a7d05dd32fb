package oauth

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
)

// maxTokenBody matches the limit x/oauth2 applies when reading token responses.
const maxTokenBody = 1 << 20

// jsonBodyTransport relabels successful text/plain responses whose body is a
// JSON object as application/json. x/oauth2 otherwise decodes text/plain as a
// form, and some authorization servers label JSON token bodies that way.
type jsonBodyTransport struct {
	base http.RoundTripper
}

func (t *jsonBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, err
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "text/plain" {
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBody))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	var obj map[string]json.RawMessage
	if json.Unmarshal(body, &obj) == nil {
		resp.Header.Set("Content-Type", "application/json")
	}
	return resp, nil
}

// withJSONBodyTransport returns a copy of client whose transport relabels
// JSON token bodies.
func withJSONBodyTransport(client *http.Client) *http.Client {
	c := *client
	c.Transport = &jsonBodyTransport{base: client.Transport}
	return &c
}
