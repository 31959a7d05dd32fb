package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// maxBodyBytes caps request bodies read by bindParams.
const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// bindParams collects request parameters from the query string, then lets a
// JSON or form-encoded body override them.
func bindParams(r *http.Request) (url.Values, error) {
	params := url.Values{}
	for k, v := range r.URL.Query() {
		params[k] = v
	}

	if r.Body == nil || r.ContentLength == 0 {
		return params, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]any
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		for k, v := range body {
			switch val := v.(type) {
			case nil:
			case string:
				params.Set(k, val)
			case json.Number:
				params.Set(k, val.String())
			case bool:
				params.Set(k, strconv.FormatBool(val))
			default:
				return nil, fmt.Errorf("%w: %s must be a scalar", errInvalidBody, k)
			}
		}
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		for k, v := range r.PostForm {
			params[k] = v
		}
	}

	return params, nil
}
