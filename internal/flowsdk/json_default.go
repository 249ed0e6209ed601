//go:build !sonic

package flowsdk

import (
	"io"

	"github.com/goccy/go-json"
)

// for go resty
func jsonEncoder(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func jsonDecoder(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
