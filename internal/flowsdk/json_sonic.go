//go:build sonic

package flowsdk

import (
	"io"

	"github.com/bytedance/sonic"
)

// for go resty
func jsonEncoder(w io.Writer, v any) error {
	return sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func jsonDecoder(r io.Reader, v any) error {
	return sonic.ConfigDefault.NewDecoder(r).Decode(v)
}
