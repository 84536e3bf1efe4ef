package fetcher

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// decodeInto decodes a single JSON value from r. Trailing data is ignored.
func decodeInto(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return eris.Wrap(err, "json: decode object")
	}
	return nil
}
