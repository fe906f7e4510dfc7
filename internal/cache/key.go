package cache

import (
	"encoding/json"

	"lingo_gateway/internal/utils"
)

// Key derives the content address for a feature request. Params must already
// be normalized by request validation (trimmed, folded); json.Marshal sorts
// map keys, so the same request always produces the same key.
func Key(feature string, params map[string]any) string {
	encoded, err := json.Marshal(params)
	if err != nil {
		// Validated params are always JSON-encodable; fall back to the
		// feature name alone rather than failing the request.
		encoded = nil
	}
	return utils.HashString(feature + "\n" + string(encoded))
}
