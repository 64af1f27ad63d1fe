package providers

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

var decimalHundred = decimal.NewFromInt(100)

// stringifyJSONValue renders a decoded JSON value the way the provider
// serialized it, so signature material matches byte for byte.
func stringifyJSONValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
