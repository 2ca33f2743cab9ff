package weather

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Placeholder is rendered wherever a value is missing or not a finite number.
const Placeholder = "--"

var cardinals = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// FormatValue formats a numeric value with a fixed number of decimals.
// Any input that is not a finite number yields Placeholder.
func FormatValue(value any, decimals int) string {
	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return Placeholder
	}
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// ToCardinal maps a compass bearing to a 16-point label such as "NNE (22°)".
func ToCardinal(degrees float64) string {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return Placeholder
	}
	idx := int(math.Round(degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return fmt.Sprintf("%s (%d°)", cardinals[idx], int(math.Round(degrees)))
}

// Float returns *p, or NaN for a missing reading.
func Float(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
