package collect

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tuple is an ordered tuple of scalar values identifying one unit of work.
type Tuple []interface{}

// Key returns the canonical key of t. Numbers are keyed by their exact text:
// integers of any width and whole floats share integer text, so int(5) and a
// decoded JSON 5 share a key while 1<<53 and 1<<53+1 do not.
func (t Tuple) Key() string {
	c := canonical([]interface{}(t))
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%#v", c)
	}
	return string(b)
}

func canonical(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return jsoniter.Number(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return jsoniter.Number(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return floatKey(rv.Float())
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = canonical(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// floatKey renders whole floats as integer text and everything else in the
// shortest form that round-trips.
func floatKey(f float64) interface{} {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return strconv.FormatFloat(f, 'g', -1, 64)
	case f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64:
		return jsoniter.Number(strconv.FormatInt(int64(f), 10))
	case f == math.Trunc(f) && f > 0 && f < math.MaxUint64:
		return jsoniter.Number(strconv.FormatUint(uint64(f), 10))
	}
	return jsoniter.Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// normalize turns the map[interface{}]interface{} values produced by the
// msgpack decoder into map[string]interface{}, recursively.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]interface{}:
		for k, val := range x {
			x[k] = normalize(val)
		}
		return x
	case []interface{}:
		for i, val := range x {
			x[i] = normalize(val)
		}
		return x
	}
	return v
}
