package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

//Params holds the query parameters of a read request
type Params map[string]interface{}

//Encode builds the query string. Keys with a falsy value (nil, false, zero, empty string) are
//dropped. Keys and values are percent-encoded independently and the result is prefixed with '?'
//only when at least one parameter remains. Keys are sorted.
func (p Params) Encode() string {

	keys := make([]string, 0, len(p))
	for k, v := range p {
		if truthy(v) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = EncodeComponent(k) + "=" + EncodeComponent(formatValue(p[k]))
	}
	return "?" + strings.Join(pairs, "&")
}

func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return !rv.IsZero()
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

//Slices, maps and structs are sent as JSON, which is what views expect for keys.
func formatValue(v interface{}) string {
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		b, err := json.Marshal(v)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(reflect.Indirect(reflect.ValueOf(v)).Interface())
}

//EncodeComponent percent-encodes s the way browsers encode a URI component:
//everything but letters, digits and -_.!~*'() is escaped.
func EncodeComponent(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString(fmt.Sprintf("%%%02X", c))
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
