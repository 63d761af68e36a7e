package trace

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Domain prefix for content-addressed call record IDs. Version suffix
// enables future algorithm migration.
const domainCall = "standin/call/v1"

// recordID computes the content-addressed ID for a recorded call.
// Format: SHA256(domain + 0x00 + canonical payload). The null separator
// prevents domain/data boundary ambiguity.
func recordID(managerToken string, seq int64, method string) string {
	payload := fmt.Sprintf("%s\x00%d\x00%s", managerToken, seq, norm.NFC.String(method))

	h := sha256.New()
	h.Write([]byte(domainCall))
	h.Write([]byte{0x00})
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// marshalPayload serializes an argument or return list to canonical JSON
// TEXT for storage: sorted object keys, NFC-normalized strings, no HTML
// escaping.
//
// Unlike a content-hashing codec, the call log must accept arbitrary live
// Go values, so kinds without a canonical JSON form degrade to their Go
// string representation.
func marshalPayload(vals []any) (string, error) {
	data, err := marshalCanonical(vals)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case string:
		return marshalCanonicalString(val)
	case int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(nil, val, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(val), 10), nil
	case uint64:
		return strconv.AppendUint(nil, val, 10), nil
	case float32:
		return []byte(strconv.FormatFloat(float64(val), 'g', -1, 32)), nil
	case float64:
		return []byte(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	case error:
		return marshalCanonicalString(val.Error())
	default:
		// No canonical form; degrade to the Go string representation.
		return marshalCanonicalString(fmt.Sprintf("%v", val))
	}
}

func marshalCanonicalArray(vals []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := marshalCanonical(v)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kdata, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("object key %q: %w", k, err)
		}
		buf.Write(kdata)
		buf.WriteByte(':')
		vdata, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		buf.Write(vdata)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalCanonicalString NFC-normalizes the string and encodes it without
// HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	// Encoder adds a trailing newline, remove it.
	return []byte(strings.TrimSpace(buf.String())), nil
}
