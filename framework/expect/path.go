package expect

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Lookup navigates a dotted path within a JSON value. Array elements can be addressed
// either as "tags.0.name" or "tags[0].name". An empty path or "." refers to the value
// itself. It is an error for any key or index along the path not to exist; a property
// whose value is JSON null does exist.
func Lookup(value ldvalue.Value, path string) (ldvalue.Value, error) {
	tokens, err := tokenizePath(path)
	if err != nil {
		return ldvalue.Null(), err
	}
	current := value
	for i, token := range tokens {
		where := strings.Join(tokens[:i+1], ".")
		switch current.Type() {
		case ldvalue.ObjectType:
			if !hasKey(current, token) {
				return ldvalue.Null(), fmt.Errorf("path %q not found: no property %q", path, where)
			}
			current = current.GetByKey(token)
		case ldvalue.ArrayType:
			index, err := strconv.Atoi(token)
			if err != nil {
				return ldvalue.Null(), fmt.Errorf("path %q: %q is an array, %q is not an index", path, strings.Join(tokens[:i], "."), token)
			}
			if index < 0 || index >= current.Count() {
				return ldvalue.Null(), fmt.Errorf("path %q not found: index %d out of range (length %d)", path, index, current.Count())
			}
			current = current.GetByIndex(index)
		default:
			return ldvalue.Null(), fmt.Errorf("path %q not found: cannot look up %q in a %s value", path, token, current.Type())
		}
	}
	return current, nil
}

func hasKey(object ldvalue.Value, key string) bool {
	for _, k := range object.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

func tokenizePath(path string) ([]string, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return nil, nil
	}
	var tokens []string
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", path)
		}
		for {
			open := strings.Index(part, "[")
			if open < 0 {
				tokens = append(tokens, part)
				break
			}
			closing := strings.Index(part, "]")
			if closing < open {
				return nil, fmt.Errorf("invalid path %q: unbalanced brackets", path)
			}
			if open > 0 {
				tokens = append(tokens, part[:open])
			}
			tokens = append(tokens, part[open+1:closing])
			part = part[closing+1:]
			if part == "" {
				break
			}
		}
	}
	return tokens, nil
}
