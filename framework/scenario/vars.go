package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/petstore-harness/petstore-contract-tests/framework/fixture"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"

	"github.com/jmespath/go-jmespath"
)

// Vars are the named values a scenario carries from step to step. They are referenced as
// ${name} in request paths, query parameters, headers and bodies.
type Vars map[string]string

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_.\-]+)\}`)

// Expand replaces every ${name} in s. It is an error to reference a variable that has not
// been set.
func (v Vars) Expand(s string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := v[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return s, fmt.Errorf("undefined variable %q in %q", missing[0], s)
	}
	return out, nil
}

func hasPlaceholders(s string) bool {
	return placeholderPattern.MatchString(s)
}

// ExpandRequest returns a copy of req with all placeholders replaced.
func (v Vars) ExpandRequest(req harness.Request) (harness.Request, error) {
	out := req
	var err error
	if out.Path, err = v.Expand(req.Path); err != nil {
		return req, err
	}
	if len(req.Query) > 0 {
		out.Query = make(url.Values, len(req.Query))
		for key, values := range req.Query {
			for _, value := range values {
				expanded, err := v.Expand(value)
				if err != nil {
					return req, err
				}
				out.Query.Add(key, expanded)
			}
		}
	}
	if len(req.Headers) > 0 {
		out.Headers = make(map[string]string, len(req.Headers))
		for key, value := range req.Headers {
			if out.Headers[key], err = v.Expand(value); err != nil {
				return req, err
			}
		}
	}
	if req.JSONBody != nil {
		if out.JSONBody, err = v.expandJSON(req.JSONBody); err != nil {
			return req, err
		}
	}
	if len(req.RawBody) > 0 && hasPlaceholders(string(req.RawBody)) {
		expanded, err := v.Expand(string(req.RawBody))
		if err != nil {
			return req, err
		}
		out.RawBody = []byte(expanded)
	}
	return out, nil
}

// ExpandFixture returns a copy of f with placeholders in its key and payload replaced.
func (v Vars) ExpandFixture(f fixture.Fixture) (fixture.Fixture, error) {
	out := f
	var err error
	if out.Ref.Key, err = v.Expand(f.Ref.Key); err != nil {
		return f, err
	}
	if f.Payload != nil {
		if out.Payload, err = v.expandJSON(f.Payload); err != nil {
			return f, err
		}
	}
	return out, nil
}

// expandJSON substitutes placeholders inside string values of a JSON-serializable body.
// Typed structs are converted to their generic JSON form first; numbers keep their exact
// textual representation.
func (v Vars) expandJSON(body interface{}) (interface{}, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("request body is not serializable: %w", err)
	}
	if !hasPlaceholders(string(data)) {
		return body, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var generic interface{}
	if err := decoder.Decode(&generic); err != nil {
		return nil, err
	}
	return v.expandValue(generic)
}

func (v Vars) expandValue(value interface{}) (interface{}, error) {
	switch x := value.(type) {
	case string:
		return v.Expand(x)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for key, item := range x {
			expanded, err := v.expandValue(item)
			if err != nil {
				return nil, err
			}
			out[key] = expanded
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			expanded, err := v.expandValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return value, nil
	}
}

// Extract evaluates each JMESPath expression against a JSON response body and returns the
// results as variables. A null result is an error, since a later step would otherwise send
// a request containing an empty value.
func Extract(body []byte, expressions map[string]string) (Vars, error) {
	if len(expressions) == 0 {
		return nil, nil
	}
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("cannot extract variables: response is not valid JSON")
	}
	extracted := make(Vars, len(expressions))
	for name, expr := range expressions {
		result, err := jmespath.Search(expr, data)
		if err != nil {
			return nil, fmt.Errorf("failed to extract variable %s using path %s: %w", name, expr, err)
		}
		switch r := result.(type) {
		case nil:
			return nil, fmt.Errorf("variable %s: JMESPath %s returned null", name, expr)
		case string:
			extracted[name] = r
		case float64:
			extracted[name] = strconv.FormatFloat(r, 'f', -1, 64)
		case bool:
			extracted[name] = strconv.FormatBool(r)
		default:
			data, err := json.Marshal(r)
			if err != nil {
				return nil, fmt.Errorf("variable %s: failed to convert extracted value to string: %w", name, err)
			}
			extracted[name] = string(data)
		}
	}
	return extracted, nil
}
