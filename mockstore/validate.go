package mockstore

import (
	"fmt"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Payloads are checked field by field against their generic JSON form before being decoded
// into servicedef types, so that a wrongly typed field is reported as a client error rather
// than being silently dropped or zeroed.

type fieldRule struct {
	name     string
	kind     ldvalue.ValueType
	required bool
	integer  bool
}

func checkFields(body ldvalue.Value, rules ...fieldRule) error {
	if body.Type() != ldvalue.ObjectType {
		return fmt.Errorf("request body must be a JSON object")
	}
	for _, r := range rules {
		v := body.GetByKey(r.name)
		if v.IsNull() {
			if r.required {
				return fmt.Errorf("%s is required", r.name)
			}
			continue
		}
		if v.Type() != r.kind {
			return fmt.Errorf("%s must be a %s, got %s", r.name, r.kind, v.Type())
		}
		if r.integer && !v.IsInt() {
			return fmt.Errorf("%s must be an integer", r.name)
		}
	}
	return nil
}

func integerField(name string, required bool) fieldRule {
	return fieldRule{name: name, kind: ldvalue.NumberType, required: required, integer: true}
}

func stringField(name string, required bool) fieldRule {
	return fieldRule{name: name, kind: ldvalue.StringType, required: required}
}

func validatePetFields(body ldvalue.Value) error {
	return checkFields(body,
		integerField("id", true),
		stringField("name", true),
		stringField("status", false),
		fieldRule{name: "photoUrls", kind: ldvalue.ArrayType},
		fieldRule{name: "tags", kind: ldvalue.ArrayType},
		fieldRule{name: "category", kind: ldvalue.ObjectType},
	)
}

func validateOrder(body ldvalue.Value) error {
	if err := checkFields(body,
		integerField("id", true),
		integerField("petId", false),
		integerField("quantity", false),
		stringField("shipDate", false),
		stringField("status", false),
		fieldRule{name: "complete", kind: ldvalue.BoolType},
	); err != nil {
		return err
	}
	if q := body.GetByKey("quantity"); !q.IsNull() && q.IntValue() < 1 {
		return fmt.Errorf("quantity must be positive")
	}
	if d := body.GetByKey("shipDate").StringValue(); d != "" {
		if _, err := time.Parse(time.RFC3339, d); err != nil {
			return fmt.Errorf("shipDate must be an ISO-8601 timestamp")
		}
	}
	if st := body.GetByKey("status").StringValue(); st != "" && !servicedef.IsValidOrderStatus(st) {
		return fmt.Errorf("invalid order status %q", st)
	}
	return nil
}

func validateUser(body ldvalue.Value) error {
	if err := checkFields(body,
		integerField("id", false),
		stringField("username", true),
		stringField("firstName", false),
		stringField("lastName", false),
		stringField("email", false),
		stringField("password", false),
		stringField("phone", false),
		integerField("userStatus", false),
	); err != nil {
		return err
	}
	if !isValidUsername(body.GetByKey("username").StringValue()) {
		return fmt.Errorf("invalid username")
	}
	return nil
}

func isValidUsername(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '_' || ch == '-' || ch == '.' || ch == '@':
		default:
			return false
		}
	}
	return true
}
