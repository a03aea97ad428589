package validation

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// poolSchema is the minimal shape the pool view relies on: an array of objects with an id.
// Every other field is backend-defined and left unchecked.
const poolSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id"],
    "properties": {
      "id": {"type": ["string", "number"]}
    }
  }
}`

const chainSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["hash", "data"],
    "properties": {
      "hash": {"type": "string"},
      "data": {"type": "array"}
    }
  }
}`

var (
	poolLoader  = gojsonschema.NewStringLoader(poolSchema)
	chainLoader = gojsonschema.NewStringLoader(chainSchema)
)

// ValidatePool checks a /transactions response body.
func ValidatePool(body []byte) error {
	return validate(poolLoader, body, "transaction pool")
}

// ValidateChain checks a /blockchain or /blockchain/range response body.
func ValidateChain(body []byte) error {
	return validate(chainLoader, body, "blockchain")
}

func validate(schema gojsonschema.JSONLoader, body []byte, what string) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.Wrapf(err, "%s is not valid JSON", what)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.Errorf("%s failed schema validation: %s", what, strings.Join(msgs, "; "))
	}
	return nil
}

// ValidateTransfer checks a transfer before it is sent to /wallet/transact.
func ValidateTransfer(recipient string, amount float64) error {
	if strings.TrimSpace(recipient) == "" {
		return errors.New("recipient is required")
	}
	if amount <= 0 {
		return errors.Errorf("amount must be positive, got %g", amount)
	}
	return nil
}
