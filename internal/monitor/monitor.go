// Package monitor validates inbound order payloads against a JSON schema
// before anything touches the store or the gateway.
package monitor

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// orderSchema is the contract for POST /api/orders bodies. The server may
// fill in orderId, createdAt and status; everything the client must supply is
// required here.
const orderSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["customerId", "totalAmount"],
  "properties": {
    "orderId": {"type": "string"},
    "customerId": {"type": "string", "minLength": 1},
    "totalAmount": {"type": "number", "exclusiveMinimum": 0},
    "status": {
      "type": "string",
      "enum": ["CREATED", "PENDING", "PAID", "PREPARING", "COMPLETED", "FULFILLED"]
    },
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["itemId", "itemName", "price", "quantity"],
        "properties": {
          "itemId": {"type": "string", "minLength": 1},
          "itemName": {"type": "string", "minLength": 1},
          "price": {"type": "number", "exclusiveMinimum": 0},
          "quantity": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

// ContractMonitor validates order creation requests.
type ContractMonitor struct {
	schema *gojsonschema.Schema
}

// NewContractMonitor compiles the order schema. Compilation failure is a
// programming error surfaced at startup.
func NewContractMonitor() (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(orderSchema))
	if err != nil {
		return nil, fmt.Errorf("compile order schema: %w", err)
	}
	return &ContractMonitor{schema: schema}, nil
}

// Validate checks the request body against the order schema. It returns true
// if valid, or false and the list of violations.
func (cm *ContractMonitor) Validate(requestBody []byte) (bool, []string, error) {
	result, err := cm.schema.Validate(gojsonschema.NewBytesLoader(requestBody))
	if err != nil {
		return false, nil, fmt.Errorf("validate order payload: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return false, violations, nil
}

// FormatErrors joins validation violations into a single message.
func FormatErrors(violations []string) string {
	if len(violations) == 0 {
		return ""
	}
	return "Validation failed: " + strings.Join(violations, "; ")
}
