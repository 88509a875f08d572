package gate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
)

// Gate input schemas. Validation failures surface as InvalidInput before any
// evaluator runs.
var schemaSources = map[string]string{
	"listing_publish": `{
		"type": "object",
		"required": ["market", "listingId", "monthlyRent"],
		"properties": {
			"market":      {"type": "string", "minLength": 1},
			"listingId":   {"type": "string", "minLength": 1},
			"monthlyRent": {"type": "number", "exclusiveMinimum": 0}
		}
	}`,
	"broker_fee_change": `{
		"type": "object",
		"required": ["market", "entityId", "monthlyRent", "amount"],
		"properties": {
			"market":      {"type": "string", "minLength": 1},
			"entityId":    {"type": "string", "minLength": 1},
			"monthlyRent": {"type": "number", "exclusiveMinimum": 0},
			"amount":      {"type": "number", "minimum": 0}
		}
	}`,
	"security_deposit_change": `{
		"type": "object",
		"required": ["market", "entityId", "monthlyRent", "amount"],
		"properties": {
			"market":      {"type": "string", "minLength": 1},
			"entityId":    {"type": "string", "minLength": 1},
			"monthlyRent": {"type": "number", "exclusiveMinimum": 0},
			"amount":      {"type": "number", "minimum": 0}
		}
	}`,
	"rent_increase": `{
		"type": "object",
		"required": ["market", "leaseId", "currentRent", "proposedRent"],
		"properties": {
			"market":       {"type": "string", "minLength": 1},
			"leaseId":      {"type": "string", "minLength": 1},
			"currentRent":  {"type": "number", "exclusiveMinimum": 0},
			"proposedRent": {"type": "number", "exclusiveMinimum": 0},
			"noticeDays":   {"type": "integer", "minimum": 0}
		}
	}`,
	"fcha_transition": `{
		"type": "object",
		"required": ["market", "applicationId", "fromState", "toState"],
		"properties": {
			"market":        {"type": "string", "minLength": 1},
			"applicationId": {"type": "string", "minLength": 1},
			"fromState":     {"type": "string", "minLength": 1},
			"toState":       {"type": "string", "minLength": 1}
		}
	}`,
	"fcha_background_check": `{
		"type": "object",
		"required": ["market", "applicationId", "checkType", "currentState"],
		"properties": {
			"market":        {"type": "string", "minLength": 1},
			"applicationId": {"type": "string", "minLength": 1},
			"checkType":     {"type": "string", "minLength": 1},
			"currentState":  {"type": "string", "minLength": 1}
		}
	}`,
	"disclosure_requirement": `{
		"type": "object",
		"required": ["market", "entityId", "phase"],
		"properties": {
			"market":   {"type": "string", "minLength": 1},
			"entityId": {"type": "string", "minLength": 1},
			"phase": {
				"type": "string",
				"enum": ["listing_publish", "application", "lease_signing", "move_in"]
			}
		}
	}`,
	"lease_creation": `{
		"type": "object",
		"required": ["market", "leaseId", "monthlyRent"],
		"properties": {
			"market":      {"type": "string", "minLength": 1},
			"leaseId":     {"type": "string", "minLength": 1},
			"monthlyRent": {"type": "number", "exclusiveMinimum": 0}
		}
	}`,
	"gdpr_data_operation": `{
		"type": "object",
		"required": ["market", "entityId", "operation"],
		"properties": {
			"market":    {"type": "string", "minLength": 1},
			"entityId":  {"type": "string", "minLength": 1},
			"operation": {"type": "string", "minLength": 1}
		}
	}`,
}

var compiledSchemas = compileSchemas()

func compileSchemas() map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, len(schemaSources))
	for name, src := range schemaSources {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := fmt.Sprintf("https://rentos.schemas.local/gate/%s.schema.json", name)
		if err := c.AddResource(url, strings.NewReader(src)); err != nil {
			panic(fmt.Sprintf("gate schema %s: %v", name, err))
		}
		compiled, err := c.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("gate schema %s: %v", name, err))
		}
		out[name] = compiled
	}
	return out
}

// validateInput checks a typed gate input against its schema by round-
// tripping it through JSON. Failures map to InvalidInput.
func validateInput(schemaName string, input any) error {
	schema := compiledSchemas[schemaName]
	raw, err := json.Marshal(input)
	if err != nil {
		return contracts.InvalidInputf("gate %s: %v", schemaName, err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return contracts.InvalidInputf("gate %s: %v", schemaName, err)
	}
	if err := schema.Validate(decoded); err != nil {
		return contracts.InvalidInputf("gate %s: %v", schemaName, err)
	}
	return nil
}
