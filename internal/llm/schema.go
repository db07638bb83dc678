package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSON Schemas (draft 2020-12 subset) passed to the model as a structured
// output constraint and used locally to validate what comes back.

func nullable(t string, desc string) map[string]any {
	return map[string]any{"type": []string{t, "null"}, "description": desc}
}

// HomepageSchema constrains the four-field homepage extraction.
func HomepageSchema() map[string]any {
	return objectSchema(map[string]any{
		"settlement_date": nullable("string",
			"The date in which the settlement was stipulated"),
		"settlement_amount": nullable("integer",
			"The dollar amount of the settlement pool"),
		"class_period": nullable("string",
			"The class period for this settlement. This is the period within "+
				"which a person must have traded to be a member of the class"),
		"allegations": nullable("string",
			"The class action allegations. I.e. the company's misleading "+
				"statements, or other fraudulent behavior"),
	})
}

// LegalTeamSchema constrains the legal team extraction.
func LegalTeamSchema() map[string]any {
	return objectSchema(map[string]any{
		"legal_team": nullable("string",
			"The list of legal teams representing the class members"),
	})
}

// ADPSSchema constrains the distribution-per-share extraction.
func ADPSSchema() map[string]any {
	return objectSchema(map[string]any{
		"adps": nullable("number",
			"The average distribution per damaged share in dollars before any "+
				"tax deduction, costs, admin fees, etc. If multiple shares exist "+
				"please select the average distribution per common share"),
	})
}

// AttorneyFeesSchema constrains the attorney fees extraction.
func AttorneyFeesSchema() map[string]any {
	return objectSchema(map[string]any{
		"attorney_fees": nullable("number",
			"Attorney Fees requested, as a percentage of the settlement fund"),
	})
}

// ExpenseTableSchema constrains the vision table transcription.
func ExpenseTableSchema() map[string]any {
	row := objectSchema(map[string]any{
		"category": nullable("string",
			"The descriptions of the expense, including potentially its total"),
		"amount": nullable("number", "The amount of the expense"),
		"sub_amount": nullable("number",
			"This is used to provide the breakdown of other amounts in the "+
				"table (in the amounts column)"),
	})
	return objectSchema(map[string]any{
		"rows": map[string]any{
			"type": "array",
			"description": "The list of rows contained in the table, including " +
				"the total row at the bottom if present",
			"items": row,
		},
	})
}

func objectSchema(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// validateAgainstSchema checks a raw JSON document against a schema map.
func validateAgainstSchema(schema map[string]any, raw []byte) error {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiled, err := jsonschema.CompileString("schema.json", string(schemaJSON))
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode response json: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
