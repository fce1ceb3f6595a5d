package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/koopa0/nlqagent/internal/apperrors"
)

// planJSONSchema constrains the LLM's JSON plan response to the Step
// shape the orchestrator understands: a non-empty "steps" array of
// objects each carrying an integer index, a known kind, and a
// description.
const planJSONSchema = `{
	"type": "object",
	"required": ["steps"],
	"properties": {
		"steps": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["index", "kind", "description"],
				"properties": {
					"index": {"type": "integer", "minimum": 1},
					"kind": {"type": "string", "enum": ["tool_call", "query", "visualization"]},
					"description": {"type": "string"},
					"tool_name": {"type": "string"},
					"arguments": {"type": "object"},
					"sql": {"type": "string"},
					"subquestion": {"type": "string"},
					"table_name": {"type": "string"},
					"chart_hint": {"type": "string"}
				}
			}
		}
	}
}`

// validatePlanJSON compiles planJSONSchema (grounded on the corpus's
// jsonschema/v6 compile-and-validate pattern) and validates planJSON
// against it, catching structurally malformed LLM output before
// validatePlan ever runs its own semantic checks.
func validatePlanJSON(planJSON []byte) error {
	var schemaDoc any
	if err := json.Unmarshal([]byte(planJSONSchema), &schemaDoc); err != nil {
		return fmt.Errorf("unmarshal plan schema: %w", err)
	}
	var payloadDoc any
	if err := json.Unmarshal(planJSON, &payloadDoc); err != nil {
		return apperrors.NewPlanInvalid("plan is not valid JSON: " + err.Error())
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("plan.json", schemaDoc); err != nil {
		return fmt.Errorf("add plan schema resource: %w", err)
	}
	schema, err := c.Compile("plan.json")
	if err != nil {
		return fmt.Errorf("compile plan schema: %w", err)
	}
	if err := schema.Validate(payloadDoc); err != nil {
		return apperrors.NewPlanInvalid(err.Error())
	}
	return nil
}

// decodePlan validates and unmarshals an LLM response into a Plan.
func decodePlan(planJSON []byte) (Plan, error) {
	if err := validatePlanJSON(planJSON); err != nil {
		return Plan{}, err
	}
	var plan Plan
	if err := json.Unmarshal(planJSON, &plan); err != nil {
		return Plan{}, apperrors.NewPlanInvalid("plan is not valid JSON: " + err.Error())
	}
	return plan, nil
}
