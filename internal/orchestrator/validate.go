package orchestrator

import (
	"fmt"

	"github.com/koopa0/nlqagent/internal/apperrors"
)

// validatePlan checks the semantic invariants decodePlan's JSON Schema
// pass cannot express: contiguous step indices starting at 1, known
// tool references with their required parameters present, query steps
// carrying sql or a subquestion, and no visualization step referencing a
// table no earlier step could have produced or that isn't already
// present in the Workspace. The tables a query step's SQL reads are not
// checked.
func validatePlan(plan Plan, tools map[string]ToolSpec, workspaceTables map[string]bool) error {
	if len(plan.Steps) == 0 {
		return apperrors.NewPlanInvalid("plan has no steps")
	}

	produced := map[string]bool{}
	for name := range workspaceTables {
		produced[name] = true
	}
	for i, step := range plan.Steps {
		if step.Index != i+1 {
			return apperrors.NewPlanInvalid(fmt.Sprintf("step indices must be contiguous starting at 1, got %d at position %d", step.Index, i))
		}

		switch step.Kind {
		case StepToolCall:
			spec, ok := tools[step.ToolName]
			if !ok {
				return apperrors.NewPlanInvalid("step " + fmt.Sprint(step.Index) + " references unknown tool: " + step.ToolName)
			}
			if err := checkRequiredArguments(spec, step.Arguments); err != nil {
				return apperrors.NewPlanInvalid(fmt.Sprintf("step %d: %s", step.Index, err))
			}
			produced[stepTableName(step)] = true

		case StepQuery:
			if step.SQL == "" && step.Subquestion == "" {
				return apperrors.NewPlanInvalid(fmt.Sprintf("step %d: query step has neither sql nor subquestion", step.Index))
			}
			produced[stepTableName(step)] = true

		case StepVisualization:
			if step.TableName == "" {
				return apperrors.NewPlanInvalid(fmt.Sprintf("step %d: visualization step has no table_name", step.Index))
			}
			if !produced[step.TableName] {
				return apperrors.NewPlanInvalid(fmt.Sprintf("step %d: visualization references table %q produced by no earlier step", step.Index, step.TableName))
			}

		default:
			return apperrors.NewPlanInvalid(fmt.Sprintf("step %d: unknown kind %q", step.Index, step.Kind))
		}
	}
	return nil
}

func checkRequiredArguments(spec ToolSpec, args map[string]any) error {
	for _, p := range spec.Parameters {
		if !p.Required {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			return fmt.Errorf("tool %q missing required argument %q", spec.Name, p.Name)
		}
	}
	return nil
}

// stepTableName is the workspace table name a tool_call or query step's
// result will be registered under, per spec.md §4.5's
// step{index}_{tool_name} convention.
func stepTableName(step Step) string {
	label := step.ToolName
	if label == "" {
		label = "query"
	}
	return fmt.Sprintf("step%d_%s", step.Index, label)
}
