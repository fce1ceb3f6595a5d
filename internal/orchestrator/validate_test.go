package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/nlqagent/internal/apperrors"
)

func sqlTool() map[string]ToolSpec {
	return map[string]ToolSpec{
		"execute_sql": {
			Name: "execute_sql",
			Parameters: []ParameterSchema{
				{Name: "sql", Required: true},
			},
		},
	}
}

func TestValidatePlan_Contiguity(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepQuery, SQL: "SELECT 1"},
		{Index: 3, Kind: StepQuery, SQL: "SELECT 2"},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanInvalid, apperrors.Code(err))
}

func TestValidatePlan_EmptySteps(t *testing.T) {
	err := validatePlan(Plan{}, sqlTool(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanInvalid, apperrors.Code(err))
}

func TestValidatePlan_UnknownTool(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepToolCall, ToolName: "does_not_exist", Arguments: map[string]any{}},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanInvalid, apperrors.Code(err))
}

func TestValidatePlan_MissingRequiredArgument(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepToolCall, ToolName: "execute_sql", Arguments: map[string]any{}},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanInvalid, apperrors.Code(err))
}

// A query step with inline SQL is valid with no subquestion.
func TestValidatePlan_QueryStepWithSQL(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepQuery, SQL: "SELECT 1"},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	assert.NoError(t, err)
}

// A query step carrying only a natural-language subquestion (no inline
// SQL) is equally valid: the orchestrator asks the LLM to translate it to
// SQL at execution time.
func TestValidatePlan_QueryStepWithSubquestionOnly(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepQuery, Subquestion: "what is the total revenue by region?"},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	assert.NoError(t, err)
}

// A query step with neither SQL nor a subquestion is rejected.
func TestValidatePlan_QueryStepMissingBoth(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepQuery},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanInvalid, apperrors.Code(err))
}

func TestValidatePlan_VisualizationReferencesUnknownTable(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepQuery, SQL: "SELECT 1"},
		{Index: 2, Kind: StepVisualization, TableName: "step99_foo"},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanInvalid, apperrors.Code(err))
}

func TestValidatePlan_VisualizationReferencesEarlierStepTable(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepQuery, SQL: "SELECT 1"},
		{Index: 2, Kind: StepVisualization, TableName: "step1_query"},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	assert.NoError(t, err)
}

// A query/visualization step referencing a table already present in the
// Workspace (e.g. left over from an earlier reflection iteration) is
// valid even though no step in *this* plan produced it.
func TestValidatePlan_VisualizationReferencesExistingWorkspaceTable(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepVisualization, TableName: "step1_execute_sql"},
	}}

	workspaceTables := map[string]bool{"step1_execute_sql": true}
	err := validatePlan(plan, sqlTool(), workspaceTables)
	assert.NoError(t, err)
}

func TestValidatePlan_UnknownStepKind(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Index: 1, Kind: StepKind("bogus")},
	}}

	err := validatePlan(plan, sqlTool(), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanInvalid, apperrors.Code(err))
}
