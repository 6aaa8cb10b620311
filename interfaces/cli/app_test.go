package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/toolplan/domain/plan"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), err
}

func TestApp_Version(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(output, "toolplan version") {
		t.Errorf("version output missing 'toolplan version', got: %s", output)
	}
}

func TestApp_Help(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"plan", "replay", "validate", "export-schema"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_Validate(t *testing.T) {
	path := writeFile(t, "toolplan.yaml", `
name: test-planner
version: "1"
search:
  top_k: 2
  max_expansions: 20
cache:
  enabled: true
`)

	output, err := execute(t, "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate command failed: %v", err)
	}
	for _, want := range []string{"valid", "test-planner", "top_k=2", "offline", "Cache: memory"} {
		if !strings.Contains(output, want) {
			t.Errorf("validate output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_ValidateInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative top_k", "search:\n  top_k: -1\n"},
		{"unknown field", "agent:\n  max_steps: 50\n"},
		{"bad provider", "oracle:\n  provider: carrier-pigeon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "toolplan.yaml", tt.content)
			if _, err := execute(t, "validate", "-c", path); err == nil {
				t.Fatal("validate command should fail for invalid config")
			}
		})
	}
}

func TestApp_ValidateShowSchema(t *testing.T) {
	output, err := execute(t, "validate", "--schema")
	if err != nil {
		t.Fatalf("validate --schema failed: %v", err)
	}
	if !strings.Contains(output, "$schema") || !strings.Contains(output, "toolplan configuration") {
		t.Errorf("schema output missing header, got: %s", output)
	}
}

func TestApp_ExportSchemaToFile(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "schema.json")

	if _, err := execute(t, "export-schema", "-o", schemaPath); err != nil {
		t.Fatalf("export-schema -o failed: %v", err)
	}
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("failed to read schema file: %v", err)
	}
	if !strings.Contains(string(data), "$schema") {
		t.Errorf("schema file missing '$schema'")
	}
}

func TestApp_PlanOffline(t *testing.T) {
	output, err := execute(t, "plan", "--offline", "--report", "Book a trip from Paris to Rome by flight")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, want := range []string{
		"Search succeeded",
		`set_origin("Paris")`,
		`set_destination("Rome")`,
		`select_transport("flight")`,
		"confirm_booking()",
		"Step report:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("plan output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_PlanJSON(t *testing.T) {
	output, err := execute(t, "plan", "--offline", "--json", "--execute", "Go from Boston to Chicago by bus")
	if err != nil {
		t.Fatalf("plan --json failed: %v", err)
	}

	var got planOutput
	if err := json.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("plan --json output is not JSON: %v\n%s", err, output)
	}
	if got.Status != "succeeded" || len(got.Plan) != 4 || got.SearchID == "" {
		t.Errorf("plan output = %+v, want a succeeded 4-step plan", got)
	}
	if len(got.Execution) != 4 {
		t.Errorf("execution = %d steps, want 4", len(got.Execution))
	}
}

func TestApp_PlanNoGoal(t *testing.T) {
	_, err := execute(t, "plan", "--offline")
	if err == nil || !strings.Contains(err.Error(), "no goal specified") {
		t.Errorf("plan without goal error = %v, want 'no goal specified'", err)
	}
}

func TestApp_PlanBudgetExhausted(t *testing.T) {
	output, err := execute(t, "plan", "--offline", "--max-expansions", "2", "from Paris to Rome")
	if err == nil {
		t.Fatal("plan should fail when the budget runs out")
	}
	if !strings.Contains(output, "Search timed_out") || !strings.Contains(output, "Partial plan (2 steps") {
		t.Errorf("plan output = %s, want a timed out partial plan", output)
	}
}

func TestApp_PlanThenReplay(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.json")
	if _, err := execute(t, "plan", "--offline", "-o", planPath, "from Denver to Austin by train"); err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	output, err := execute(t, "replay", "--plan", planPath)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	for _, want := range []string{"4 of 4 steps", "origin:  -> Denver", "Reached goal: true"} {
		if !strings.Contains(output, want) {
			t.Errorf("replay output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_ReplayViolation(t *testing.T) {
	path := writeFile(t, "plan.json", `[
  {"step": 0, "tool": "set_origin", "args": ["Oslo"]},
  {"step": 1, "tool": "confirm_booking", "args": []}
]`)

	output, err := execute(t, "replay", "--plan", path)
	if !errors.Is(err, plan.ErrPreconditionViolation) {
		t.Fatalf("replay error = %v, want ErrPreconditionViolation", err)
	}
	if !strings.Contains(output, "FAILED") || !strings.Contains(output, "Reached goal: false") {
		t.Errorf("replay output = %s, want a failed step", output)
	}
}

func TestApp_ReplayUnknownTool(t *testing.T) {
	path := writeFile(t, "plan.json", `[{"step": 0, "tool": "teleport", "args": []}]`)
	if _, err := execute(t, "replay", "--plan", path); err == nil {
		t.Fatal("replay should reject unknown tools")
	}
}
