package visualizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderSnapshot() statemachine.Snapshot {
	return statemachine.Snapshot{
		Name:         "orders",
		CurrentState: "draft",
		States: []statemachine.StateSnapshot{
			{
				ID:         "draft",
				Label:      "Draft",
				GuardLeave: []statemachine.CallbackInfo{{Key: "has_items", Name: "orders.hasItems"}},
				OnLeave:    []statemachine.CallbackInfo{{Name: "orders.stamp"}},
				TransitionsTo: []statemachine.TransitionSnapshot{
					{
						To:              "submitted",
						Label:           "Submit",
						GuardTransition: []statemachine.CallbackInfo{{Key: "approved", Name: "lua"}},
						OnTransition:    []statemachine.CallbackInfo{{Key: "audit", Name: "audit"}},
					},
					{To: "cancelled"},
				},
			},
			{
				ID: "submitted",
				TransitionsTo: []statemachine.TransitionSnapshot{
					{To: "archived"},
				},
			},
			{ID: "cancelled"},
		},
	}
}

func TestGenerateMermaid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		snap           statemachine.Snapshot
		opts           Options
		wantContain    []string
		wantNotContain []string
	}{
		{
			name: "defaults",
			snap: orderSnapshot(),
			opts: DefaultOptions(),
			wantContain: []string{
				"stateDiagram-v2",
				"direction TD",
				"[*] --> draft",
				`state "Draft" as draft`,
				"draft: guard leave: has_items",
				"draft: on leave: orders.stamp",
				"class draft current",
				"draft --> submitted: Submit [approved] / audit",
				"draft --> cancelled\n",
				"submitted --> archived",
				"cancelled --> [*]",
				"class cancelled terminal",
				"class archived undeclared",
			},
		},
		{
			name: "bare",
			snap: orderSnapshot(),
			opts: Options{Direction: "LR"},
			wantContain: []string{
				"direction LR",
				"draft --> submitted: Submit\n",
			},
			wantNotContain: []string{
				"guard leave",
				"on leave",
				"class draft current",
			},
		},
		{
			name: "highlight path wins over current",
			snap: orderSnapshot(),
			opts: DefaultOptions().WithHighlightPath([]string{"draft", "submitted"}),
			wantContain: []string{
				"class draft highlighted",
				"class submitted highlighted",
			},
			wantNotContain: []string{
				"class draft current",
			},
		},
		{
			name: "ids are sanitized",
			snap: statemachine.Snapshot{
				States: []statemachine.StateSnapshot{
					{ID: "in-review", TransitionsTo: []statemachine.TransitionSnapshot{{To: "done now"}}},
					{ID: "done now"},
				},
			},
			opts: DefaultOptions(),
			wantContain: []string{
				"[*] --> in_review",
				"in_review --> done_now",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := GenerateMermaidWithOptions(tt.snap, tt.opts)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(got, "```mermaid\n"))
			assert.True(t, strings.HasSuffix(got, "```\n"))

			for _, want := range tt.wantContain {
				assert.Contains(t, got, want)
			}

			for _, unwanted := range tt.wantNotContain {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestGenerateMermaidStartFallsBackToFirstState(t *testing.T) {
	t.Parallel()

	snap := orderSnapshot()
	snap.CurrentState = "nowhere"

	got, err := GenerateMermaid(snap)
	require.NoError(t, err)
	assert.Contains(t, got, "[*] --> draft")
}

func TestGenerateDOT(t *testing.T) {
	t.Parallel()

	got, err := GenerateDOT(orderSnapshot())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, `digraph "orders" {`))
	assert.Contains(t, got, "rankdir=TB;")
	assert.Contains(t, got, `__start -> "draft";`)
	assert.Contains(t, got, `"draft" [label="Draft\nguard leave: has_items\non leave: orders.stamp", style="rounded,filled"`)
	assert.Contains(t, got, `"draft" -> "submitted" [label="Submit [approved] / audit"];`)
	assert.Contains(t, got, `"draft" -> "cancelled";`)
	assert.Contains(t, got, `"cancelled" [label="cancelled", peripheries=2];`)
	assert.Contains(t, got, `"archived" [label="archived", style="dashed", color="#c62828"];`)
	assert.True(t, strings.HasSuffix(got, "}\n"))
}

func TestGenerateDOTEscapesQuotes(t *testing.T) {
	t.Parallel()

	snap := statemachine.Snapshot{
		States: []statemachine.StateSnapshot{{ID: `say "hi"`}},
	}

	got, err := GenerateDOTWithOptions(snap, DefaultOptions().WithDirection("LR"))
	require.NoError(t, err)

	assert.Contains(t, got, `digraph "statemachine" {`)
	assert.Contains(t, got, "rankdir=LR;")
	assert.Contains(t, got, `"say \"hi\""`)
}

func TestEmptySnapshot(t *testing.T) {
	t.Parallel()

	_, err := GenerateMermaid(statemachine.Snapshot{})
	require.ErrorIs(t, err, ErrNoStates)

	_, err = GenerateDOT(statemachine.Snapshot{})
	require.ErrorIs(t, err, ErrNoStates)
}

func TestGenerateFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: doors
initialState: closed
states:
  - name: open
    transitionsTo:
      - to: closed
  - name: closed
    transitionsTo:
      - to: open
        guardTransition: [unlocked]
`), 0o600))

	mermaid, err := GenerateMermaidFromFile(path)
	require.NoError(t, err)
	assert.Contains(t, mermaid, "[*] --> closed")
	assert.Contains(t, mermaid, "closed --> open: [unlocked]")

	dot, err := GenerateDOTFromFile(path)
	require.NoError(t, err)
	assert.Contains(t, dot, `"closed" -> "open" [label="[unlocked]"];`)

	_, err = GenerateMermaidFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMachineSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	builder := statemachine.NewBuilder[struct{}]()
	builder.State("idle").To("running").Label("start")
	builder.State("running").To("idle").Label("stop")

	machine, err := builder.Build("idle", statemachine.WithName[struct{}]("worker"))
	require.NoError(t, err)
	require.True(t, machine.MoveTo("running"))

	got, err := GenerateMermaid(machine.Snapshot())
	require.NoError(t, err)

	assert.Contains(t, got, "[*] --> running")
	assert.Contains(t, got, "class running current")
	assert.Contains(t, got, "idle --> running: start")
}
