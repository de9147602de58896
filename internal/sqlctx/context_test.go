package sqlctx

import "testing"

// Exercises the placeholder/alias/CTE-minting invariants a Context must
// hold, including first-seen-wins aliasing.

func TestBind_OrderedOneBased(t *testing.T) {
	c := New("t", nil, nil)
	if got := c.Bind("a"); got != 1 {
		t.Errorf("first Bind: expected index 1, got %d", got)
	}
	if got := c.Bind("b"); got != 2 {
		t.Errorf("second Bind: expected index 2, got %d", got)
	}
	if got := c.Placeholder("c"); got != "$3" {
		t.Errorf("Placeholder: expected $3, got %q", got)
	}
	params := c.Params()
	if len(params) != 3 || params[0] != "a" || params[1] != "b" || params[2] != "c" {
		t.Errorf("unexpected params slice: %#v", params)
	}
}

func TestLookupBinding(t *testing.T) {
	c := New("t", map[string]any{"name": "Alice"}, nil)
	if v, ok := c.LookupBinding("name"); !ok || v != "Alice" {
		t.Errorf("expected (Alice, true), got (%v, %v)", v, ok)
	}
	if _, ok := c.LookupBinding("missing"); ok {
		t.Error("expected missing binding to report ok=false")
	}
}

func TestLookupBinding_NilBindings(t *testing.T) {
	c := New("t", nil, nil)
	if _, ok := c.LookupBinding("anything"); ok {
		t.Error("expected nil bindings map to report ok=false, not panic")
	}
}

// First-seen-wins aliasing: a variable referenced twice resolves to the
// same alias, and the alias counter only advances on the first sighting.
func TestAssignAlias_FirstSeenWins(t *testing.T) {
	c := New("t", nil, nil)
	a1 := c.AssignAlias("n", "n")
	a2 := c.AssignAlias("n", "n")
	if a1 != a2 {
		t.Errorf("expected stable alias across repeated AssignAlias calls, got %q then %q", a1, a2)
	}
	other := c.AssignAlias("m", "n")
	if other == a1 {
		t.Errorf("expected a distinct variable to mint a distinct alias, both got %q", a1)
	}
}

func TestAssignAlias_AnonymousAlwaysMints(t *testing.T) {
	c := New("t", nil, nil)
	a1 := c.AssignAlias("", "n")
	a2 := c.AssignAlias("", "n")
	if a1 == a2 {
		t.Errorf("expected anonymous patterns to mint a fresh alias every call, got %q twice", a1)
	}
}

func TestAssignAlias_PrefixDistinguishesNodesFromEdges(t *testing.T) {
	c := New("t", nil, nil)
	node := c.AssignAlias("a", "n")
	edge := c.AssignAlias("r", "e")
	if node[0] != 'n' || edge[0] != 'e' {
		t.Errorf("expected n-/e- prefixed aliases, got %q / %q", node, edge)
	}
}

func TestLookupAlias(t *testing.T) {
	c := New("t", nil, nil)
	if _, ok := c.LookupAlias("n"); ok {
		t.Fatal("expected no alias bound before AssignAlias")
	}
	alias := c.AssignAlias("n", "n")
	got, ok := c.LookupAlias("n")
	if !ok || got != alias {
		t.Errorf("expected (%q, true), got (%q, %v)", alias, got, ok)
	}
}

func TestBindAlias_DoesNotConsumeCounter(t *testing.T) {
	c := New("t", nil, nil)
	c.BindAlias("x", "ins_1")
	next := c.AssignAlias("y", "n")
	if next != "n1" {
		t.Errorf("expected BindAlias to leave the alias counter untouched, got first mint %q", next)
	}
	got, ok := c.LookupAlias("x")
	if !ok || got != "ins_1" {
		t.Errorf("expected x bound to ins_1, got (%q, %v)", got, ok)
	}
}

func TestBindAlias_IgnoresEmptyVariable(t *testing.T) {
	c := New("t", nil, nil)
	c.BindAlias("", "ins_1")
	if _, ok := c.LookupAlias(""); ok {
		t.Error("expected an empty variable name to never be registered")
	}
}

// CTE names share one monotonic counter regardless of which minting method
// is called, so two different clauses never collide on the same name.
func TestCTENames_ShareOneMonotonicCounter(t *testing.T) {
	c := New("t", nil, nil)
	names := []string{
		c.NextCTEName(),
		c.NextInsertCTEName(),
		c.NextPathCTEName(),
		c.NextCTEName(),
	}
	want := []string{"cte_1", "ins_2", "path_3", "cte_4"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestNew_NilLoggerDefaultsToNop(t *testing.T) {
	c := New("t", nil, nil)
	if c.Logger() == nil {
		t.Error("expected New to default a nil logger to a non-nil no-op logger")
	}
}
