package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/platen/pkg/graph"
)

func TestTableExample(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "examples", "table.zy"))
	if err != nil {
		t.Fatal(err)
	}
	root, evalErrs, err := newTestEngine().Evaluate(context.Background(), string(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	var names []string
	for _, c := range root.Children() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "legs,aprons,top,brim" {
		t.Fatalf("top level = %s", got)
	}

	legs := graph.FindByName(root, "legs")
	if legs.ChildCount() != 4 {
		t.Fatalf("legs has %d children", legs.ChildCount())
	}
	first := legs.Child(0)
	for _, leg := range legs.Children() {
		if leg.Mesh() != first.Mesh() {
			t.Errorf("%s does not share the leg mesh", leg.Name())
		}
		if got := leg.WorldColor(legs); got != graph.Pink {
			t.Errorf("%s color = %v", leg.Name(), got)
		}
		if got := leg.WorldMaterialIndex(legs); got != 1 {
			t.Errorf("%s material = %d", leg.Name(), got)
		}
	}

	b, err := root.LocalBounds(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.Max[2] != 77.5 {
		t.Errorf("table top at z=%v, want 77.5", b.Max[2])
	}

	brim := graph.FindByName(root, "brim")
	if brim.Visible() || brim.OutputClass() != graph.OutputSupport {
		t.Errorf("brim visible=%v output=%v", brim.Visible(), brim.OutputClass())
	}
}
