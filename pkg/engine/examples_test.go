package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/steelhook/pkg/model"
)

func TestExampleHookScripts(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "hooks", "*.zy"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no example hook scripts found")
	}
	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			src, err := os.ReadFile(p)
			if err != nil {
				t.Fatal(err)
			}
			h := newFakeHost()
			h.types["P1"] = model.TypeForCode(model.CodeLBH)
			res := run(t, h, string(src), "P1")
			if res.Failed() {
				t.Fatalf("eval errors: %v", res.Errors)
			}
		})
	}
}
