package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chazu/steelhook/pkg/engine"
	"github.com/chazu/steelhook/pkg/steel"
)

// ScriptExt is the file extension of hook scripts.
const ScriptExt = ".zy"

// Hook is one step run for every eligible object.
type Hook interface {
	Name() string
	Run(ctx context.Context, object string) error
}

// HookError reports a failed hook.
type HookError struct {
	Hook   string
	Object string
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("Hook error %s (object %s): %v", e.Hook, e.Object, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// Filer files one object into the arrangement tree.
type Filer interface {
	FileObject(ctx context.Context, name string) (*steel.Filing, error)
}

// AddToSteelModel is the built-in hook that files new objects.
type AddToSteelModel struct {
	Filer Filer
}

func (AddToSteelModel) Name() string { return "AddToSteelModel" }

func (h AddToSteelModel) Run(ctx context.Context, object string) error {
	_, err := h.Filer.FileObject(ctx, object)
	return err
}

// ScriptHook runs one zygomys script.
type ScriptHook struct {
	Engine *engine.Engine
	Script engine.Script
}

func (h ScriptHook) Name() string { return h.Script.Name }

func (h ScriptHook) Run(ctx context.Context, object string) error {
	res, err := h.Engine.Run(ctx, h.Script, object)
	if err != nil {
		return err
	}
	return res.Err()
}

// LoadScripts reads every script in dir, ordered by file name. A missing
// directory yields no scripts.
func LoadScripts(dir string) ([]engine.Script, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read hooks dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ScriptExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	scripts := make([]engine.Script, 0, len(names))
	for _, name := range names {
		src, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read hook %s: %w", name, err)
		}
		scripts = append(scripts, engine.Script{Name: name, Source: string(src)})
	}
	return scripts, nil
}
