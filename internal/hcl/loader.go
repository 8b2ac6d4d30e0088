package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/wellformed/internal/config"
	"github.com/vk/wellformed/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// Load parses every .hcl file found under paths, in order, applying each on
// top of config.Defaults. Later files win.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.Defaults()

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := l.evalContext()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Run != nil {
			root.Run.apply(model)
		}
		if root.Publish != nil {
			if err := root.Publish.apply(model); err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
		}
		logger.Debug("HCL file applied.", "file", file, "run", root.Run != nil, "publish", root.Publish != nil)
	}

	return model, nil
}

// evalContext exposes the process environment as the `env` variable.
func (l *Loader) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range l.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}

	envVal := cty.MapValEmpty(cty.String)
	if len(vars) > 0 {
		envVal = cty.MapVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
	}
}

func (r *runBlock) apply(m *config.Model) {
	config.Overrides{
		Workers:         r.Workers,
		Ordered:         r.Ordered,
		Explain:         r.Explain,
		LogLevel:        r.LogLevel,
		LogFormat:       r.LogFormat,
		HealthcheckPort: r.HealthcheckPort,
	}.Apply(m)
}

func (p *publishBlock) apply(m *config.Model) error {
	pub := config.DefaultPublish(p.URL)
	if p.Namespace != nil {
		pub.Namespace = *p.Namespace
	}
	if p.Event != nil {
		pub.Event = *p.Event
	}
	if p.InsecureSkipVerify != nil {
		pub.InsecureSkipVerify = *p.InsecureSkipVerify
	}
	if p.Timeout != nil {
		pub.Timeout = *p.Timeout
	}

	if !p.Metadata.IsNull() {
		meta, err := ctyToNative(p.Metadata)
		if err != nil {
			return fmt.Errorf("publish metadata: %w", err)
		}
		obj, ok := meta.(map[string]any)
		if !ok {
			return fmt.Errorf("publish metadata must be an object, got %s", p.Metadata.Type().FriendlyName())
		}
		pub.Metadata = obj
	}

	m.Publish = pub
	return nil
}

// findAllHCLFiles expands directories into their .hcl files, sorted per
// directory, and drops duplicates. Missing paths are skipped.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			allFiles = append(allFiles, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}

		var found []string
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
