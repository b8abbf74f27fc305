// Package driver orchestrates the whole compilation: module resolution,
// root selection, the optional scan pre-pass, code generation, the
// scan/compile consistency check and artifact emission.
package driver

import (
	"context"
	"fmt"
	"time"

	"aotc/internal/codegen"
	"aotc/internal/depgraph"
	"aotc/internal/diag"
	"aotc/internal/emit"
	"aotc/internal/image"
	"aotc/internal/interop"
	"aotc/internal/metadata"
	"aotc/internal/observ"
	"aotc/internal/rootset"
	"aotc/internal/scan"
	"aotc/internal/target"
	"aotc/internal/verify"
)

// Request is one fully-specified compilation.
type Request struct {
	Config *target.CompilationConfig

	InputPaths     []string
	ReferencePaths []string
	SystemModule   string

	OutputPath  string
	ExportsPath string

	Roots rootset.Options
	Scan  scan.Setting

	// Trace output paths; empty disables the corresponding trace. Each
	// phase carries its own fidelity: false keeps the first edge per
	// node, true keeps every edge.
	ScanTracePath        string
	ScanTraceAllEdges    bool
	CompileTracePath     string
	CompileTraceAllEdges bool

	// Backend overrides the mode-selected backend; nil picks the
	// built-in one for Config.Codegen.
	Backend codegen.Backend

	Reporter diag.Reporter
	Progress ProgressSink
	Timer    *observ.Timer
}

// Outcome is what a successful pipeline run produced.
type Outcome struct {
	Modules *image.Set
	Group   rootset.ModuleGroup
	Roots   []rootset.Root

	// Scan is nil when the pre-pass was skipped.
	Scan    *scan.Result
	Compile *codegen.Result

	Metadata *metadata.Manager
	Stubs    *interop.StubManager

	Timings Timings
}

// Run executes the pipeline. The returned error is either a
// *diag.ConfigError (fix the invocation) or a *diag.InternalError
// (compiler bug, typically a consistency violation).
func Run(ctx context.Context, req *Request) (*Outcome, error) {
	if req.Config == nil {
		return nil, diag.Configf(diag.CfgInfo, "no compilation config")
	}
	if req.OutputPath == "" {
		return nil, diag.Configf(diag.CfgMissingOutput, "output filename must be specified")
	}
	reporter := req.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}

	out := &Outcome{}
	p := &pipeline{req: req, reporter: reporter}

	// Resolve module images.
	err := p.stage(ctx, StageResolve, func() (string, error) {
		set, err := image.ResolveSet(req.InputPaths, req.ReferencePaths, req.SystemModule, reporter)
		if err != nil {
			return "", err
		}
		out.Modules = set
		return fmt.Sprintf("%d inputs, %d references", len(set.Inputs()), len(set.References())), nil
	}, &out.Timings)
	if err != nil {
		return nil, err
	}

	// Select the module group and the root set, and let the two
	// managers observe root discovery.
	mm := metadata.NewUsageBased()
	if req.Config.HasRemovedFeature(target.FeatureReflection) {
		mm = metadata.NewEmpty()
	}
	stubs := interop.NewUsageBased()
	err = p.stage(ctx, StageRoots, func() (string, error) {
		group, roots, err := rootset.Select(req.Config, out.Modules, req.Roots)
		if err != nil {
			return "", err
		}
		out.Group = group
		out.Roots = roots
		if err := recordRootDemands(out.Modules, roots, mm, stubs); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s group, %d roots", group.Kind, len(roots)), nil
	}, &out.Timings)
	if err != nil {
		return nil, err
	}

	// The managers' demands at this point are the ones that become
	// compilation roots; the scan appends to the metadata manager but
	// those entries are reachability results, not demands.
	metaRoots := mm.RootMethods()
	interopRoots := stubs.RootMethods()

	// Scan pre-pass.
	if scan.ShouldRun(req.Config, req.Scan, req.Roots.MultiFile) {
		var scanRec *depgraph.Recorder
		if req.ScanTracePath != "" {
			scanRec = depgraph.NewRecorder(depgraph.ParseFidelity(req.ScanTraceAllEdges))
		}
		err = p.stage(ctx, StageScan, func() (string, error) {
			res, err := scan.Run(ctx, scan.Input{
				Set:      out.Modules,
				Roots:    out.Roots,
				Metadata: mm,
				Recorder: scanRec,
			})
			if err != nil {
				return "", err
			}
			out.Scan = res
			if mm.State() == metadata.StateUsageBased {
				frozen, err := metadata.Freeze(mm, res.Universe())
				if err != nil {
					return "", err
				}
				mm = frozen
			}
			stubs = interop.NewDerived(res.Stubs())
			interopRoots = stubs.RootMethods()
			if scanRec != nil {
				if err := emit.WriteDepLog(req.ScanTracePath, scanRec, diag.ScanTraceFailed); err != nil {
					return "", err
				}
			}
			return fmt.Sprintf("%d methods, %d types", len(res.Methods()), len(res.Types())), nil
		}, &out.Timings)
		if err != nil {
			return nil, err
		}
	} else {
		p.skip(StageScan)
	}
	out.Metadata = mm
	out.Stubs = stubs

	// Code generation.
	backend := req.Backend
	if backend == nil {
		backend, err = codegen.New(req.Config.Codegen)
		if err != nil {
			return nil, err
		}
	}
	var compileRec *depgraph.Recorder
	if req.CompileTracePath != "" {
		compileRec = depgraph.NewRecorder(depgraph.ParseFidelity(req.CompileTraceAllEdges))
	}
	err = p.stage(ctx, StageCompile, func() (string, error) {
		in := codegen.Input{
			Config:        req.Config,
			Set:           out.Modules,
			Group:         out.Group,
			Roots:         out.Roots,
			MetadataRoots: metaRoots,
			InteropRoots:  interopRoots,
			Recorder:      compileRec,
		}
		if out.Scan != nil {
			in.VTables = out.Scan
			in.Dicts = out.Scan
			in.Oracle = out.Scan
		}
		res, err := codegen.Compile(ctx, backend, in)
		if err != nil {
			return "", err
		}
		out.Compile = res
		if compileRec != nil {
			if err := emit.WriteDepLog(req.CompileTracePath, compileRec, diag.EmitTraceFailed); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%d methods, %d symbols", len(res.Methods), len(res.Symbols)), nil
	}, &out.Timings)
	if err != nil {
		return nil, err
	}

	// Consistency verification requires both universes.
	if out.Scan != nil {
		err = p.stage(ctx, StageVerify, func() (string, error) {
			if err := verify.Check(out.Scan, out.Compile, req.Config, reporter); err != nil {
				return "", err
			}
			return "consistent", nil
		}, &out.Timings)
		if err != nil {
			return nil, err
		}
	} else {
		p.skip(StageVerify)
	}

	// Artifact emission.
	err = p.stage(ctx, StageEmit, func() (string, error) {
		if err := emit.WriteObject(req.OutputPath, req.Config.TargetTriple(), backend.Name(), out.Compile); err != nil {
			return "", err
		}
		if req.ExportsPath != "" {
			if err := emit.WriteExports(req.ExportsPath, rootset.ExportedMethodNames(out.Roots)); err != nil {
				return "", err
			}
		}
		return req.OutputPath, nil
	}, &out.Timings)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// recordRootDemands registers every rooted method with the metadata
// manager and requests interop stubs for rooted methods no module
// defines.
func recordRootDemands(set *image.Set, roots []rootset.Root, mm *metadata.Manager, stubs *interop.StubManager) error {
	note := func(identity string) error {
		if err := mm.RecordMethod(identity); err != nil {
			return err
		}
		if m, _ := set.ResolveIdentity(identity); m == nil {
			stubs.Request(identity)
		}
		return nil
	}
	for _, root := range roots {
		if root.Kind == rootset.KindRuntimeConfiguration {
			continue
		}
		if root.Entry != "" {
			if err := note(root.Entry); err != nil {
				return err
			}
		}
		for _, init := range root.Initializers {
			if err := note(init); err != nil {
				return err
			}
		}
		for _, m := range root.Methods {
			if err := note(m); err != nil {
				return err
			}
		}
	}
	return nil
}

type pipeline struct {
	req      *Request
	reporter diag.Reporter
}

// stage runs one pipeline phase, reporting progress and recording its
// duration.
func (p *pipeline) stage(ctx context.Context, s Stage, fn func() (string, error), timings *Timings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.emit(Event{Stage: s, Status: StatusWorking})
	var idx int
	if p.req.Timer != nil {
		idx = p.req.Timer.Begin(string(s))
	}
	start := time.Now()
	detail, err := fn()
	elapsed := time.Since(start)
	timings.Set(s, elapsed)
	if p.req.Timer != nil {
		p.req.Timer.End(idx, detail)
	}
	if err != nil {
		p.emit(Event{Stage: s, Status: StatusError, Err: err, Elapsed: elapsed})
		return err
	}
	p.emit(Event{Stage: s, Status: StatusDone, Detail: detail, Elapsed: elapsed})
	return nil
}

func (p *pipeline) skip(s Stage) {
	p.emit(Event{Stage: s, Status: StatusSkipped})
}

func (p *pipeline) emit(e Event) {
	if p.req.Progress != nil {
		p.req.Progress.OnEvent(e)
	}
}
