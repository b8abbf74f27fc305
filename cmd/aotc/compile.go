package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"aotc/internal/diag"
	"aotc/internal/driver"
	"aotc/internal/observ"
	"aotc/internal/rootset"
	"aotc/internal/scan"
	"aotc/internal/target"
)

var compileFlags struct {
	references  []string
	out         string
	exportFile  string
	optimize    bool
	optSize     bool
	optSpeed    bool
	backend     string
	fixedBubble bool

	methodType        string
	methodName        string
	methodGenericArgs []string

	initModules     []string
	runtimeOptions  []string
	rootDescriptors []string

	scanOn          bool
	scanOff         bool
	scanTrace       string
	scanAllEdges    bool
	compileTrace    string
	compileAllEdges bool

	nativeLibrary bool
	multiFile     bool
	systemModule  string

	targetArch string
	targetOS   string
	jobs       int

	debugInfo         bool
	stackTraceData    bool
	foldBodies        bool
	sharedGenerics    bool
	disableReflection bool

	ui string
}

func init() {
	f := compileCmd.Flags()
	f.StringArrayVarP(&compileFlags.references, "reference", "r", nil, "reference module image (repeatable)")
	f.StringVarP(&compileFlags.out, "out", "o", "", "output object file")
	f.StringVar(&compileFlags.exportFile, "export-file", "", "write the native export definition file")

	f.BoolVarP(&compileFlags.optimize, "optimize", "O", false, "enable optimizations")
	f.BoolVar(&compileFlags.optSize, "Os", false, "optimize for size")
	f.BoolVar(&compileFlags.optSpeed, "Ot", false, "optimize for speed")

	f.StringVar(&compileFlags.backend, "backend", "native", "code generation backend (native|cee-c|wasm|fixed-image)")
	f.BoolVar(&compileFlags.fixedBubble, "fixed-image-bubble", false, "extend the fixed-image version bubble to all reference modules")

	f.StringVar(&compileFlags.methodType, "method-type", "", "compile a single method: declaring type name")
	f.StringVar(&compileFlags.methodName, "method-name", "", "compile a single method: method name")
	f.StringArrayVar(&compileFlags.methodGenericArgs, "method-generic-args", nil, "generic argument type for the single method (repeatable, ordered)")

	f.StringArrayVar(&compileFlags.initModules, "init-module", nil, "module whose library initializer runs before the entry point (repeatable, ordered)")
	f.StringArrayVar(&compileFlags.runtimeOptions, "runtime-option", nil, "runtime configuration option (repeatable)")
	f.StringArrayVar(&compileFlags.rootDescriptors, "root-descriptor", nil, "root descriptor file (repeatable)")

	f.BoolVar(&compileFlags.scanOn, "scan", false, "force the scan pre-pass on")
	f.BoolVar(&compileFlags.scanOff, "no-scan", false, "force the scan pre-pass off")
	f.StringVar(&compileFlags.scanTrace, "scan-trace", "", "write the scan dependency trace to a file")
	f.BoolVar(&compileFlags.scanAllEdges, "scan-trace-all-edges", false, "record every scan dependency edge instead of the first per node")
	f.StringVar(&compileFlags.compileTrace, "compile-trace", "", "write the compile dependency trace to a file")
	f.BoolVar(&compileFlags.compileAllEdges, "compile-trace-all-edges", false, "record every compile dependency edge instead of the first per node")

	f.BoolVar(&compileFlags.nativeLibrary, "native-library", false, "build a native library (exports rooted, no entry point required)")
	f.BoolVar(&compileFlags.multiFile, "multi-file", false, "compile input modules as a shared multi-module group")
	f.StringVar(&compileFlags.systemModule, "system-module", "", "designated runtime-support module name")

	f.StringVar(&compileFlags.targetArch, "target-arch", "", "target architecture (default: host)")
	f.StringVar(&compileFlags.targetOS, "target-os", "", "target operating system (default: host)")
	f.IntVar(&compileFlags.jobs, "jobs", env.Int("AOTC_JOBS", 0), "parallel backend workers (0 = all CPUs)")

	f.BoolVarP(&compileFlags.debugInfo, "debug-info", "g", false, "emit debug information")
	f.BoolVar(&compileFlags.stackTraceData, "stack-trace-data", false, "emit stack trace metadata")
	f.BoolVar(&compileFlags.foldBodies, "fold-bodies", false, "fold identical method bodies")
	f.BoolVar(&compileFlags.sharedGenerics, "shared-generics", false, "share generic instantiation code")
	f.BoolVar(&compileFlags.disableReflection, "disable-reflection", false, "compile out reflection metadata entirely")

	f.StringVar(&compileFlags.ui, "ui", "auto", "interactive progress display (auto|on|off)")
}

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <inputs...>",
	Short: "Compile bytecode module images to a native object file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	colorValue, _ := cmd.Flags().GetString("color")
	if colorValue == "" {
		colorValue = env.Str("AOTC_COLOR", "auto")
	}
	colored, err := readColorMode(colorValue)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	showTimings, _ := cmd.Flags().GetBool("timings")
	maxDiags, _ := cmd.Flags().GetInt("max-diagnostics")

	mode, err := readUIMode(compileFlags.ui)
	if err != nil {
		return err
	}

	req, err := buildRequest(cmd, args)
	if err != nil {
		return renderFailure(cmd, err)
	}

	bag := diag.NewBag(maxDiags)
	req.Reporter = diag.BagReporter{Bag: bag}
	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
		req.Timer = timer
	}

	var out *driver.Outcome
	if shouldUseTUI(mode) && !quiet {
		out, err = runPipelineWithUI(cmd.Context(), "compiling "+req.OutputPath, req)
	} else {
		out, err = driver.Run(cmd.Context(), req)
	}

	bag.SortStable()
	if !quiet {
		console := diag.NewConsoleReporter(cmd.ErrOrStderr(), colored)
		for _, d := range bag.Items() {
			console.Report(d)
		}
	}
	if err != nil {
		return renderFailure(cmd, err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d symbols, %s group)\n",
			req.OutputPath, len(out.Compile.Symbols), out.Group.Kind)
	}
	if showTimings {
		printStageTimings(cmd.OutOrStdout(), out.Timings)
	}
	return nil
}

// buildRequest folds flags over manifest defaults into a pipeline
// request. Explicit flags always win.
func buildRequest(cmd *cobra.Command, inputs []string) (*driver.Request, error) {
	f := compileFlags

	manifest, haveManifest, err := loadManifest(".")
	if err != nil {
		return nil, err
	}
	if haveManifest {
		m := manifest.Config.Compile
		if !cmd.Flags().Changed("out") && m.Out != "" {
			f.out = m.Out
		}
		if !cmd.Flags().Changed("backend") && m.Backend != "" {
			f.backend = m.Backend
		}
		if !cmd.Flags().Changed("system-module") && m.SystemModule != "" {
			f.systemModule = m.SystemModule
		}
		if !cmd.Flags().Changed("target-arch") && m.TargetArch != "" {
			f.targetArch = m.TargetArch
		}
		if !cmd.Flags().Changed("target-os") && m.TargetOS != "" {
			f.targetOS = m.TargetOS
		}
		if !cmd.Flags().Changed("jobs") && m.Jobs > 0 {
			f.jobs = m.Jobs
		}
		f.references = append(f.references, m.References...)
	}

	if f.out == "" {
		return nil, diag.Configf(diag.CfgMissingOutput, "output filename must be specified")
	}

	codegenMode, err := target.ParseCodegenMode(f.backend)
	if err != nil {
		return nil, err
	}

	// Config warnings surface through the request reporter later; here a
	// throwaway bag keeps Resolve's warnings from being lost.
	cfgBag := diag.NewBag(16)
	cfg, err := target.Resolve(target.Options{
		ArchName:          f.targetArch,
		OSName:            f.targetOS,
		Codegen:           codegenMode,
		OptBlended:        f.optimize,
		OptPreferSize:     f.optSize,
		OptPreferSpeed:    f.optSpeed,
		DebugInfo:         f.debugInfo,
		StackTraceData:    f.stackTraceData,
		FoldBodies:        f.foldBodies,
		SharedGenerics:    f.sharedGenerics,
		DisableReflection: f.disableReflection,
		RuntimeOptions:    f.runtimeOptions,
		Jobs:              f.jobs,
	}, diag.BagReporter{Bag: cfgBag})
	if err != nil {
		return nil, err
	}
	if cfgBag.Len() > 0 {
		console := diag.NewConsoleReporter(cmd.ErrOrStderr(), false)
		for _, d := range cfgBag.Items() {
			console.Report(d)
		}
	}

	var singleMethod *rootset.MethodSpec
	if f.methodType != "" || f.methodName != "" {
		if f.methodType == "" || f.methodName == "" {
			return nil, diag.Configf(diag.RootMethodNotFound,
				"--method-type and --method-name must be given together")
		}
		singleMethod = &rootset.MethodSpec{
			TypeName:    f.methodType,
			MethodName:  f.methodName,
			GenericArgs: f.methodGenericArgs,
		}
	}

	descriptors, err := rootset.LoadDescriptors(f.rootDescriptors)
	if err != nil {
		return nil, err
	}

	return &driver.Request{
		Config:         cfg,
		InputPaths:     inputs,
		ReferencePaths: f.references,
		SystemModule:   f.systemModule,
		OutputPath:     f.out,
		ExportsPath:    f.exportFile,
		Roots: rootset.Options{
			SingleMethod:       singleMethod,
			WholeVersionBubble: f.fixedBubble,
			MultiFile:          f.multiFile,
			NativeLibrary:      f.nativeLibrary,
			InitModules:        f.initModules,
			Descriptors:        descriptors,
		},
		Scan:                 scan.Setting{ForceOn: f.scanOn, ForceOff: f.scanOff},
		ScanTracePath:        f.scanTrace,
		ScanTraceAllEdges:    f.scanAllEdges,
		CompileTracePath:     f.compileTrace,
		CompileTraceAllEdges: f.compileAllEdges,
	}, nil
}

// renderFailure distinguishes user-fixable configuration errors from
// compiler bugs. Internal errors dump their full entity list before the
// one-line error cobra prints.
func renderFailure(cmd *cobra.Command, err error) error {
	var internal *diag.InternalError
	if errors.As(err, &internal) {
		fmt.Fprint(cmd.ErrOrStderr(), internal.Dump())
		fmt.Fprintln(cmd.ErrOrStderr(), "this is a compiler bug; please report it")
	}
	return err
}
