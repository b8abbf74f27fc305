package codegen

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"aotc/internal/image"
	"aotc/internal/rootset"
	"aotc/internal/target"
)

// synthPrefix names the namespace for compiler-synthesized entities the
// scanner does not model.
const synthPrefix = "Internal.CompilerGenerated."

// intrinsicPrefix marks SIMD-intrinsic-heavy methods the scanner does
// not expand.
const intrinsicPrefix = "System.Runtime.Intrinsics."

// inlineBodyLimit is the largest body the optimizing walk folds into
// its caller instead of compiling separately.
const inlineBodyLimit = 8

// genericBackend is the built-in backend shared by all codegen modes:
// a precise reachability walk that emits one symbol per compiled
// method. Real instruction selection lives outside the driver; the
// walk models exactly the reachability behavior the verifier checks.
type genericBackend struct {
	mode target.CodegenMode
}

func (b *genericBackend) Name() string { return b.mode.String() }

type walkState struct {
	in        Input
	optimize  bool
	compiled  map[string]struct{}
	types     map[string]struct{}
	imports   map[string]struct{}
	stubs     map[string]struct{}
	dataSyms  []Symbol
	queue     []workItem
	throwHelp bool
}

type workItem struct {
	identity string
	from     string
	reason   string
}

func (b *genericBackend) Compile(ctx context.Context, in Input) (*Result, error) {
	st := &walkState{
		in:       in,
		optimize: in.Config.Optimization != target.OptNone,
		compiled: make(map[string]struct{}),
		types:    make(map[string]struct{}),
		imports:  make(map[string]struct{}),
		stubs:    make(map[string]struct{}),
	}
	st.seed()

	for len(st.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := st.queue[0]
		st.queue = st.queue[1:]
		st.visit(item)
	}

	symbols, err := b.emitSymbols(ctx, st)
	if err != nil {
		return nil, err
	}

	return &Result{
		Methods:            st.compiled,
		Types:              st.types,
		Symbols:            symbols,
		VerifierExclusions: []string{synthPrefix, intrinsicPrefix},
	}, nil
}

func (st *walkState) seed() {
	for _, root := range st.in.Roots {
		if root.Kind == rootset.KindRuntimeConfiguration {
			size := 0
			for _, opt := range root.Options {
				size += len(opt) + 1
			}
			st.dataSyms = append(st.dataSyms, Symbol{
				Name: synthPrefix + "RuntimeConfigurationBlob",
				Kind: SymbolData,
				Size: size,
			})
			continue
		}
		if root.Entry != "" {
			st.enqueue(root.Entry, "", "root")
		}
		for _, init := range root.Initializers {
			st.enqueue(init, "", "root")
		}
		for _, m := range root.Methods {
			st.enqueue(m, "", "root")
		}
	}
}

func (st *walkState) enqueue(identity, from, reason string) {
	if from == "" {
		st.in.Recorder.Node(identity)
	}
	st.queue = append(st.queue, workItem{identity: identity, from: from, reason: reason})
}

func (st *walkState) visit(item workItem) {
	if _, ok := st.compiled[item.identity]; ok {
		st.record(item)
		return
	}
	if _, ok := st.imports[item.identity]; ok {
		return
	}

	method, _ := st.in.Set.ResolveIdentity(item.identity)
	if method == nil {
		if st.in.Group.Kind == rootset.GroupSingleMethod && !st.in.Group.ContainsMethod(item.identity, "") {
			// Isolation builds reference unresolved callees instead of
			// compiling stubs for them.
			st.imports[item.identity] = struct{}{}
			return
		}
		// An interop import: compile a stub for it.
		st.compiled[item.identity] = struct{}{}
		st.stubs[item.identity] = struct{}{}
		st.record(item)
		return
	}

	_, mod := st.in.Set.FindMethod(method.QualifiedName())
	if mod != nil && !st.in.Group.ContainsMethod(item.identity, mod.Name) {
		// Outside the module group's world view the method is already
		// compiled elsewhere; reference it, do not traverse it. The
		// single-method group narrows the world view to the one
		// requested method.
		st.imports[item.identity] = struct{}{}
		return
	}

	st.compiled[item.identity] = struct{}{}
	st.record(item)
	if method.BodySize > 0 && !method.Is(image.FlagSynthesized) {
		st.needThrowHelpers()
	}

	st.traverse(method, item.identity, make(map[string]struct{}))
}

// traverse walks a method's edges, folding small callees into the
// caller under optimizing modes. inlined guards against mutually
// recursive small methods.
func (st *walkState) traverse(method *image.Method, from string, inlined map[string]struct{}) {
	for _, constructed := range method.Constructs {
		st.types[constructed] = struct{}{}
		st.in.Recorder.Record(from, constructed, "construct")
	}

	for _, callee := range method.Calls {
		if st.optimize {
			if target, _ := st.in.Set.ResolveIdentity(callee); target != nil && st.inlinable(target) {
				if _, seen := inlined[callee]; !seen {
					inlined[callee] = struct{}{}
					st.in.Recorder.Record(from, callee, "inline")
					st.traverse(target, from, inlined)
					continue
				}
			}
		}
		st.enqueue(callee, from, "call")
	}

	for _, site := range method.VirtualCalls {
		if st.in.Oracle != nil {
			if target, ok := st.in.Oracle.Devirtualize(site); ok {
				st.enqueue(target, from, "devirt")
				continue
			}
		}
		for _, t := range st.in.Set.Overrides(site) {
			st.enqueue(t.QualifiedName(), from, "vcall")
		}
	}
}

func (st *walkState) inlinable(m *image.Method) bool {
	if m.BodySize <= 0 || m.BodySize > inlineBodyLimit {
		return false
	}
	if m.GenericParams > 0 || len(m.VirtualCalls) > 0 {
		return false
	}
	if m.Is(image.FlagEntryPoint) || m.Is(image.FlagExported) || m.Is(image.FlagInitializer) {
		return false
	}
	_, mod := st.in.Set.FindMethod(m.QualifiedName())
	return mod != nil && st.in.Group.ContainsMethod(m.QualifiedName(), mod.Name)
}

func (st *walkState) record(item workItem) {
	if item.from != "" {
		st.in.Recorder.Record(item.from, item.identity, item.reason)
	}
}

func (st *walkState) needThrowHelpers() {
	if st.throwHelp {
		return
	}
	st.throwHelp = true
	helper := synthPrefix + "ThrowHelpers.ThrowNullReference"
	if st.in.Group.Kind == rootset.GroupSingleMethod {
		// Isolation builds reference the canonical helper instead of
		// synthesizing their own copy.
		st.imports[helper] = struct{}{}
		return
	}
	st.compiled[helper] = struct{}{}
}

// emitSymbols produces the symbol table, compiling method bodies in
// parallel. The parallelism is internal to the backend: the
// orchestration layer sees one blocking call.
func (b *genericBackend) emitSymbols(ctx context.Context, st *walkState) ([]Symbol, error) {
	identities := make([]string, 0, len(st.compiled))
	for m := range st.compiled {
		identities = append(identities, m)
	}
	sort.Strings(identities)

	jobs := st.in.Config.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	var mu sync.Mutex
	symbols := make([]Symbol, 0, len(identities)+len(st.imports)+len(st.dataSyms))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, identity := range identities {
		identity := identity
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sym := Symbol{Name: identity, Kind: SymbolCode}
			if _, ok := st.stubs[identity]; ok {
				sym.Kind = SymbolStub
			} else if m, _ := st.in.Set.ResolveIdentity(identity); m != nil {
				sym.Size = m.BodySize
			}
			mu.Lock()
			symbols = append(symbols, sym)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for imp := range st.imports {
		symbols = append(symbols, Symbol{Name: imp, Kind: SymbolImport})
	}
	symbols = append(symbols, st.dataSyms...)

	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Name < symbols[j].Name })
	return symbols, nil
}
