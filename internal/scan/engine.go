package scan

import (
	"context"

	"aotc/internal/depgraph"
	"aotc/internal/image"
	"aotc/internal/metadata"
	"aotc/internal/rootset"
)

// Input carries everything the scanner consumes. The metadata manager
// must still be usage-based: the scanner is its single writer while the
// scan runs.
type Input struct {
	Set      *image.Set
	Roots    []rootset.Root
	Metadata *metadata.Manager
	Recorder *depgraph.Recorder
}

type workItem struct {
	identity string
	from     string
	reason   string
}

// Run executes the conservative reachability analysis over the root
// set and derives the scan-owned layout decisions.
//
// Over-approximation rules:
//   - a virtual call site reaches every override of the slot across all
//     resolved modules, whether or not the receiver type was seen
//     constructed;
//   - a direct call to a method no module defines is treated as an
//     interop import and demands a stub;
//   - constructed types are the union of every scanned method's
//     construction list.
func Run(ctx context.Context, in Input) (*Result, error) {
	res := &Result{
		methods: make(map[string]struct{}),
		types:   make(map[string]struct{}),
		vtables: make(map[string][]string),
		dicts:   make(map[string][]string),
		devirt:  make(map[image.VirtualSite]string),
	}
	slotUse := make(map[string]map[string]struct{})
	stubSeen := make(map[string]struct{})
	queue := seedRoots(in.Roots, in.Recorder)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := queue[0]
		queue = queue[1:]

		if _, ok := res.methods[item.identity]; ok {
			if item.from != "" {
				in.Recorder.Record(item.from, item.identity, item.reason)
			}
			continue
		}

		method, typeArgs := in.Set.ResolveIdentity(item.identity)
		if method == nil {
			// No module defines the callee: an interop import.
			if _, ok := stubSeen[item.identity]; !ok {
				stubSeen[item.identity] = struct{}{}
				res.stubs = append(res.stubs, item.identity)
			}
			res.methods[item.identity] = struct{}{}
			if item.from != "" {
				in.Recorder.Record(item.from, item.identity, "stub")
			}
			continue
		}

		res.methods[item.identity] = struct{}{}
		if err := in.Metadata.RecordMethod(item.identity); err != nil {
			return nil, err
		}
		if item.from != "" {
			in.Recorder.Record(item.from, item.identity, item.reason)
		}
		if len(typeArgs) > 0 {
			res.dicts[item.identity] = typeArgs
		}

		for _, constructed := range method.Constructs {
			if _, ok := res.types[constructed]; !ok {
				res.types[constructed] = struct{}{}
				if err := in.Metadata.RecordType(constructed); err != nil {
					return nil, err
				}
			}
			in.Recorder.Record(item.identity, constructed, "construct")
		}

		for _, callee := range method.Calls {
			queue = append(queue, workItem{identity: callee, from: item.identity, reason: "call"})
		}

		for _, site := range method.VirtualCalls {
			targets := in.Set.Overrides(site)
			for _, t := range targets {
				queue = append(queue, workItem{identity: t.QualifiedName(), from: item.identity, reason: "vcall"})
				if use := slotUse[t.Owner]; use == nil {
					slotUse[t.Owner] = map[string]struct{}{site.Method: {}}
				} else {
					use[site.Method] = struct{}{}
				}
			}
			if len(targets) == 1 {
				res.devirt[site] = targets[0].QualifiedName()
			}
		}
	}

	finalizeVTables(in.Set, slotUse, res)
	return res, nil
}

func seedRoots(roots []rootset.Root, rec *depgraph.Recorder) []workItem {
	var queue []workItem
	seed := func(identity string) {
		rec.Node(identity)
		queue = append(queue, workItem{identity: identity})
	}
	for _, root := range roots {
		// Runtime-configuration roots synthesize their blob during
		// codegen; there is nothing for the scanner to walk.
		if root.Kind == rootset.KindRuntimeConfiguration {
			continue
		}
		if root.Entry != "" {
			seed(root.Entry)
		}
		for _, init := range root.Initializers {
			seed(init)
		}
		for _, m := range root.Methods {
			seed(m)
		}
	}
	return queue
}

// finalizeVTables orders each type's used slots by its declared slot
// order so the layout is deterministic.
func finalizeVTables(set *image.Set, slotUse map[string]map[string]struct{}, res *Result) {
	for typeName, used := range slotUse {
		t, _ := set.FindType(typeName)
		if t == nil {
			continue
		}
		var slice []string
		for _, slot := range t.VirtualSlots {
			if _, ok := used[slot]; ok {
				slice = append(slice, slot)
			}
		}
		if len(slice) > 0 {
			res.vtables[typeName] = slice
		}
	}
}
