package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"aotc/internal/codegen"
	"aotc/internal/diag"
	"aotc/internal/image"
	"aotc/internal/metadata"
	"aotc/internal/rootset"
	"aotc/internal/scan"
	"aotc/internal/target"
)

func fixtureSet() *image.Set {
	app := &image.Module{
		Name:       "app",
		EntryPoint: "App.Program.Main",
		Types: []image.Type{
			{Name: "App.Program"},
			{Name: "App.Shape", VirtualSlots: []string{"Area"}},
			{Name: "App.Circle", Base: "App.Shape", VirtualSlots: []string{"Area"}},
			{Name: "App.Square", Base: "App.Shape", VirtualSlots: []string{"Area"}},
		},
		Methods: []image.Method{
			{
				Owner: "App.Program", Name: "Main", BodySize: 30, Flags: image.FlagEntryPoint,
				Calls:        []string{"App.Program.MakeShapes"},
				VirtualCalls: []image.VirtualSite{{DeclaringType: "App.Shape", Method: "Area"}},
			},
			{Owner: "App.Program", Name: "MakeShapes", BodySize: 20, Constructs: []string{"App.Circle"}},
			{Owner: "App.Shape", Name: "Area", BodySize: 10},
			{Owner: "App.Circle", Name: "Area", BodySize: 10},
			{Owner: "App.Square", Name: "Area", BodySize: 10},
		},
	}
	set := image.NewSet("")
	set.AddInput(app)
	return set
}

func mainRoots() []rootset.Root {
	return []rootset.Root{{Kind: rootset.KindMainEntry, Entry: "App.Program.Main"}}
}

func runBoth(t *testing.T, opt target.OptimizationMode, oracle codegen.DevirtOracle) (*scan.Result, *codegen.Result, *target.CompilationConfig) {
	t.Helper()
	set := fixtureSet()
	cfg := &target.CompilationConfig{Optimization: opt}

	scanRes, err := scan.Run(context.Background(), scan.Input{
		Set:      set,
		Roots:    mainRoots(),
		Metadata: metadata.NewUsageBased(),
	})
	if err != nil {
		t.Fatalf("scan.Run: %v", err)
	}

	backend, err := codegen.New(target.CodegenNative)
	if err != nil {
		t.Fatalf("codegen.New: %v", err)
	}
	group, _, err := rootset.Select(cfg, set, rootset.Options{})
	if err != nil {
		t.Fatalf("rootset.Select: %v", err)
	}
	compRes, err := codegen.Compile(context.Background(), backend, codegen.Input{
		Config: cfg,
		Set:    set,
		Group:  group,
		Roots:  mainRoots(),
		Oracle: oracle,
	})
	if err != nil {
		t.Fatalf("codegen.Compile: %v", err)
	}
	return scanRes, compRes, cfg
}

func TestConsistentPhasesPass(t *testing.T) {
	scanRes, compRes, cfg := runBoth(t, target.OptNone, nil)
	bag := diag.NewBag(64)
	if err := Check(scanRes, compRes, cfg, diag.BagReporter{Bag: bag}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if bag.HasWarnings() {
		t.Fatalf("unexpected warnings: %v", bag.Items())
	}
}

func TestSoundnessViolationIsFatal(t *testing.T) {
	scanRes, compRes, cfg := runBoth(t, target.OptNone, nil)

	// Simulate a backend that compiled something the scanner never
	// predicted.
	compRes.Methods["App.Hidden.Surprise"] = struct{}{}

	err := Check(scanRes, compRes, cfg, nil)
	var internal *diag.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("Check = %v, want internal error", err)
	}
	if internal.Code != diag.VerifySoundnessMethod {
		t.Fatalf("code = %s", internal.Code)
	}
	found := false
	for _, s := range internal.Subjects {
		if s == "App.Hidden.Surprise" {
			found = true
		}
	}
	if !found {
		t.Fatalf("offender missing from subjects: %v", internal.Subjects)
	}
}

func TestSoundnessSubjectsListEveryOffender(t *testing.T) {
	scanRes, compRes, cfg := runBoth(t, target.OptNone, nil)

	var want []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("App.Hidden.M%02d", i)
		compRes.Methods[id] = struct{}{}
		want = append(want, id)
	}

	err := Check(scanRes, compRes, cfg, nil)
	var internal *diag.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("Check = %v, want internal error", err)
	}
	if len(internal.Subjects) != len(want) {
		t.Fatalf("len(Subjects) = %d, want %d: %v", len(internal.Subjects), len(want), internal.Subjects)
	}
	dump := internal.Dump()
	for _, id := range want {
		if !strings.Contains(dump, id) {
			t.Fatalf("dump missing %s:\n%s", id, dump)
		}
	}
}

func TestSoundnessViolationOnTypes(t *testing.T) {
	scanRes, compRes, cfg := runBoth(t, target.OptNone, nil)
	compRes.Types["App.Hidden.Widget"] = struct{}{}

	err := Check(scanRes, compRes, cfg, nil)
	var internal *diag.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("Check = %v, want internal error", err)
	}
	if internal.Code != diag.VerifySoundnessType {
		t.Fatalf("code = %s", internal.Code)
	}
}

type circleOracle struct{}

func (circleOracle) Devirtualize(site image.VirtualSite) (string, bool) {
	if site.Method == "Area" {
		return "App.Circle.Area", true
	}
	return "", false
}

func TestPrecisionGapWarnsWithoutOptimization(t *testing.T) {
	// The oracle prunes Shape.Area and Square.Area, which the scanner's
	// over-approximation included.
	scanRes, compRes, cfg := runBoth(t, target.OptNone, circleOracle{})

	bag := diag.NewBag(64)
	if err := Check(scanRes, compRes, cfg, diag.BagReporter{Bag: bag}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !bag.HasWarnings() {
		t.Fatalf("expected precision warnings")
	}
	seen := make(map[string]struct{})
	for _, d := range bag.Items() {
		if d.Code != diag.VerifyPrecisionMethod {
			t.Fatalf("unexpected diagnostic: %+v", d)
		}
		seen[d.Subject] = struct{}{}
	}
	for _, want := range []string{"App.Shape.Area", "App.Square.Area"} {
		if _, ok := seen[want]; !ok {
			t.Fatalf("missing precision warning for %s", want)
		}
	}
}

func TestPrecisionSkippedUnderOptimization(t *testing.T) {
	scanRes, compRes, cfg := runBoth(t, target.OptBlended, circleOracle{})

	bag := diag.NewBag(64)
	if err := Check(scanRes, compRes, cfg, diag.BagReporter{Bag: bag}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if bag.HasWarnings() {
		t.Fatalf("precision direction must not run under optimization: %v", bag.Items())
	}
}

func TestSynthesizedEntitiesExcluded(t *testing.T) {
	scanRes, compRes, cfg := runBoth(t, target.OptNone, nil)

	// The backend's throw helpers never appear in the scanned universe
	// but carry an excluded prefix.
	if err := Check(scanRes, compRes, cfg, nil); err != nil {
		t.Fatalf("Check: %v", err)
	}
}
