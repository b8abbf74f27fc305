// Package verify cross-checks the scan phase's predicted universe
// against the compile phase's concrete one.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"aotc/internal/codegen"
	"aotc/internal/diag"
	"aotc/internal/scan"
	"aotc/internal/target"
)

// Check runs the bidirectional consistency verification.
//
// The soundness direction always runs: every compiled method and every
// constructed type must have been predicted by the scanner. A violation
// means an unsound optimization decision may already be baked into the
// object code, so it is a fatal internal error.
//
// The precision direction runs only without optimization, where the
// compiler takes no shortcuts the scanner cannot see. Entities the
// scanner predicted but the compiler never reached are reported as
// warnings through r.
//
// Both directions filter entities matching the backend's exclusion
// prefixes, which name compiler-synthesized helpers the scanner does
// not model.
func Check(scanRes *scan.Result, compRes *codegen.Result, cfg *target.CompilationConfig, r diag.Reporter) error {
	if r == nil {
		r = diag.NopReporter{}
	}
	excluded := func(name string) bool {
		for _, prefix := range compRes.VerifierExclusions {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
		return false
	}

	var unscannedMethods, unscannedTypes []string
	for m := range compRes.Methods {
		if !excluded(m) && !scanRes.IncludesMethod(m) {
			unscannedMethods = append(unscannedMethods, m)
		}
	}
	for t := range compRes.Types {
		if !excluded(t) && !scanRes.IncludesType(t) {
			unscannedTypes = append(unscannedTypes, t)
		}
	}
	if len(unscannedMethods) > 0 || len(unscannedTypes) > 0 {
		sort.Strings(unscannedMethods)
		sort.Strings(unscannedTypes)
		code := diag.VerifySoundnessMethod
		if len(unscannedMethods) == 0 {
			code = diag.VerifySoundnessType
		}
		// Subjects carry every offender; the error's Dump renders the
		// full list.
		return &diag.InternalError{
			Code: code,
			Msg: fmt.Sprintf("compiled entities missing from the scanned universe: %d method(s), %d type(s)",
				len(unscannedMethods), len(unscannedTypes)),
			Subjects: append(unscannedMethods, unscannedTypes...),
		}
	}

	if cfg.Optimization != target.OptNone {
		return nil
	}

	var uncompiledMethods, uncompiledTypes []string
	for m := range scanRes.Methods() {
		if !excluded(m) && !compRes.IncludesMethod(m) {
			uncompiledMethods = append(uncompiledMethods, m)
		}
	}
	for t := range scanRes.Types() {
		if _, ok := compRes.Types[t]; !ok && !excluded(t) {
			uncompiledTypes = append(uncompiledTypes, t)
		}
	}
	sort.Strings(uncompiledMethods)
	sort.Strings(uncompiledTypes)
	for _, m := range uncompiledMethods {
		r.Report(diag.NewWarning(diag.VerifyPrecisionMethod, m,
			"scanned method was never compiled"))
	}
	for _, t := range uncompiledTypes {
		r.Report(diag.NewWarning(diag.VerifyPrecisionType, t,
			"scanned type was never constructed"))
	}
	return nil
}
