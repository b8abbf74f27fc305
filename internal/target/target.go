// Package target resolves raw configuration into an immutable
// CompilationConfig consumed by every later phase.
package target

import (
	"runtime"
	"strings"

	"aotc/internal/diag"
)

// Architecture identifies the instruction set being compiled for.
type Architecture uint8

const (
	ArchUnknown Architecture = iota
	ArchX64
	ArchARM64
	// ArchWasm32 is the fixed 32-bit virtual target used by the
	// WebAssembly backend.
	ArchWasm32
)

func (a Architecture) String() string {
	switch a {
	case ArchX64:
		return "x64"
	case ArchARM64:
		return "arm64"
	case ArchWasm32:
		return "wasm32"
	}
	return "unknown"
}

// OperatingSystem identifies the target platform.
type OperatingSystem uint8

const (
	OSUnknown OperatingSystem = iota
	OSLinux
	OSDarwin
	OSWindows
)

func (o OperatingSystem) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSDarwin:
		return "darwin"
	case OSWindows:
		return "windows"
	}
	return "unknown"
}

// ParseArchitecture maps a user-supplied string to an Architecture.
// An empty string defaults to the host.
func ParseArchitecture(s string) (Architecture, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return hostArchitecture(), nil
	case "x64", "amd64", "x86_64", "x86-64":
		return ArchX64, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	case "wasm32", "wasm":
		return ArchWasm32, nil
	default:
		return ArchUnknown, diag.Configf(diag.CfgUnknownArch, "unrecognized target architecture %q (expected x64|arm64|wasm32)", s)
	}
}

// ParseOS maps a user-supplied string to an OperatingSystem.
// An empty string defaults to the host.
func ParseOS(s string) (OperatingSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return hostOS(), nil
	case "linux":
		return OSLinux, nil
	case "darwin", "macos", "osx":
		return OSDarwin, nil
	case "windows", "win":
		return OSWindows, nil
	default:
		return OSUnknown, diag.Configf(diag.CfgUnknownOS, "unrecognized target OS %q (expected linux|darwin|windows)", s)
	}
}

func hostArchitecture() Architecture {
	switch runtime.GOARCH {
	case "arm64":
		return ArchARM64
	default:
		return ArchX64
	}
}

func hostOS() OperatingSystem {
	switch runtime.GOOS {
	case "darwin":
		return OSDarwin
	case "windows":
		return OSWindows
	default:
		return OSLinux
	}
}
