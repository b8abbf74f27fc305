package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Configuration resolution
	CfgInfo              Code = 1000
	CfgUnknownArch       Code = 1001
	CfgUnknownOS         Code = 1002
	CfgMissingOutput     Code = 1003
	CfgOptConflict       Code = 1004
	CfgWasmArchForced    Code = 1005
	CfgBadManifest       Code = 1006
	CfgReflectionRemoved Code = 1007

	// Module resolution
	ResInfo            Code = 2000
	ResBadImage        Code = 2001
	ResSchemaMismatch  Code = 2002
	ResDuplicateModule Code = 2003
	ResNoUsableInputs  Code = 2004

	// Root selection
	RootInfo              Code = 3000
	RootTypeNotFound      Code = 3001
	RootMethodNotFound    Code = 3002
	RootGenericArity      Code = 3003
	RootMultipleEntry     Code = 3004
	RootNoEntry           Code = 3005
	RootBadDescriptor     Code = 3006
	RootMissingInitModule Code = 3007

	// Scan phase
	ScanInfo        Code = 4000
	ScanTraceFailed Code = 4001

	// Compile phase
	CompInfo          Code = 5000
	CompBackendFailed Code = 5001
	CompMethodFailed  Code = 5002

	// Consistency verification
	VerifyInfo            Code = 6000
	VerifySoundnessMethod Code = 6001
	VerifySoundnessType   Code = 6002
	VerifyPrecisionMethod Code = 6003
	VerifyPrecisionType   Code = 6004

	// Artifact emission
	EmitInfo         Code = 7000
	EmitObjectFailed Code = 7001
	EmitExportFailed Code = 7002
	EmitTraceFailed  Code = 7003
)

// String renders the stable user-visible form, e.g. "AOTC3004".
func (c Code) String() string {
	return fmt.Sprintf("AOTC%04d", uint16(c))
}
