package common

const (
	SrcFileExtension = ".bas"
	AsmFileExtension = ".asm"
	ProjectFileName  = "fbc.toml"
	TableFileName    = "basic.table"
	FBCVersion       = "0.4.0"

	// StartRule is the grammar rule every source line is parsed with unless
	// the project configuration names another one.
	StartRule = "PARSE_START"

	// PlatformHeader is the assembler include emitted at the top of every
	// output file.
	PlatformHeader = "atari.inc"
)

// FBCPath is the directory named by the FBC_PATH environment variable.  It is
// searched for a compiled grammar table and may be empty.
var FBCPath = ""
