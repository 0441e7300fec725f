package build

import (
	"path/filepath"

	"github.com/TechCowboy/fastbasic/common"
)

// atasciiEOL is the end of line character of Atari text files
const atasciiEOL = 0x9B

// maxLineLen bounds the length of one source line
const maxLineLen = 1 << 20

// SourcePath returns the path of the source file to compile.  A name without
// extension that does not exist names the `.bas` file of the same name.
func SourcePath(name string) string {
	if filepath.Ext(name) == "" && !exists(name) && exists(name+common.SrcFileExtension) {
		return name + common.SrcFileExtension
	}

	return name
}

// scanLines is a bufio.SplitFunc for BASIC sources.  Lines end with a newline
// or an ATASCII end of line, an optional carriage return before the newline is
// dropped, and a final line without terminator is still returned.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	for i, c := range data {
		if c == '\n' {
			return i + 1, dropCR(data[:i]), nil
		} else if c == atasciiEOL {
			return i + 1, data[:i], nil
		}
	}

	if atEOF {
		return len(data), dropCR(data), nil
	}

	// request more data
	return 0, nil, nil
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[:len(data)-1]
	}

	return data
}
