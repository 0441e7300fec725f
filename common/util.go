package common

// IsIdentStart returns whether c may begin a BASIC or grammar identifier
func IsIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// IsIdentChar returns whether c may continue a BASIC or grammar identifier
func IsIdentChar(c byte) bool {
	return IsIdentStart(c) || ('0' <= c && c <= '9')
}

// ToUpper upper-cases an ASCII byte, leaving everything else alone.  Source
// text is ATASCII so the unicode tables are of no use here.
func ToUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}

	return c
}
