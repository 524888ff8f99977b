package accessor

import "strings"

// NameIsValid reports whether name is usable as an accessor, port, or child
// name: nonempty, no periods (reserved for building full dotted paths), and
// no whitespace.
func NameIsValid(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		switch r {
		case '.', ' ', '\t', '\r', '\n':
			return true
		default:
			return false
		}
	}) == -1
}
