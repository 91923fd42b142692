package lisp

import "strings"

// prStr renders each value (readably when readable is true, in display
// form otherwise) and joins with sep, the shared logic behind the pr-str,
// str, prn and println builtins.
func prStr(args []Value, sep string, readable bool) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if readable {
			parts[i] = String(a)
		} else {
			parts[i] = Display(a)
		}
	}
	return strings.Join(parts, sep)
}
