package lisp

import _ "embed"

// PreludeSource is the bootstrap prelude text (or/and/cond/not/<=/>=/</
// load-file), embedded into the binary so a fresh interpreter does not
// depend on any file on disk.
//
//go:embed prelude/core.lisp
var PreludeSource string
