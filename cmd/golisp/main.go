// Command golisp is the REPL driver for the golisp interpreter.
package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"github.com/golisp-lang/golisp/lisp"
)

const historyFileName = ".mal_history"

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "golisp",
		Level: hclog.Info,
	})

	in := lisp.NewInterpreter()
	lisp.RegisterCore(in)

	if err := bootstrap(in); err != nil {
		logger.Error("prelude bootstrap failed", "error", err)
		os.Exit(1)
	}
	loadUserPrelude(in, logger)

	historyPath, err := filepath.Abs(historyFileName)
	if err != nil {
		historyPath = historyFileName
	}
	if f, err := os.OpenFile(historyPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err != nil {
		logger.Warn("history file is not writable; continuing without it", "path", historyPath, "error", err)
	} else {
		f.Close()
	}

	prompt := color.New(color.FgGreen).Sprint("user> ")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		logger.Error("could not start readline", "error", err)
		os.Exit(1)
	}
	defer rl.Close()

	errColor := color.New(color.FgRed)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			logger.Warn("readline error", "error", err)
			return
		}
		if line == "" {
			continue
		}

		result, err := rep(in, line)
		if err != nil {
			errColor.Fprintln(os.Stderr, err.Error())
			continue
		}
		if result != "" {
			os.Stdout.WriteString(result + "\n")
		}
	}
}

// rep reads, evaluates and renders one line of input. A *lisp.SyntaxError
// is reported to the caller but otherwise swallowed here: it yields
// nothing to print, not a crash.
func rep(in *lisp.Interpreter, line string) (string, error) {
	form, err := lisp.Read(line)
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	v, err := in.Eval(form, in.Global)
	if err != nil {
		return "", err
	}
	return lisp.String(v), nil
}

// bootstrap evaluates the embedded core prelude (or/and/cond/not/<=/>=/
// </load-file), the one piece of source this binary ships with baked in.
func bootstrap(in *lisp.Interpreter) error {
	forms, err := lisp.ReadAll(lisp.PreludeSource)
	if err != nil {
		return err
	}
	for _, f := range forms {
		if _, err := in.Eval(f, in.Global); err != nil {
			return err
		}
	}
	return nil
}

// loadUserPrelude optionally loads a prelude/core.lisp from the working
// directory for user extensions. Absence is non-fatal.
func loadUserPrelude(in *lisp.Interpreter, logger hclog.Logger) {
	const path = "prelude/core.lisp"
	if _, err := os.Stat(path); err != nil {
		return
	}
	form, err := lisp.Read(`(load-file "` + path + `")`)
	if err != nil {
		logger.Warn("could not parse user prelude load", "error", err)
		return
	}
	if _, err := in.Eval(form, in.Global); err != nil {
		logger.Warn("user prelude failed to load", "path", path, "error", err)
	}
}
