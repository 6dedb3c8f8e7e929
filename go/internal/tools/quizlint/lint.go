package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/quiz"
)

// Result is the outcome of checking one quiz file.
type Result struct {
	Path   string
	Title  string
	Slides int
	Err    error
}

func (r Result) OK() bool { return r.Err == nil }

// lintFile loads path and builds its config with defaults merged under the
// file's own options.
func lintFile(path string, defaults quiz.Options) Result {
	res := Result{Path: path}

	f, err := quiz.LoadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Title = f.Title

	cfg, err := quiz.NewConfig(f.Document, f.Options.Merge(defaults))
	if err != nil {
		res.Err = err
		return res
	}
	res.Slides = len(cfg.Slides)
	return res
}

// report writes one line per result followed by totals, and returns the
// number of invalid files.
func report(w io.Writer, results []Result) int {
	invalid := 0
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(w, "ok      %s (%q, %d slides)\n", r.Path, r.Title, r.Slides)
			continue
		}
		invalid++
		var gerr *gameerr.Error
		if errors.As(r.Err, &gerr) && gerr.Detail != "" {
			fmt.Fprintf(w, "invalid %s: %s\n", r.Path, gerr.Detail)
		} else {
			fmt.Fprintf(w, "invalid %s: %v\n", r.Path, r.Err)
		}
	}
	fmt.Fprintf(w, "\nchecked %d, valid %d, invalid %d\n", len(results), len(results)-invalid, invalid)
	return invalid
}
