// Command quizlint checks quiz YAML files the same way the server checks a
// create request.
//
//	quizlint [-defaults options.yaml] quiz.yaml...
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/quiz"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	defaultsPath := flag.String("defaults", os.Getenv("DEFAULTS_FILE"), "YAML file with server default options")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-defaults options.yaml] quiz.yaml...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var defaults quiz.Options
	if *defaultsPath != "" {
		opts, err := quiz.LoadOptions(*defaultsPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *defaultsPath).Msg("failed to load defaults")
		}
		defaults = opts
	}

	results := make([]Result, 0, flag.NArg())
	for _, path := range flag.Args() {
		results = append(results, lintFile(path, defaults))
	}

	if invalid := report(os.Stdout, results); invalid > 0 {
		os.Exit(1)
	}
}
