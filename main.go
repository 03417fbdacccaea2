// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"gopkg.polyfront.org/frontend.go/internal/frontend"
	"gopkg.polyfront.org/frontend.go/internal/fs"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

type opts struct {
	Roots      []string
	DumpTokens bool
	DumpTree   bool
	Recover    bool
	KeepXML    bool
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	op := &opts{}
	flags := pflag.NewFlagSet("polyfront", pflag.PanicOnError)
	flags.StringSliceVar(&op.Roots, "root", []string{"."}, "Root search paths for targets.")
	flags.BoolVar(&op.DumpTokens, "dump-tokens", false, "Output the token stream as it is processed")
	flags.BoolVar(&op.DumpTree, "dump-tree", false, "Output each unit's tree after lowering")
	flags.BoolVar(&op.Recover, "recover", false, "Skip files with grammar violations instead of failing the batch")
	flags.BoolVar(&op.KeepXML, "keep-xml", false, "Preserve XML literals as opaque leaves instead of desugaring them")
	_ = flags.Parse(os.Args[1:])
	targets := flags.Args()

	mf := make(fs.FileSystemMulti, 0, len(op.Roots))
	for _, root := range op.Roots {
		absRoot, errAbs := filepath.Abs(root)
		if errAbs != nil {
			panic(errAbs.Error())
		}
		rf, err := fs.NewFileSystemLocal(absRoot)
		if err != nil {
			panic(err.Error())
		}
		mf = append(mf, rf)
	}

	f, err := frontend.New(
		frontend.OptionWithFS(mf),
	)
	if err != nil {
		panic(err)
	}

	resp, err := f.Parse(ctx, lang.ParseRequest{
		Files: targets,
		Config: lang.Config{
			Recover:         op.Recover,
			KeepXMLLiterals: op.KeepXML,
			DumpTokens:      op.DumpTokens,
			DumpTree:        op.DumpTree,
		},
	})
	if err != nil {
		var me frontend.MultiException
		if errors.As(err, &me) {
			for _, e := range me {
				fmt.Fprintln(os.Stderr, e.Error())
			}
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		if resp == nil || !op.Recover {
			os.Exit(1)
		}
	}

	for _, unit := range resp.Units {
		fmt.Printf("ok %s\n", unit.URI)
	}
	stats := resp.Stats
	fmt.Printf("parsed %d/%d files, %d/%d lines failed (%.2f%%)\n",
		stats.Files-stats.FailedFiles, stats.Files,
		stats.FailedLines, stats.TotalLines,
		stats.FailedLineFraction()*100)
}
