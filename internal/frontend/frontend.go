// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package frontend drives parsing batches. It opens targets through the
// file-system abstraction, routes each file to the front-end for its
// language, bounds concurrency with a channel semaphore, and accumulates
// per-run parse-coverage statistics. Failures are unit-granular: with
// recovery enabled a bad file is recorded and skipped while the batch
// continues.
package frontend

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.polyfront.org/frontend.go/internal/exc"
	"gopkg.polyfront.org/frontend.go/internal/fs"
	"gopkg.polyfront.org/frontend.go/internal/lang"
)

type Option func(f *Frontend) error

func OptionWithFS(v lang.FileSystem) Option {
	return func(f *Frontend) error {
		f.FS = v
		return nil
	}
}

// OptionWithReporter installs a fixed exception accumulator. Without it,
// each Parse call builds its own reporter from the request's recovery
// setting.
func OptionWithReporter(v exc.Reporter) Option {
	return func(f *Frontend) error {
		f.Reporter = v
		return nil
	}
}

func OptionWithMaxConcurrency(v int) Option {
	return func(f *Frontend) error {
		f.MaxConcurrency = v
		return nil
	}
}

func OptionWithFrontEnds(v map[lang.FileKind]FrontEnd) Option {
	return func(f *Frontend) error {
		f.FrontEnds = v
		return nil
	}
}

type Frontend struct {
	FS             lang.FileSystem
	Reporter       exc.Reporter
	MaxConcurrency int
	FrontEnds      map[lang.FileKind]FrontEnd
	Semaphore      *semaphore
}

func New(options ...Option) (*Frontend, error) {
	f := &Frontend{}
	for _, option := range options {
		if err := option(f); err != nil {
			return nil, err
		}
	}
	if f.FS == nil {
		local, err := fs.NewFileSystemLocal("/")
		if err != nil {
			return nil, err
		}
		f.FS = fs.FileSystemMulti{local}
	}
	if f.MaxConcurrency < 1 {
		f.MaxConcurrency = runtime.GOMAXPROCS(0)
		if cpus := runtime.NumCPU(); cpus < f.MaxConcurrency {
			f.MaxConcurrency = cpus
		}
	}
	if f.FrontEnds == nil {
		f.FrontEnds = DefaultFrontEnds()
	}
	f.Semaphore = newSemaphore(f.MaxConcurrency)
	return f, nil
}

// Parse lowers every target in the request to a Generic AST unit. The
// response carries the units that parsed plus coverage statistics over the
// whole batch; accumulated exceptions come back as a MultiException
// alongside the partial response.
func (self *Frontend) Parse(ctx context.Context, req lang.ParseRequest) (*lang.ParseResponse, error) {
	reporter := self.Reporter
	if reporter == nil {
		var nonFatal []string
		if req.Config.Recover {
			nonFatal = exc.RecoveryCodes
		}
		reporter = exc.NewReporter(nonFatal)
	}

	files := make([]lang.File, 0, len(req.Files))
	for _, target := range req.Files {
		opened, err := self.FS.Open(ctx, self.targetURI(ctx, target))
		if err != nil {
			return nil, err
		}
		files = append(files, opened...)
	}

	results := make(chan fileResult)
	loaded := &sync.Map{}
	for _, file := range files {
		go func(file lang.File) {
			result := self.parseFile(ctx, reporter, file, req.Config, loaded)
			select {
			case results <- result:
			case <-ctx.Done():
			}
		}(file)
	}

	resp := &lang.ParseResponse{}
	for x := 0; x < len(files); x++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-results:
			if result.err != nil {
				return nil, result.err
			}
			if result.skip {
				continue
			}
			resp.Stats.Files = resp.Stats.Files + 1
			resp.Stats.TotalLines = resp.Stats.TotalLines + result.lines
			if result.unit == nil {
				resp.Stats.FailedFiles = resp.Stats.FailedFiles + 1
				resp.Stats.FailedLines = resp.Stats.FailedLines + result.lines
				continue
			}
			resp.Units = append(resp.Units, result.unit)
		}
	}

	caught := reporter.Reported()
	if len(caught) > 0 {
		return resp, MultiException(caught)
	}
	return resp, nil
}

func (self *Frontend) parseFile(ctx context.Context, reporter exc.Reporter, file lang.File, cfg lang.Config, loaded *sync.Map) fileResult {
	self.Semaphore.Lock()
	defer self.Semaphore.Unlock()
	path := file.Path(ctx)
	if _, ok := loaded.Load(path); ok {
		return fileResult{skip: true}
	}
	loaded.Store(path, true)
	fe := self.FrontEnds[file.Kind(ctx)]
	if fe == nil {
		e := exc.New(exc.Location{URI: path}, exc.CodeUnsupportedFileFormat, fmt.Sprintf("unsupported file format %s", file.Kind(ctx)))
		return fileResult{err: reporter.Report(e)}
	}
	prog, lines, err := fe.ParseFile(ctx, reporter, file, cfg)
	if err != nil {
		return fileResult{lines: lines, err: err}
	}
	if prog == nil {
		return fileResult{lines: lines}
	}
	if cfg.DumpTree {
		fmt.Println(Sprint(prog))
	}
	return fileResult{
		unit:  &lang.Unit{URI: prog.URI, Program: prog},
		lines: lines,
	}
}

func (self *Frontend) targetURI(ctx context.Context, target string) string {
	// Targets may be any valid URI or file path. File paths and file URIs
	// are converted to an absolute form to work with the local
	// implementation of the FileSystem interface. All non-file URIs are
	// left as-is with the expectation that they will be handled by some
	// other implementation.
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "" && u.Scheme != "file") {
		return target
	}
	if u.Scheme == "file" {
		target = u.Path
	}
	if !filepath.IsAbs(target) {
		return filepath.Join("/", target)
	}
	return target
}

type fileResult struct {
	unit  *lang.Unit
	lines int
	skip  bool
	err   error
}

type MultiException []exc.Exception

func (self MultiException) Error() string {
	var b strings.Builder
	for _, err := range self[:len(self)-1] {
		b.WriteString(err.Error())
		b.WriteString("; ")
	}
	b.WriteString(self[len(self)-1].Error())
	return b.String()
}
