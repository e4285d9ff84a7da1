/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


// Package shrinker runs the SSA optimizer of the bytecode shrinker over
// decoded method bodies.
package shrinker

import (
	"context"
	"errors"
	"runtime"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/sync/errgroup"

	"github.com/cloudwego/shrinker/internal/ssa"
)

var logger = commonlog.GetLogger("shrinker")

// Method is one decoded method body.
type Method struct {
	Origin string
	CFG    *ssa.CFG
}

// Result is the outcome of optimizing one method. The graph is optimized
// in place; Types holds the verification type of every reference value.
// Err is set when the method could not be compiled.
type Result struct {
	Origin string
	CFG    *ssa.CFG
	Types  ssa.VerificationTypes
	Err    error
}

// Diagnostic is a problem found in the input of a method.
type Diagnostic struct {
	Message string
	Origin  string
	Pos     ssa.Pos
}

// DiagnosticsHandler receives diagnostics. It may be called from many
// goroutines at the same time.
type DiagnosticsHandler func(Diagnostic)

func logDiagnostic(d Diagnostic) {
	if d.Pos.IsNone() {
		logger.Errorf("%s: %s", d.Origin, d.Message)
	} else {
		logger.Errorf("%s at %s: %s", d.Origin, d.Pos, d.Message)
	}
}

// SetLogVerbosity configures logging for the optimizer. Zero keeps only
// errors, positive values enable more detail down to per-pass decisions.
func SetLogVerbosity(verbosity int) {
	commonlog.Configure(verbosity, nil)
}

// Optimize runs the optimization pipeline over every method, in parallel.
// A method whose input is malformed is skipped and reported as a
// CompilationError, both to the diagnostics handler and in the joined
// error. Cancelling ctx stops methods that have not started yet.
func Optimize(ctx context.Context, methods []Method, options ...Option) ([]Result, error) {
	cc := newConfig(options)
	if cc.err != nil {
		return nil, cc.err
	}

	/* check the options before doing anything */
	if err := cc.opts.Validate(); err != nil {
		return nil, err
	}

	/* the pipeline is shared by all workers */
	pl := ssa.NewPipeline(&cc.opts, cc.oracle)
	ret := make([]Result, len(methods))
	g, gctx := errgroup.WithContext(ctx)

	/* bound the number of concurrent methods */
	if n := cc.opts.Parallelism; n > 0 {
		g.SetLimit(n)
	} else {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}

	/* optimize every method */
	for i := range methods {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ret[i] = optimizeMethod(pl, cc, &methods[i])
			return nil
		})
	}

	/* cancellation is the only error of the group */
	if err := g.Wait(); err != nil {
		return ret, err
	}

	/* collect the per-method errors */
	errs := make([]error, 0, len(ret))
	for _, r := range ret {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}

	/* pipeline summary */
	logger.Infof("optimized %d methods, %d failed", len(methods), len(errs))
	return ret, errors.Join(errs...)
}

func optimizeMethod(pl *ssa.Pipeline, cc *config, m *Method) Result {
	ret := Result{
		Origin: m.Origin,
		CFG:    m.CFG,
	}

	/* reject malformed input */
	if err := m.CFG.Verify(); err != nil {
		ce := CompilationError{
			Message: err.Error(),
			Origin:  m.Origin,
			Pos:     entryPos(m.CFG),
		}
		cc.diag(Diagnostic{Message: ce.Message, Origin: ce.Origin, Pos: ce.Pos})
		ret.Err = ce
		return ret
	}

	/* run all the passes */
	ret.Types = pl.Run(m.CFG)
	return ret
}

func entryPos(cfg *ssa.CFG) ssa.Pos {
	if len(cfg.Order) == 0 {
		return ssa.Pos{}
	}

	/* the first known position of the entry block */
	for _, ins := range cfg.Entry().Ins {
		if p := ins.Base().Pos; !p.IsNone() {
			return p
		}
	}
	return ssa.Pos{}
}
