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


package shrinker

import (
	"fmt"

	"github.com/cloudwego/shrinker/internal/opts"
	"github.com/cloudwego/shrinker/internal/ssa"
)

// Option is the property setter function for the optimizer configuration.
type Option func(*config)

type config struct {
	opts   opts.Options
	oracle ssa.Oracle
	diag   DiagnosticsHandler
	err    error
}

func newConfig(options []Option) *config {
	ret := &config{
		opts:   opts.GetDefaultOptions(),
		oracle: ssa.NoOracle{},
		diag:   logDiagnostic,
	}

	/* apply every option in order, later ones win */
	for _, fn := range options {
		fn(ret)
	}
	return ret
}

// WithMaxSwitchRewrites sets the maximum number of ifs and switches a single
// switch may be rewritten into.
//
// Set this option to "0" disables splitting switches, only switches with a
// single key are still turned into ifs.
//
// The default value of this option is "10".
func WithMaxSwitchRewrites(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("shrinker: invalid max switch rewrites: %d", n))
	} else {
		return func(c *config) { c.opts.MaxSwitchRewrites = n }
	}
}

// WithConstantShareThreshold sets how many constants may be moved into a
// single block before they are copied to their users instead.
//
// The default value of this option is "50".
func WithConstantShareThreshold(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("shrinker: invalid constant share threshold: %d", n))
	} else {
		return func(c *config) { c.opts.ConstShareThreshold = n }
	}
}

// WithParallelism limits how many methods are optimized at the same time.
//
// The default value "0" means one method per CPU.
func WithParallelism(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("shrinker: invalid parallelism: %d", n))
	} else {
		return func(c *config) { c.opts.Parallelism = n }
	}
}

// WithVerifyPasses checks the consistency of every method after each pass,
// and panics with a dump of the method if it is broken. This is slow and
// only meant for debugging the optimizer.
//
// This value can also be configured with the `SHRINKER_VERIFY_PASSES`
// environment variable.
func WithVerifyPasses(v bool) Option {
	return func(c *config) { c.opts.VerifyPasses = v }
}

// WithOracle sets the whole-program oracle that answers questions about
// call sites. Without an oracle nothing is known about any call.
func WithOracle(oracle ssa.Oracle) Option {
	if oracle == nil {
		panic("shrinker: nil oracle")
	} else {
		return func(c *config) { c.oracle = oracle }
	}
}

// WithDiagnostics sets the handler that receives the diagnostics of every
// method. The default handler logs them.
func WithDiagnostics(fn DiagnosticsHandler) Option {
	if fn == nil {
		panic("shrinker: nil diagnostics handler")
	} else {
		return func(c *config) { c.diag = fn }
	}
}

// WithPolicyFile loads the size model and thresholds from a TOML policy
// file. Options given after this one override values from the file.
func WithPolicyFile(path string) Option {
	return func(c *config) {
		if err := c.opts.LoadFile(path); err != nil && c.err == nil {
			c.err = err
		}
	}
}

// WithoutPass disables the named optimization pass.
func WithoutPass(name string) Option {
	for _, p := range ssa.PassNames() {
		if p == name {
			return func(c *config) { c.opts.DisabledPasses = append(c.opts.DisabledPasses, name) }
		}
	}
	panic(fmt.Sprintf("shrinker: unknown pass: %s", name))
}
