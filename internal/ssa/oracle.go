/*
 * Copyright 2022 ByteDance Inc.
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

package ssa

// Oracle answers whole-program questions about call sites. It is backed
// by the reachability analysis of the shrinker and must be safe for
// concurrent use.
type Oracle interface {
    // SingleTarget reports whether the call has exactly one statically
    // resolvable target.
    SingleTarget(p *IrInvoke) bool

    // NeverReturnsNormally reports whether the call always throws or never
    // terminates.
    NeverReturnsNormally(p *IrInvoke) bool

    // ReturnedArgument returns the index of the argument the call always
    // returns, counting the receiver of instance calls.
    ReturnedArgument(p *IrInvoke) (int, bool)

    // ReturnedConstant returns the constant the call always returns.
    ReturnedConstant(p *IrInvoke) (int64, bool)
}

// NoOracle knows nothing about any call.
type NoOracle struct{}

func (NoOracle) SingleTarget(_ *IrInvoke) bool             { return false }
func (NoOracle) NeverReturnsNormally(_ *IrInvoke) bool     { return false }
func (NoOracle) ReturnedArgument(_ *IrInvoke) (int, bool)   { return 0, false }
func (NoOracle) ReturnedConstant(_ *IrInvoke) (int64, bool) { return 0, false }
