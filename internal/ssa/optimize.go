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

import (
    `github.com/tliron/commonlog`

    `github.com/cloudwego/shrinker/internal/opts`
)

var logger = commonlog.GetLogger("shrinker.ssa")

type Pass interface {
    Apply(*CFG)
}

type _PassDescriptor struct {
    pass Pass
    name string
    desc string
}

// Pipeline runs the enabled passes over one method at a time. It holds no
// per-method state, so one pipeline may serve many goroutines.
type Pipeline struct {
    verify bool
    passes []_PassDescriptor
}

func passTable(o *opts.Options, oracle Oracle) []_PassDescriptor {
    return []_PassDescriptor {
        { name: "neverreturns" , desc: "Never Returning Calls"             , pass: NeverReturns { Oracle: oracle } },
        { name: "returnsarg"   , desc: "Returned Argument Rewrite"         , pass: ReturnsArgument { Oracle: oracle } },
        { name: "condsimplify" , desc: "Condition Simplification"          , pass: new(CondSimplify) },
        { name: "switch"       , desc: "Switch Rewrite"                    , pass: SwitchRewrite { Cost: o.Cost, MaxRewrites: o.MaxSwitchRewrites } },
        { name: "cse"          , desc: "Common Sub-expression Elimination" , pass: new(CSE) },
        { name: "phielim"      , desc: "Phi Elimination"                   , pass: new(PhiElim) },
        { name: "tdce"         , desc: "Trivial Dead Code Elimination"     , pass: new(TDCE) },
        { name: "constplace"   , desc: "Constant Placement"                , pass: ConstPlace { Threshold: o.ConstShareThreshold } },
        { name: "gotos"        , desc: "Goto Collapsing"                   , pass: new(GotoCollapse) },
    }
}

// PassNames returns the names of all the passes in pipeline order.
func PassNames() []string {
    var ret []string
    for _, p := range passTable(new(opts.Options), NoOracle{}) { ret = append(ret, p.name) }
    return ret
}

func NewPipeline(o *opts.Options, oracle Oracle) *Pipeline {
    ret := &Pipeline { verify: o.VerifyPasses }

    /* only keep the enabled passes */
    for _, p := range passTable(o, oracle) {
        if o.PassEnabled(p.name) {
            ret.passes = append(ret.passes, p)
        } else {
            logger.Debugf("pass %s (%s) is disabled", p.name, p.desc)
        }
    }
    return ret
}

// Passes returns the names of the passes in the order they run.
func (self *Pipeline) Passes() []string {
    ret := make([]string, 0, len(self.passes))
    for _, p := range self.passes { ret = append(ret, p.name) }
    return ret
}

// Run optimizes the graph in place and returns the verification types of
// the result.
func (self *Pipeline) Run(cfg *CFG) VerificationTypes {
    for _, p := range self.passes {
        p.pass.Apply(cfg)

        /* check the graph after every pass if requested */
        if self.verify {
            cfg.MustVerify(p.desc)
        }
    }

    /* compute the types of the final graph */
    statAdd(&_Stats.Methods, 1)
    return ComputeVerificationTypes(cfg)
}
