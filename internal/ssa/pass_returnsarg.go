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

// ReturnsArgument rewires the users of a call result when the call is known
// to always return one of its arguments or a constant. The call itself is
// kept, only its result is dropped.
type ReturnsArgument struct {
    Oracle Oracle
}

func (self ReturnsArgument) Apply(cfg *CFG) {
    for _, bb := range cfg.Blocks() {
        for _, ins := range append([]Instruction(nil), bb.Ins...) {
            if p, ok := ins.(*IrInvoke); ok && p.Out != nil && p.Out.Local == "" && self.Oracle.SingleTarget(p) {
                self.rewrite(cfg, bb, p)
            }
        }
    }
}

// isReturnedArgument checks that the declared type of the argument is the
// declared return type, so no cast is needed.
func isReturnedArgument(p *IrInvoke, idx int) bool {
    at := p.Method.ArgumentTypes()
    return idx >= 0 && idx < len(at) && idx < len(p.In) && at[idx] == p.Method.Return && p.In[idx].Type.Compatible(p.Out.Type)
}

func (self ReturnsArgument) rewrite(cfg *CFG, bb *BasicBlock, p *IrInvoke) {
    out := p.Out

    /* the call returns one of its arguments */
    if idx, ok := self.Oracle.ReturnedArgument(p); ok {
        if isReturnedArgument(p, idx) {
            out.ReplaceUsers(p.In[idx])
            p.Out = nil
            statAdd(&_Stats.ReturnsArgument, 1)
        }
        return
    }

    /* the call returns a known constant */
    if v, ok := self.Oracle.ReturnedConstant(p); ok && (out.Type.IsSingle() || out.Type.IsWide()) {
        c := &IrConstNumber { V: v }
        c.Pos = p.Pos
        c.Out = cfg.NewValue(out.Type)
        c.Out.Range = &Interval { Min: v, Max: v }
        c.Out.Boolean = out.Boolean

        /* place the constant right after the call */
        cfg.Insert(bb, bb.IndexOf(p) + 1, c)
        out.ReplaceUsers(c.Out)
        p.Out = nil
        statAdd(&_Stats.ReturnsArgument, 1)
    }
}
