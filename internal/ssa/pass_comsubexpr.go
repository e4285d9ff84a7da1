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
    `fmt`
)

type _VID interface {
    Instruction
    vid() string
}

// operandKey names an operand for value numbering. Constants are not
// canonicalized, so they are compared by value.
func operandKey(v *Value) string {
    switch p := v.Def().(type) {
        case *IrConstNumber : return fmt.Sprintf("$%s:%d", v.Type, p.V)
        case *IrConstString : return fmt.Sprintf("$%q", p.S)
        case *IrConstClass  : return fmt.Sprintf("$%s", p.Class)
        default             : return v.String()
    }
}

func (self *IrBinop) vid() string {
    x := operandKey(self.In[0])
    y := operandKey(self.In[1])

    /* commutative operations, sort the operands */
    if self.Op.IsCommutative() && x > y {
        x, y = y, x
    }

    /* build the value ID */
    return fmt.Sprintf("(%s:%s %s %s)", self.Op, self.Out.Type, x, y)
}

func (self *IrUnop) vid() string {
    return fmt.Sprintf("(%s:%s %s)", self.Op, self.Out.Type, operandKey(self.In[0]))
}

func (self *IrInstanceOf) vid() string {
    return fmt.Sprintf("(instanceof %s %s)", self.Class, operandKey(self.In[0]))
}

func (self *IrCheckCast) vid() string {
    return fmt.Sprintf("(checkcast %s %s)", self.Class, operandKey(self.In[0]))
}

func hasLocals(ins Instruction) bool {
    if out := ins.Base().Out; out != nil && out.Local != "" {
        return true
    }

    /* check the operands */
    for _, v := range ins.Base().In {
        if v.Local != "" {
            return true
        }
    }
    return false
}

// CSE performs the Common Sub-expression Elimination optimization.
//
// Blocks are visited in dominator tree preorder, so every candidate that is
// already recorded is defined in a block that comes first in that order.
// A later equivalent instruction is replaced by a candidate only if the
// candidate's block dominates it and, for instructions that may throw,
// both blocks have exactly the same catch handlers.
type CSE struct{}

func (CSE) Apply(cfg *CFG) {
    dt := cfg.Dominators()
    vals := make(map[string][]Instruction)

    /* replace all the values with same VID with the first dominating occurance */
    for _, id := range dt.PreOrder() {
        bb := cfg.Block(id)
        for _, ins := range append([]Instruction(nil), bb.Ins...) {
            var ok bool
            var d _VID
            var r Instruction

            /* check if the instruction have VIDs */
            if d, ok = ins.(_VID); !ok || hasLocals(ins) {
                continue
            }

            /* find a candidate that can replace it */
            vid := d.vid()
            for _, c := range vals[vid] {
                if canReplaceWith(cfg, dt, ins, c) {
                    r = c
                    break
                }
            }

            /* add to definations if not found */
            if r == nil {
                vals[vid] = append(vals[vid], ins)
                continue
            }

            /* rewire the users and drop the instruction */
            ins.Base().Out.ReplaceUsers(r.Base().Out)
            cfg.Remove(ins)
            statAdd(&_Stats.CommonSubexprs, 1)
        }
    }
}

func canReplaceWith(cfg *CFG, dt *DominatorTree, ins Instruction, c Instruction) bool {
    p := ins.Base().Block
    q := c.Base().Block

    /* the candidate must dominate the instruction */
    if !dt.Dominates(q, p) {
        return false
    }

    /* exceptions must be caught by the same handlers */
    if !CanThrow(ins) {
        return true
    } else {
        return cfg.Block(p).SameCatchHandlers(cfg.Block(q))
    }
}
