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
    `strings`

    `golang.org/x/exp/slices`

    `github.com/cloudwego/shrinker/internal/types`
)

// CatchHandler is an exceptional edge. A nil Guard catches everything.
type CatchHandler struct {
    Guard  *types.Type
    Target int
}

func (self CatchHandler) String() string {
    if self.Guard == nil {
        return fmt.Sprintf("catch * => bb_%d", self.Target)
    } else {
        return fmt.Sprintf("catch %s => bb_%d", self.Guard, self.Target)
    }
}

type BasicBlock struct {
    Id    int
    Phi   []*Phi
    Ins   []Instruction
    Term  IrTerminator
    Pred  []int
    Catch []CatchHandler
}

// Succ returns the successors of the block: the normal successors owned by
// the terminator followed by the catch handlers, without duplicates.
func (self *BasicBlock) Succ() []int {
    ret := self.Term.Targets()
    for _, h := range self.Catch { ret = appendUnique(ret, h.Target) }
    return ret
}

func (self *BasicBlock) HasCatchHandlers() bool {
    return len(self.Catch) != 0
}

// HasCatchTarget reports whether id is one of the handler blocks.
func (self *BasicBlock) HasCatchTarget(id int) bool {
    for _, h := range self.Catch {
        if h.Target == id {
            return true
        }
    }
    return false
}

// SameCatchHandlers reports whether both blocks have identical guards
// leading to identical handler blocks.
func (self *BasicBlock) SameCatchHandlers(other *BasicBlock) bool {
    return slices.Equal(self.Catch, other.Catch)
}

func (self *BasicBlock) PredIndex(id int) int {
    return slices.Index(self.Pred, id)
}

func (self *BasicBlock) HasPred(id int) bool {
    return slices.Contains(self.Pred, id)
}

// IndexOf returns the position of ins in the block, len(Ins) for the
// terminator, or -1 if it does not belong to this block.
func (self *BasicBlock) IndexOf(ins Instruction) int {
    if term, ok := ins.(IrTerminator); ok && term == self.Term {
        return len(self.Ins)
    } else {
        return slices.Index(self.Ins, ins)
    }
}

// IsTrivialGoto reports whether the block does nothing but jump: no phis,
// no catch handlers, only debug positions before an unconditional goto.
func (self *BasicBlock) IsTrivialGoto() bool {
    if len(self.Phi) != 0 || len(self.Catch) != 0 {
        return false
    }

    /* must end with a goto */
    if _, ok := self.Term.(*IrGoto); !ok {
        return false
    }

    /* only housekeeping instructions */
    for _, ins := range self.Ins {
        if _, ok := ins.(*IrDebugPosition); !ok {
            return false
        }
    }
    return true
}

// FirstThrowing returns the index of the first instruction that may throw,
// or -1 if there is none.
func (self *BasicBlock) FirstThrowing() int {
    for i, ins := range self.Ins {
        if CanThrow(ins) {
            return i
        }
    }
    return -1
}

func (self *BasicBlock) String() string {
    buf := make([]string, 0, len(self.Phi) + len(self.Ins) + len(self.Catch) + 2)
    buf = append(buf, fmt.Sprintf("bb_%d: ; pred = %v", self.Id, self.Pred))

    /* dump phi nodes */
    for _, p := range self.Phi {
        buf = append(buf, "    " + p.Describe(self.Pred))
    }

    /* dump instructions */
    for _, v := range self.Ins {
        buf = append(buf, "    " + v.String())
    }

    /* dump the terminator */
    if self.Term != nil {
        for _, ss := range strings.Split(self.Term.String(), "\n") {
            buf = append(buf, "    " + ss)
        }
    }

    /* dump the catch handlers */
    for _, h := range self.Catch {
        buf = append(buf, "    " + h.String())
    }
    return strings.Join(buf, "\n")
}
