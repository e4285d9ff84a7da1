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
)

type IfType uint8

const (
    IfEQ IfType = iota
    IfNE
    IfLT
    IfGE
    IfGT
    IfLE
)

func (self IfType) String() string {
    switch self {
        case IfEQ : return "=="
        case IfNE : return "!="
        case IfLT : return "<"
        case IfGE : return ">="
        case IfGT : return ">"
        case IfLE : return "<="
        default   : panic("unreachable")
    }
}

// Inverted returns the condition that holds exactly when this one does not.
func (self IfType) Inverted() IfType {
    switch self {
        case IfEQ : return IfNE
        case IfNE : return IfEQ
        case IfLT : return IfGE
        case IfGE : return IfLT
        case IfGT : return IfLE
        case IfLE : return IfGT
        default   : panic("unreachable")
    }
}

// Swapped returns the condition to use when the operands are exchanged.
func (self IfType) Swapped() IfType {
    switch self {
        case IfEQ : return IfEQ
        case IfNE : return IfNE
        case IfLT : return IfGT
        case IfGE : return IfLE
        case IfGT : return IfLT
        case IfLE : return IfGE
        default   : panic("unreachable")
    }
}

// Eval compares x against y.
func (self IfType) Eval(x int64, y int64) bool {
    switch self {
        case IfEQ : return x == y
        case IfNE : return x != y
        case IfLT : return x < y
        case IfGE : return x >= y
        case IfGT : return x > y
        case IfLE : return x <= y
        default   : panic("unreachable")
    }
}

// IrTerminator is the last instruction of every block. It owns the normal
// successor edges of the block.
type IrTerminator interface {
    Instruction
    Targets() []int
    ReplaceTarget(from int, to int)
    irterminator()
}

func (*IrGoto)   irterminator() {}
func (*IrIf)     irterminator() {}
func (*IrSwitch) irterminator() {}
func (*IrReturn) irterminator() {}
func (*IrThrow)  irterminator() {}

func appendUnique(buf []int, id int) []int {
    for _, v := range buf {
        if v == id {
            return buf
        }
    }
    return append(buf, id)
}

type IrGoto struct {
    IrBase
    Target int
}

func (self *IrGoto) String() string {
    return fmt.Sprintf("goto bb_%d", self.Target)
}

func (self *IrGoto) Targets() []int {
    return []int { self.Target }
}

func (self *IrGoto) ReplaceTarget(from int, to int) {
    if self.Target == from {
        self.Target = to
    }
}

// IrIf branches to True when In[0] compares to In[1] (or to zero when there
// is only one operand) according to Cond, and falls through to False
// otherwise.
type IrIf struct {
    IrBase
    Cond  IfType
    True  int
    False int
}

func (self *IrIf) String() string {
    if self.IsZeroTest() {
        return fmt.Sprintf("if %s %s 0 goto bb_%d else bb_%d", self.In[0], self.Cond, self.True, self.False)
    } else {
        return fmt.Sprintf("if %s %s %s goto bb_%d else bb_%d", self.In[0], self.Cond, self.In[1], self.True, self.False)
    }
}

func (self *IrIf) IsZeroTest() bool {
    return len(self.In) == 1
}

func (self *IrIf) Targets() []int {
    return appendUnique([]int { self.True }, self.False)
}

func (self *IrIf) ReplaceTarget(from int, to int) {
    if self.True == from {
        self.True = to
    }
    if self.False == from {
        self.False = to
    }
}

// TargetFor returns the block taken when the condition evaluates to v.
func (self *IrIf) TargetFor(v bool) int {
    if v {
        return self.True
    } else {
        return self.False
    }
}

// IrSwitch jumps to Targets[i] when In[0] equals Keys[i], and falls through
// to Default otherwise. Keys are sorted in ascending order.
type IrSwitch struct {
    IrBase
    Keys    []int32
    Cases   []int
    Default int
}

func (self *IrSwitch) String() string {
    ret := make([]string, 0, len(self.Keys) + 1)

    /* add each case */
    for i, k := range self.Keys {
        ret = append(ret, fmt.Sprintf("  %d => bb_%d,", k, self.Cases[i]))
    }

    /* default branch */
    ret = append(ret, fmt.Sprintf(
        "  _ => bb_%d,",
        self.Default,
    ))

    /* join them together */
    return fmt.Sprintf(
        "switch %s {\n%s\n}",
        self.In[0],
        strings.Join(ret, "\n"),
    )
}

func (self *IrSwitch) Targets() []int {
    ret := make([]int, 0, len(self.Cases) + 1)
    for _, v := range self.Cases { ret = appendUnique(ret, v) }
    return appendUnique(ret, self.Default)
}

func (self *IrSwitch) ReplaceTarget(from int, to int) {
    for i, v := range self.Cases {
        if v == from {
            self.Cases[i] = to
        }
    }
    if self.Default == from {
        self.Default = to
    }
}

// TargetFor returns the block taken for the given key.
func (self *IrSwitch) TargetFor(key int32) int {
    for i, k := range self.Keys {
        if k == key {
            return self.Cases[i]
        }
    }
    return self.Default
}

type IrReturn struct {
    IrBase
}

func (self *IrReturn) String() string {
    if len(self.In) == 0 {
        return "ret"
    } else {
        return fmt.Sprintf("ret %s", self.In[0])
    }
}

func (self *IrReturn) Targets() []int {
    return nil
}

func (self *IrReturn) ReplaceTarget(_ int, _ int) {}

type IrThrow struct {
    IrBase
}

func (self *IrThrow) String() string {
    return fmt.Sprintf("throw %s", self.In[0])
}

func (self *IrThrow) Targets() []int {
    return nil
}

func (self *IrThrow) ReplaceTarget(_ int, _ int) {}

// fallthroughOf returns the fall-through successor of a terminator, or -1
// if it has none. Fall-through edges depend on block layout and are never
// redirected.
func fallthroughOf(term IrTerminator) int {
    switch p := term.(type) {
        case *IrIf     : return p.False
        case *IrSwitch : return p.Default
        default        : return -1
    }
}
