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

// Phi is a value defined at a merge point. It has one operand per
// predecessor of its block, in predecessor order.
type Phi struct {
    Block    int
    Out      *Value
    Operands []*Value
}

func (self *Phi) String() string {
    return fmt.Sprintf(
        "%s = φ(%s)",
        self.Out,
        valuelist(self.Operands),
    )
}

// Describe formats the phi with the predecessor of each operand.
func (self *Phi) Describe(pred []int) string {
    ret := make([]string, 0, len(self.Operands))
    for i, v := range self.Operands {
        ret = append(ret, fmt.Sprintf("bb_%d: %s", pred[i], v))
    }
    return fmt.Sprintf("%s = φ(%s)", self.Out, strings.Join(ret, ", "))
}

// IsTrivial reports whether every operand is either the same value or the
// phi itself, and returns that value.
func (self *Phi) IsTrivial() (*Value, bool) {
    var same *Value
    for _, v := range self.Operands {
        if v == self.Out || v == same {
            continue
        } else if same != nil {
            return nil, false
        } else {
            same = v
        }
    }
    return same, same != nil
}

func (self *Phi) setOperand(i int, v *Value) {
    old := self.Operands[i]
    self.Operands[i] = v

    /* the old value may still be used by another operand */
    if !self.uses(old) {
        old.removePhiUser(self)
    }

    /* link the new one */
    v.addPhiUser(self)
}

func (self *Phi) uses(v *Value) bool {
    for _, p := range self.Operands {
        if p == v {
            return true
        }
    }
    return false
}

func (self *Phi) removeOperand(i int) {
    old := self.Operands[i]
    self.Operands = append(self.Operands[:i], self.Operands[i + 1:]...)

    /* unlink if no longer used */
    if !self.uses(old) {
        old.removePhiUser(self)
    }
}

func (self *Phi) appendOperand(v *Value) {
    self.Operands = append(self.Operands, v)
    v.addPhiUser(self)
}

func (self *Phi) unlink() {
    for _, v := range self.Operands {
        v.removePhiUser(self)
    }
}
