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

    `golang.org/x/exp/slices`

    `github.com/cloudwego/shrinker/internal/types`
)

// ValueType is the coarse register type of a value as seen by the target
// encoder. Imprecise types appear when the decoder cannot tell, e.g. a
// constant that is only ever moved around.
type ValueType uint8

const (
    TObject ValueType = iota
    TInt
    TFloat
    TIntOrFloat
    TIntOrFloatOrNull
    TLong
    TDouble
    TLongOrDouble
)

func (self ValueType) IsObject() bool {
    return self == TObject
}

func (self ValueType) IsSingle() bool {
    return self == TInt || self == TFloat || self == TIntOrFloat
}

func (self ValueType) IsWide() bool {
    return self == TLong || self == TDouble || self == TLongOrDouble
}

func (self ValueType) IsObjectOrNull() bool {
    return self == TObject || self == TIntOrFloatOrNull
}

// IsPrecise reports whether the type is known, as opposed to the types
// of untyped constants.
func (self ValueType) IsPrecise() bool {
    return self != TIntOrFloat && self != TLongOrDouble && self != TIntOrFloatOrNull
}

// Compatible reports whether values of the two types occupy the same
// number of registers and may therefore substitute for each other.
func (self ValueType) Compatible(other ValueType) bool {
    return self.IsWide() == other.IsWide()
}

func (self ValueType) String() string {
    switch self {
        case TObject           : return "object"
        case TInt              : return "int"
        case TFloat            : return "float"
        case TIntOrFloat       : return "int|float"
        case TIntOrFloatOrNull : return "int|float|null"
        case TLong             : return "long"
        case TDouble           : return "double"
        case TLongOrDouble     : return "long|double"
        default                : panic("unreachable")
    }
}

// ValueTypeOf maps a declared type to its register type.
func ValueTypeOf(t *types.Type) ValueType {
    switch t.Kind() {
        case types.Class, types.Array, types.Null: {
            return TObject
        }

        /* primitive types */
        case types.Primitive: {
            switch t.Desc[0] {
                case 'F' : return TFloat
                case 'J' : return TLong
                case 'D' : return TDouble
                default  : return TInt
            }
        }

        /* void has no value */
        default: {
            panic("ssa: no value type for " + t.Desc)
        }
    }
}

// Interval is a closed range of known integer values.
type Interval struct {
    Min int64
    Max int64
}

func (self Interval) Contains(v int64) bool {
    return v >= self.Min && v <= self.Max
}

func (self Interval) String() string {
    return fmt.Sprintf("[%d, %d]", self.Min, self.Max)
}

// Value is an SSA value. It is defined exactly once, either by an
// instruction or by a phi, and keeps sets of its users.
type Value struct {
    Id      int
    Type    ValueType
    Range   *Interval
    NonNull bool
    Boolean bool
    Local   string
    ins     Instruction
    phi     *Phi
    users   []Instruction
    phiuse  []*Phi
}

func (self *Value) String() string {
    return fmt.Sprintf("%%v%d", self.Id)
}

// Def returns the defining instruction, or nil if the value is a phi.
func (self *Value) Def() Instruction {
    return self.ins
}

// Phi returns the defining phi, or nil if the value is defined by an
// instruction.
func (self *Value) Phi() *Phi {
    return self.phi
}

func (self *Value) IsPhi() bool {
    return self.phi != nil
}

// DefBlock returns the id of the block that defines this value.
func (self *Value) DefBlock() int {
    if self.phi != nil {
        return self.phi.Block
    } else if self.ins != nil {
        return self.ins.Base().Block
    } else {
        panic("ssa: value has no definition: " + self.String())
    }
}

func (self *Value) Users() []Instruction {
    return self.users
}

func (self *Value) PhiUsers() []*Phi {
    return self.phiuse
}

func (self *Value) NumUsers() int {
    return len(self.users) + len(self.phiuse)
}

func (self *Value) HasUsers() bool {
    return len(self.users) != 0 || len(self.phiuse) != 0
}

func (self *Value) IsArgument() bool {
    _, ok := self.ins.(*IrArgument)
    return ok
}

func (self *Value) IsConstant() bool {
    switch self.ins.(type) {
        case *IrConstNumber : return true
        case *IrConstString : return true
        case *IrConstClass  : return true
        default             : return false
    }
}

func (self *Value) IsConstNumber() bool {
    _, ok := self.ins.(*IrConstNumber)
    return ok
}

// ConstValue returns the raw value of a numeric constant.
func (self *Value) ConstValue() int64 {
    if c, ok := self.ins.(*IrConstNumber); !ok {
        panic("ssa: not a numeric constant: " + self.String())
    } else {
        return c.V
    }
}

// IsZero reports whether the value is the numeric constant zero (or null).
func (self *Value) IsZero() bool {
    c, ok := self.ins.(*IrConstNumber)
    return ok && c.V == 0
}

func (self *Value) KnownToBeBoolean() bool {
    if self.Boolean {
        return true
    } else if c, ok := self.ins.(*IrConstNumber); ok && self.Type == TInt {
        return c.V == 0 || c.V == 1
    } else {
        return false
    }
}

// IsNeverNull reports whether a reference value can never be null, either
// because it was proven so or because its definition always produces an
// object.
func (self *Value) IsNeverNull() bool {
    if self.NonNull {
        return true
    }

    /* check the definition */
    switch self.ins.(type) {
        case *IrNewInstance : return true
        case *IrNewArray    : return true
        case *IrConstString : return true
        case *IrConstClass  : return true
        case *IrNonNull     : return true
        default             : return false
    }
}

// ReplaceUsers rewires every user of this value to use nv instead.
func (self *Value) ReplaceUsers(nv *Value) {
    if nv == self {
        return
    }

    /* rewrite the instruction users */
    for _, ins := range self.users {
        in := ins.Base().In
        for i, v := range in {
            if v == self {
                in[i] = nv
            }
        }
        nv.addUser(ins)
    }

    /* rewrite the phi users */
    for _, phi := range self.phiuse {
        for i, v := range phi.Operands {
            if v == self {
                phi.Operands[i] = nv
            }
        }
        nv.addPhiUser(phi)
    }

    /* clear the use lists */
    self.users = nil
    self.phiuse = nil
}

// ReplaceUser rewires a single user instruction.
func (self *Value) ReplaceUser(ins Instruction, nv *Value) {
    in := ins.Base().In
    for i, v := range in {
        if v == self {
            in[i] = nv
        }
    }
    self.removeUser(ins)
    nv.addUser(ins)
}

func (self *Value) addUser(ins Instruction) {
    if !slices.Contains(self.users, ins) {
        self.users = append(self.users, ins)
    }
}

func (self *Value) removeUser(ins Instruction) {
    if i := slices.Index(self.users, ins); i >= 0 {
        self.users = slices.Delete(self.users, i, i + 1)
    }
}

func (self *Value) addPhiUser(phi *Phi) {
    if !slices.Contains(self.phiuse, phi) {
        self.phiuse = append(self.phiuse, phi)
    }
}

func (self *Value) removePhiUser(phi *Phi) {
    if i := slices.Index(self.phiuse, phi); i >= 0 {
        self.phiuse = slices.Delete(self.phiuse, i, i + 1)
    }
}
