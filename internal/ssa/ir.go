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

    `github.com/cloudwego/shrinker/internal/types`
)

type BinaryOp uint8

const (
    OpAdd BinaryOp = iota
    OpSub
    OpMul
    OpDiv
    OpRem
    OpAnd
    OpOr
    OpXor
    OpShl
    OpShr
    OpUshr
    OpCmp
)

func (self BinaryOp) String() string {
    switch self {
        case OpAdd  : return "+"
        case OpSub  : return "-"
        case OpMul  : return "*"
        case OpDiv  : return "/"
        case OpRem  : return "%"
        case OpAnd  : return "&"
        case OpOr   : return "|"
        case OpXor  : return "^"
        case OpShl  : return "<<"
        case OpShr  : return ">>"
        case OpUshr : return ">>>"
        case OpCmp  : return "<=>"
        default     : panic("unreachable")
    }
}

func (self BinaryOp) IsCommutative() bool {
    switch self {
        case OpAdd, OpMul, OpAnd, OpOr, OpXor : return true
        default                              : return false
    }
}

type UnaryOp uint8

const (
    OpNeg UnaryOp = iota
    OpNot
    OpI2L
    OpL2I
    OpI2F
    OpF2I
    OpI2B
    OpI2C
    OpI2S
)

func (self UnaryOp) String() string {
    switch self {
        case OpNeg : return "neg"
        case OpNot : return "not"
        case OpI2L : return "i2l"
        case OpL2I : return "l2i"
        case OpI2F : return "i2f"
        case OpF2I : return "f2i"
        case OpI2B : return "i2b"
        case OpI2C : return "i2c"
        case OpI2S : return "i2s"
        default    : panic("unreachable")
    }
}

type InvokeKind uint8

const (
    InvokeStatic InvokeKind = iota
    InvokeVirtual
    InvokeInterface
    InvokeDirect
    InvokeSuper
)

func (self InvokeKind) String() string {
    switch self {
        case InvokeStatic    : return "static"
        case InvokeVirtual   : return "virtual"
        case InvokeInterface : return "interface"
        case InvokeDirect    : return "direct"
        case InvokeSuper     : return "super"
        default              : panic("unreachable")
    }
}

// Instruction is one of the Ir* types defined in this package.
type Instruction interface {
    fmt.Stringer
    Base() *IrBase
    irnode()
}

// IrBase carries what every instruction has: its owning block, source
// position, operands and optional result.
type IrBase struct {
    Block int
    Pos   Pos
    In    []*Value
    Out   *Value
}

func (self *IrBase) Base() *IrBase {
    return self
}

func (*IrArgument)      irnode() {}
func (*IrConstNumber)   irnode() {}
func (*IrConstString)   irnode() {}
func (*IrConstClass)    irnode() {}
func (*IrBinop)         irnode() {}
func (*IrUnop)          irnode() {}
func (*IrInstanceOf)    irnode() {}
func (*IrCheckCast)     irnode() {}
func (*IrNonNull)       irnode() {}
func (*IrMove)          irnode() {}
func (*IrInvoke)        irnode() {}
func (*IrNewInstance)   irnode() {}
func (*IrNewArray)      irnode() {}
func (*IrArrayGet)      irnode() {}
func (*IrArrayPut)      irnode() {}
func (*IrArrayLength)   irnode() {}
func (*IrFieldGet)      irnode() {}
func (*IrFieldPut)      irnode() {}
func (*IrMonitor)       irnode() {}
func (*IrDebugPosition) irnode() {}
func (*IrGoto)          irnode() {}
func (*IrIf)            irnode() {}
func (*IrSwitch)        irnode() {}
func (*IrReturn)        irnode() {}
func (*IrThrow)         irnode() {}

func valuelist(vv []*Value) string {
    ret := make([]string, 0, len(vv))
    for _, v := range vv { ret = append(ret, v.String()) }
    return strings.Join(ret, ", ")
}

type IrArgument struct {
    IrBase
    Index int
}

func (self *IrArgument) String() string {
    return fmt.Sprintf("%s = arg %d", self.Out, self.Index)
}

// IrConstNumber produces a raw numeric constant. The null reference is a
// zero constant with an object (or imprecise) type.
type IrConstNumber struct {
    IrBase
    V int64
}

func (self *IrConstNumber) String() string {
    if self.Out.Type == TObject {
        return fmt.Sprintf("%s = const null", self.Out)
    } else {
        return fmt.Sprintf("%s = const %s %d", self.Out, self.Out.Type, self.V)
    }
}

// IsNull reports whether the constant is the null reference.
func (self *IrConstNumber) IsNull() bool {
    return self.V == 0 && self.Out.Type.IsObjectOrNull()
}

type IrConstString struct {
    IrBase
    S string
}

func (self *IrConstString) String() string {
    return fmt.Sprintf("%s = const-string %q", self.Out, self.S)
}

type IrConstClass struct {
    IrBase
    Class *types.Type
}

func (self *IrConstClass) String() string {
    return fmt.Sprintf("%s = const-class %s", self.Out, self.Class)
}

type IrBinop struct {
    IrBase
    Op BinaryOp
}

func (self *IrBinop) String() string {
    return fmt.Sprintf("%s = %s %s %s", self.Out, self.In[0], self.Op, self.In[1])
}

type IrUnop struct {
    IrBase
    Op UnaryOp
}

func (self *IrUnop) String() string {
    return fmt.Sprintf("%s = %s %s", self.Out, self.Op, self.In[0])
}

type IrInstanceOf struct {
    IrBase
    Class *types.Type
}

func (self *IrInstanceOf) String() string {
    return fmt.Sprintf("%s = %s instanceof %s", self.Out, self.In[0], self.Class)
}

type IrCheckCast struct {
    IrBase
    Class *types.Type
}

func (self *IrCheckCast) String() string {
    return fmt.Sprintf("%s = checkcast %s %s", self.Out, self.Class, self.In[0])
}

// IrNonNull asserts that its operand is not null. Its result is a copy of
// the operand that is known to be non-null.
type IrNonNull struct {
    IrBase
}

func (self *IrNonNull) String() string {
    return fmt.Sprintf("%s = nonnull %s", self.Out, self.In[0])
}

type IrMove struct {
    IrBase
}

func (self *IrMove) String() string {
    return fmt.Sprintf("%s = %s", self.Out, self.In[0])
}

type IrInvoke struct {
    IrBase
    Kind   InvokeKind
    Method *types.Method
}

func (self *IrInvoke) String() string {
    if self.Out == nil {
        return fmt.Sprintf("invoke-%s %s(%s)", self.Kind, self.Method, valuelist(self.In))
    } else {
        return fmt.Sprintf("%s = invoke-%s %s(%s)", self.Out, self.Kind, self.Method, valuelist(self.In))
    }
}

type IrNewInstance struct {
    IrBase
    Class *types.Type
}

func (self *IrNewInstance) String() string {
    return fmt.Sprintf("%s = new %s", self.Out, self.Class)
}

// IrNewArray allocates an array of type Class with In[0] elements.
type IrNewArray struct {
    IrBase
    Class *types.Type
}

func (self *IrNewArray) String() string {
    return fmt.Sprintf("%s = new-array %s[%s]", self.Out, self.Class, self.In[0])
}

type IrArrayGet struct {
    IrBase
}

func (self *IrArrayGet) String() string {
    return fmt.Sprintf("%s = %s[%s]", self.Out, self.In[0], self.In[1])
}

type IrArrayPut struct {
    IrBase
}

func (self *IrArrayPut) String() string {
    return fmt.Sprintf("%s[%s] = %s", self.In[0], self.In[1], self.In[2])
}

type IrArrayLength struct {
    IrBase
}

func (self *IrArrayLength) String() string {
    return fmt.Sprintf("%s = len %s", self.Out, self.In[0])
}

// IrFieldGet reads an instance field from In[0], or a static field when
// it has no operands.
type IrFieldGet struct {
    IrBase
    Field *types.Field
}

func (self *IrFieldGet) String() string {
    if len(self.In) == 0 {
        return fmt.Sprintf("%s = sget %s", self.Out, self.Field)
    } else {
        return fmt.Sprintf("%s = iget %s.%s", self.Out, self.In[0], self.Field)
    }
}

// IrFieldPut writes the last operand into an instance field of In[0], or
// into a static field when it is the only operand.
type IrFieldPut struct {
    IrBase
    Field *types.Field
}

func (self *IrFieldPut) String() string {
    if len(self.In) == 1 {
        return fmt.Sprintf("sput %s = %s", self.Field, self.In[0])
    } else {
        return fmt.Sprintf("iput %s.%s = %s", self.In[0], self.Field, self.In[1])
    }
}

type IrMonitor struct {
    IrBase
    Enter bool
}

func (self *IrMonitor) String() string {
    if self.Enter {
        return fmt.Sprintf("monitor-enter %s", self.In[0])
    } else {
        return fmt.Sprintf("monitor-exit %s", self.In[0])
    }
}

// IrDebugPosition is a no-op that only carries a source position.
type IrDebugPosition struct {
    IrBase
}

func (self *IrDebugPosition) String() string {
    return fmt.Sprintf("debug-position %s", self.Pos)
}

// CanThrow reports whether executing the instruction may raise an
// exception.
func CanThrow(ins Instruction) bool {
    switch p := ins.(type) {
        case *IrArgument      : return false
        case *IrConstNumber   : return false
        case *IrConstString   : return true
        case *IrConstClass    : return true
        case *IrBinop         : return (p.Op == OpDiv || p.Op == OpRem) && p.Out.Type != TFloat && p.Out.Type != TDouble
        case *IrUnop          : return false
        case *IrInstanceOf    : return true
        case *IrCheckCast     : return true
        case *IrNonNull       : return true
        case *IrMove          : return false
        case *IrInvoke        : return true
        case *IrNewInstance   : return true
        case *IrNewArray      : return true
        case *IrArrayGet      : return true
        case *IrArrayPut      : return true
        case *IrArrayLength   : return true
        case *IrFieldGet      : return true
        case *IrFieldPut      : return true
        case *IrMonitor       : return true
        case *IrDebugPosition : return false
        case *IrGoto          : return false
        case *IrIf            : return false
        case *IrSwitch        : return false
        case *IrReturn        : return false
        case *IrThrow         : return true
        default               : panic("unreachable")
    }
}

// HasSideEffects reports whether the instruction must be kept even if its
// result is unused.
func HasSideEffects(ins Instruction) bool {
    switch ins.(type) {
        case *IrArgument      : return true
        case *IrInvoke        : return true
        case *IrArrayPut      : return true
        case *IrFieldPut      : return true
        case *IrMonitor       : return true
        case *IrNonNull       : return true
        case *IrDebugPosition : return true
        case *IrConstString   : return false
        case *IrConstClass    : return false
        case *IrInstanceOf    : return false
        case IrTerminator     : return true
        default               : return CanThrow(ins)
    }
}
