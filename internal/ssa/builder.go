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
    `github.com/cloudwego/shrinker/internal/types`
)

// Builder constructs a CFG block by block. Terminators add the control
// edges, so phis must be added to a block after all of its predecessors
// have been terminated.
type Builder struct {
    cfg *CFG
    bb  *BasicBlock
    pos Pos
}

// NewBuilder creates a graph for meth with an entry block holding one
// argument instruction per formal argument.
func NewBuilder(tf *types.Factory, meth *types.Method) *Builder {
    cfg := NewCFG(tf, meth)
    ret := &Builder { cfg: cfg, bb: cfg.CreateBlock() }

    /* load all the arguments */
    for i, t := range meth.ArgumentTypes() {
        v := cfg.NewValue(ValueTypeOf(t))
        v.Boolean = t.Desc == "Z"
        v.NonNull = i == 0 && !meth.Static
        ret.emit(&IrArgument { IrBase: IrBase { Out: v }, Index: i })
        cfg.Args = append(cfg.Args, v)
    }
    return ret
}

func (self *Builder) CFG() *CFG {
    return self.cfg
}

func (self *Builder) Block() *BasicBlock {
    return self.bb
}

// NewBlock creates a block at the end of the layout, without switching to it.
func (self *Builder) NewBlock() *BasicBlock {
    return self.cfg.CreateBlock()
}

func (self *Builder) SetBlock(bb *BasicBlock) {
    self.bb = bb
}

// SetPos sets the source position of instructions emitted from now on.
func (self *Builder) SetPos(file string, line int) {
    self.pos = Pos { File: file, Line: line }
}

func (self *Builder) emit(ins Instruction) *Value {
    ins.Base().Pos = self.pos
    self.cfg.Append(self.bb, ins)
    return ins.Base().Out
}

func (self *Builder) base(vt ValueType, in ...*Value) IrBase {
    return IrBase {
        In  : in,
        Out : self.cfg.NewValue(vt),
    }
}

func (self *Builder) Const(vt ValueType, v int64) *Value {
    return self.emit(&IrConstNumber { IrBase: self.base(vt), V: v })
}

func (self *Builder) Null() *Value {
    return self.Const(TObject, 0)
}

func (self *Builder) ConstString(s string) *Value {
    return self.emit(&IrConstString { IrBase: self.base(TObject), S: s })
}

func (self *Builder) ConstClass(t *types.Type) *Value {
    return self.emit(&IrConstClass { IrBase: self.base(TObject), Class: t })
}

func (self *Builder) Binop(op BinaryOp, x *Value, y *Value) *Value {
    if op == OpCmp {
        return self.emit(&IrBinop { IrBase: self.base(TInt, x, y), Op: op })
    } else {
        return self.emit(&IrBinop { IrBase: self.base(x.Type, x, y), Op: op })
    }
}

func (self *Builder) Unop(op UnaryOp, x *Value) *Value {
    switch op {
        case OpI2L : return self.emit(&IrUnop { IrBase: self.base(TLong, x), Op: op })
        case OpI2F : return self.emit(&IrUnop { IrBase: self.base(TFloat, x), Op: op })
        case OpL2I : fallthrough
        case OpF2I : return self.emit(&IrUnop { IrBase: self.base(TInt, x), Op: op })
        default    : return self.emit(&IrUnop { IrBase: self.base(x.Type, x), Op: op })
    }
}

func (self *Builder) InstanceOf(x *Value, t *types.Type) *Value {
    ret := self.emit(&IrInstanceOf { IrBase: self.base(TInt, x), Class: t })
    ret.Boolean = true
    return ret
}

func (self *Builder) CheckCast(x *Value, t *types.Type) *Value {
    return self.emit(&IrCheckCast { IrBase: self.base(TObject, x), Class: t })
}

func (self *Builder) NonNull(x *Value) *Value {
    ret := self.emit(&IrNonNull { IrBase: self.base(TObject, x) })
    ret.NonNull = true
    return ret
}

func (self *Builder) Move(x *Value) *Value {
    return self.emit(&IrMove { IrBase: self.base(x.Type, x) })
}

// Invoke emits a call. It returns nil for methods returning void.
func (self *Builder) Invoke(kind InvokeKind, meth *types.Method, args ...*Value) *Value {
    ins := &IrInvoke { Kind: kind, Method: meth }
    ins.In = args

    /* allocate the result if any */
    if meth.Return != nil && meth.Return.Kind() != types.Void {
        ins.Out = self.cfg.NewValue(ValueTypeOf(meth.Return))
        ins.Out.Boolean = meth.Return.Desc == "Z"
    }

    /* add to block */
    return self.emit(ins)
}

func (self *Builder) NewInstance(t *types.Type) *Value {
    return self.emit(&IrNewInstance { IrBase: self.base(TObject), Class: t })
}

func (self *Builder) NewArray(t *types.Type, size *Value) *Value {
    return self.emit(&IrNewArray { IrBase: self.base(TObject, size), Class: t })
}

func (self *Builder) ArrayGet(vt ValueType, arr *Value, idx *Value) *Value {
    return self.emit(&IrArrayGet { IrBase: self.base(vt, arr, idx) })
}

func (self *Builder) ArrayPut(arr *Value, idx *Value, val *Value) {
    self.emit(&IrArrayPut { IrBase: IrBase { In: []*Value { arr, idx, val } } })
}

func (self *Builder) ArrayLength(arr *Value) *Value {
    return self.emit(&IrArrayLength { IrBase: self.base(TInt, arr) })
}

// FieldGet reads a field of obj, or a static field if obj is nil.
func (self *Builder) FieldGet(f *types.Field, obj *Value) *Value {
    ins := &IrFieldGet { Field: f }
    ins.Out = self.cfg.NewValue(ValueTypeOf(f.Type))
    ins.Out.Boolean = f.Type.Desc == "Z"

    /* instance fields take the receiver */
    if obj != nil {
        ins.In = []*Value { obj }
    }

    /* add to block */
    return self.emit(ins)
}

// FieldPut writes val to a field of obj, or to a static field if obj is nil.
func (self *Builder) FieldPut(f *types.Field, obj *Value, val *Value) {
    if obj == nil {
        self.emit(&IrFieldPut { IrBase: IrBase { In: []*Value { val } }, Field: f })
    } else {
        self.emit(&IrFieldPut { IrBase: IrBase { In: []*Value { obj, val } }, Field: f })
    }
}

func (self *Builder) Monitor(enter bool, x *Value) {
    self.emit(&IrMonitor { IrBase: IrBase { In: []*Value { x } }, Enter: enter })
}

func (self *Builder) DebugPosition() {
    self.emit(new(IrDebugPosition))
}

// Phi adds a phi to bb. ops are given in predecessor order.
func (self *Builder) Phi(bb *BasicBlock, vt ValueType, ops ...*Value) *Value {
    return self.cfg.AddPhi(bb, vt, ops).Out
}

// Catch adds an exceptional edge from the current block.
func (self *Builder) Catch(guard *types.Type, handler *BasicBlock) {
    self.bb.Catch = append(self.bb.Catch, CatchHandler { Guard: guard, Target: handler.Id })
    if !handler.HasPred(self.bb.Id) {
        self.cfg.AddEdge(self.bb.Id, handler.Id, nil)
    }
}

func (self *Builder) term(term IrTerminator) {
    term.Base().Pos = self.pos
    self.cfg.SetTerm(self.bb, term)

    /* add the control edges */
    for _, s := range term.Targets() {
        if !self.cfg.Block(s).HasPred(self.bb.Id) {
            self.cfg.AddEdge(self.bb.Id, s, nil)
        }
    }
}

func (self *Builder) Goto(target *BasicBlock) {
    self.term(&IrGoto { Target: target.Id })
}

// If branches to t when x compares to y according to cond, or to f
// otherwise. A nil y compares against zero.
func (self *Builder) If(cond IfType, x *Value, y *Value, t *BasicBlock, f *BasicBlock) {
    ins := &IrIf { Cond: cond, True: t.Id, False: f.Id }
    ins.In = []*Value { x }

    /* two operands form */
    if y != nil {
        ins.In = append(ins.In, y)
    }

    /* terminate the block */
    self.term(ins)
}

// Switch dispatches on x. keys must be sorted in ascending order.
func (self *Builder) Switch(x *Value, keys []int32, cases []*BasicBlock, def *BasicBlock) {
    ins := &IrSwitch { Keys: keys, Default: def.Id }
    ins.In = []*Value { x }

    /* map the case targets */
    for _, bb := range cases {
        ins.Cases = append(ins.Cases, bb.Id)
    }

    /* terminate the block */
    self.term(ins)
}

// Return terminates the block, returning x or nothing if x is nil.
func (self *Builder) Return(x *Value) {
    if x == nil {
        self.term(new(IrReturn))
    } else {
        self.term(&IrReturn { IrBase: IrBase { In: []*Value { x } } })
    }
}

func (self *Builder) Throw(x *Value) {
    self.term(&IrThrow { IrBase: IrBase { In: []*Value { x } } })
}

// Build returns the constructed graph.
func (self *Builder) Build() *CFG {
    return self.cfg
}
