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

    `github.com/oleiade/lane`
    `golang.org/x/exp/slices`

    `github.com/cloudwego/shrinker/internal/types`
)

// CFG is the SSA form of a single method body. Blocks and values live in
// arenas and refer to each other by id.
type CFG struct {
    Method *types.Method
    Types  *types.Factory
    Args   []*Value
    Order  []int
    blocks []*BasicBlock
    values []*Value
    gen    uint64
    dt     *DominatorTree
    marks  _MarkPool
}

func NewCFG(tf *types.Factory, meth *types.Method) *CFG {
    return &CFG {
        Types  : tf,
        Method : meth,
    }
}

// Entry returns the entry block, which is always first in layout order.
func (self *CFG) Entry() *BasicBlock {
    return self.blocks[self.Order[0]]
}

func (self *CFG) Block(id int) *BasicBlock {
    if id < 0 || id >= len(self.blocks) || self.blocks[id] == nil {
        panic(fmt.Sprintf("ssa: invalid block id bb_%d", id))
    } else {
        return self.blocks[id]
    }
}

func (self *CFG) HasBlock(id int) bool {
    return id >= 0 && id < len(self.blocks) && self.blocks[id] != nil
}

// Blocks returns the live blocks in layout order.
func (self *CFG) Blocks() []*BasicBlock {
    ret := make([]*BasicBlock, 0, len(self.Order))
    for _, id := range self.Order { ret = append(ret, self.blocks[id]) }
    return ret
}

// MaxBlock returns an upper bound of all block ids.
func (self *CFG) MaxBlock() int {
    return len(self.blocks)
}

func (self *CFG) Value(id int) *Value {
    return self.values[id]
}

func (self *CFG) NumValues() int {
    return len(self.values)
}

// Generation is bumped on every structural change of the graph.
func (self *CFG) Generation() uint64 {
    return self.gen
}

func (self *CFG) Invalidate() {
    self.gen++
}

// Dominators returns the dominator tree of the current graph, rebuilding it
// if the graph has changed since it was last computed.
func (self *CFG) Dominators() *DominatorTree {
    if self.dt == nil || self.dt.gen != self.gen {
        self.dt = BuildDominatorTree(self)
    }
    return self.dt
}

// NextOf returns the block laid out right after id, or -1.
func (self *CFG) NextOf(id int) int {
    if i := slices.Index(self.Order, id); i < 0 || i == len(self.Order) - 1 {
        return -1
    } else {
        return self.Order[i + 1]
    }
}

func (self *CFG) newBlock() *BasicBlock {
    bb := &BasicBlock { Id: len(self.blocks) }
    self.blocks = append(self.blocks, bb)
    self.gen++
    return bb
}

// CreateBlock adds an empty block at the end of the layout. The caller must
// give it a terminator.
func (self *CFG) CreateBlock() *BasicBlock {
    bb := self.newBlock()
    self.Order = append(self.Order, bb.Id)
    return bb
}

// CreateBlockAfter adds an empty block laid out right after block id.
func (self *CFG) CreateBlockAfter(id int) *BasicBlock {
    i := slices.Index(self.Order, id)
    bb := self.newBlock()

    /* the anchor must be a live block */
    if i < 0 {
        panic(fmt.Sprintf("ssa: block bb_%d is not in layout", id))
    }

    /* insert after the anchor */
    self.Order = slices.Insert(self.Order, i + 1, bb.Id)
    return bb
}

func (self *CFG) NewValue(vt ValueType) *Value {
    v := &Value { Id: len(self.values), Type: vt }
    self.values = append(self.values, v)
    return v
}

func (self *CFG) link(ins Instruction, bb *BasicBlock) {
    ir := ins.Base()
    ir.Block = bb.Id

    /* add to the operands' use lists */
    for _, v := range ir.In {
        v.addUser(ins)
    }

    /* claim the output */
    if ir.Out != nil {
        ir.Out.ins = ins
        ir.Out.phi = nil
    }
}

func (self *CFG) unlink(ins Instruction) {
    for _, v := range ins.Base().In {
        v.removeUser(ins)
    }
}

// Insert places ins at position at of block bb and links its operands.
func (self *CFG) Insert(bb *BasicBlock, at int, ins Instruction) {
    if _, ok := ins.(IrTerminator); ok {
        panic("ssa: terminator inserted as instruction: " + ins.String())
    }
    self.link(ins, bb)
    bb.Ins = slices.Insert(bb.Ins, at, ins)
}

// Append adds ins right before the terminator of bb.
func (self *CFG) Append(bb *BasicBlock, ins Instruction) {
    self.Insert(bb, len(bb.Ins), ins)
}

// Remove deletes ins from its block. Its result must be unused.
func (self *CFG) Remove(ins Instruction) {
    bb := self.Block(ins.Base().Block)
    idx := slices.Index(bb.Ins, ins)

    /* check for invariants */
    if idx < 0 {
        panic("ssa: instruction not in block: " + ins.String())
    } else if out := ins.Base().Out; out != nil && out.HasUsers() {
        panic("ssa: removing instruction with users: " + ins.String())
    }

    /* remove from block */
    self.unlink(ins)
    bb.Ins = slices.Delete(bb.Ins, idx, idx + 1)
}

// detach takes ins out of its block without touching any use lists. The
// caller must put it back with Insert or drop it once it has no users.
func (self *CFG) detach(ins Instruction) {
    bb := self.Block(ins.Base().Block)
    idx := slices.Index(bb.Ins, ins)

    /* must be a non-terminator in its block */
    if idx < 0 {
        panic("ssa: instruction not in block: " + ins.String())
    }

    /* remove from block */
    bb.Ins = slices.Delete(bb.Ins, idx, idx + 1)
}

// SetTerm replaces the terminator of bb. Edges are not updated; callers
// must keep Pred lists consistent with the new targets.
func (self *CFG) SetTerm(bb *BasicBlock, term IrTerminator) {
    if bb.Term != nil {
        self.unlink(bb.Term)
    }
    self.link(term, bb)
    bb.Term = term
    self.gen++
}

// AddPhi creates a phi in bb with one operand per predecessor.
func (self *CFG) AddPhi(bb *BasicBlock, vt ValueType, ops []*Value) *Phi {
    if len(ops) != len(bb.Pred) {
        panic(fmt.Sprintf("ssa: phi in bb_%d needs %d operands, got %d", bb.Id, len(bb.Pred), len(ops)))
    }

    /* create the phi */
    phi := &Phi { Block: bb.Id, Out: self.NewValue(vt) }
    phi.Out.phi = phi

    /* add the operands */
    for _, v := range ops {
        phi.appendOperand(v)
    }

    /* add to the block */
    bb.Phi = append(bb.Phi, phi)
    return phi
}

// RemovePhi deletes an unused phi.
func (self *CFG) RemovePhi(phi *Phi) {
    bb := self.Block(phi.Block)
    idx := slices.Index(bb.Phi, phi)

    /* check for invariants */
    if idx < 0 {
        panic("ssa: phi not in block: " + phi.String())
    } else if phi.Out.HasUsers() {
        panic("ssa: removing phi with users: " + phi.String())
    }

    /* remove from block */
    phi.unlink()
    bb.Phi = slices.Delete(bb.Phi, idx, idx + 1)
}

// AddEdge records from as a new predecessor of to. ops gives the operand
// of every phi in to for the new edge.
func (self *CFG) AddEdge(from int, to int, ops []*Value) {
    bb := self.Block(to)

    /* check for invariants */
    if bb.HasPred(from) {
        panic(fmt.Sprintf("ssa: duplicated edge bb_%d -> bb_%d", from, to))
    } else if len(ops) != len(bb.Phi) {
        panic(fmt.Sprintf("ssa: edge bb_%d -> bb_%d needs %d phi operands, got %d", from, to, len(bb.Phi), len(ops)))
    }

    /* append to predecessors and phis */
    bb.Pred = append(bb.Pred, from)
    for i, phi := range bb.Phi {
        phi.appendOperand(ops[i])
    }

    /* graph changed */
    self.gen++
}

// RemoveEdge drops from from the predecessors of to, along with the phi
// operands for that edge.
func (self *CFG) RemoveEdge(from int, to int) {
    bb := self.Block(to)
    idx := bb.PredIndex(from)

    /* must be an existing edge */
    if idx < 0 {
        panic(fmt.Sprintf("ssa: no such edge bb_%d -> bb_%d", from, to))
    }

    /* remove the phi operands */
    for _, phi := range bb.Phi {
        phi.removeOperand(idx)
    }

    /* remove the predecessor */
    bb.Pred = slices.Delete(bb.Pred, idx, idx + 1)
    self.gen++
}

// ReplacePred renames predecessor old of block to as nb, keeping the phi
// operands of that edge.
func (self *CFG) ReplacePred(to int, old int, nb int) {
    bb := self.Block(to)
    idx := bb.PredIndex(old)

    /* check for invariants */
    if idx < 0 {
        panic(fmt.Sprintf("ssa: no such edge bb_%d -> bb_%d", old, to))
    } else if bb.HasPred(nb) {
        panic(fmt.Sprintf("ssa: duplicated edge bb_%d -> bb_%d", nb, to))
    }

    /* replace the predecessor */
    bb.Pred[idx] = nb
    self.gen++
}

// EdgeOperands returns the phi operands of to for the edge from -> to.
func (self *CFG) EdgeOperands(from int, to int) []*Value {
    bb := self.Block(to)
    idx := bb.PredIndex(from)

    /* must be an existing edge */
    if idx < 0 {
        panic(fmt.Sprintf("ssa: no such edge bb_%d -> bb_%d", from, to))
    }

    /* collect the operands */
    ret := make([]*Value, 0, len(bb.Phi))
    for _, phi := range bb.Phi { ret = append(ret, phi.Operands[idx]) }
    return ret
}

// RemoveBlocks deletes the given blocks together with their edges and the
// phi operands for those edges.
func (self *CFG) RemoveBlocks(ids []int) {
    if len(ids) == 0 {
        return
    }

    /* mark all the removed blocks */
    mm := self.AcquireMarks()
    defer mm.Release()
    for _, id := range ids { mm.Mark(id) }

    /* detach from surviving successors */
    for _, id := range ids {
        bb := self.Block(id)
        for _, s := range bb.Succ() {
            if !mm.IsMarked(s) {
                self.RemoveEdge(id, s)
            }
        }
    }

    /* unlink all the instructions and phis */
    for _, id := range ids {
        bb := self.blocks[id]
        for _, phi := range bb.Phi { phi.unlink() }
        for _, ins := range bb.Ins { self.unlink(ins) }
        self.unlink(bb.Term)
    }

    /* drop from the arena */
    for _, id := range ids {
        self.blocks[id] = nil
    }

    /* drop from the layout */
    self.Order = slices.DeleteFunc(self.Order, mm.IsMarked)
    self.gen++
    statAdd(&_Stats.BlocksRemoved, len(ids))
}

// Unreachable returns all the blocks that cannot be reached from the entry.
func (self *CFG) Unreachable() []int {
    var ret []int
    mm := self.AcquireMarks()
    defer mm.Release()

    /* walk from the entry */
    self.walk(mm, self.Order[0])

    /* collect blocks that were not visited */
    for _, id := range self.Order {
        if !mm.IsMarked(id) {
            ret = append(ret, id)
        }
    }
    return ret
}

func (self *CFG) walk(mm *Marks, root int) {
    st := lane.NewStack()
    st.Push(root)
    mm.Mark(root)

    /* depth first traversal */
    for !st.Empty() {
        for _, s := range self.blocks[st.Pop().(int)].Succ() {
            if mm.Mark(s) {
                st.Push(s)
            }
        }
    }
}

// RemoveUnreachable deletes every block that cannot be reached from the
// entry, returning how many were removed.
func (self *CFG) RemoveUnreachable() int {
    ids := self.Unreachable()
    self.RemoveBlocks(ids)
    return len(ids)
}

func (self *CFG) String() string {
    buf := make([]string, 0, len(self.Order) + 2)
    buf = append(buf, fmt.Sprintf("method %s {", self.Method))

    /* dump every block */
    for _, id := range self.Order {
        buf = append(buf, self.blocks[id].String())
    }

    /* join them together */
    buf = append(buf, "}")
    return strings.Join(buf, "\n")
}
