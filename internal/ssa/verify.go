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
    `errors`
    `fmt`
)

type _Verifier struct {
    cfg  *CFG
    dt   *DominatorTree
    errs []error
}

func (self *_Verifier) errorf(format string, args ...interface{}) {
    self.errs = append(self.errs, fmt.Errorf(format, args...))
}

// Verify checks the structural invariants of the graph and the SSA form:
// consistent edges and phi arities, consistent use lists, and every use
// dominated by its definition.
func (self *CFG) Verify() error {
    vv := &_Verifier { cfg: self }

    /* graph shape must be valid before anything else */
    if vv.graph(); len(vv.errs) != 0 {
        return errors.Join(vv.errs...)
    }

    /* check the values */
    vv.dt = self.Dominators()
    vv.values()
    return errors.Join(vv.errs...)
}

func (self *_Verifier) graph() {
    cfg := self.cfg
    seen := make(map[int]bool, len(cfg.Order))

    /* must have an entry */
    if len(cfg.Order) == 0 {
        self.errorf("empty graph")
        return
    }

    /* check the layout */
    for _, id := range cfg.Order {
        if !cfg.HasBlock(id) {
            self.errorf("bb_%d: removed block in layout", id)
        } else if seen[id] {
            self.errorf("bb_%d: duplicated in layout", id)
        } else {
            seen[id] = true
        }
    }

    /* every live block must be in the layout */
    for id, bb := range cfg.blocks {
        if bb != nil && !seen[id] {
            self.errorf("bb_%d: live block missing from layout", id)
        }
    }

    /* the entry block cannot have predecessors */
    if len(self.errs) != 0 {
        return
    } else if len(cfg.Entry().Pred) != 0 {
        self.errorf("bb_%d: entry block has predecessors %v", cfg.Order[0], cfg.Entry().Pred)
    }

    /* check every block */
    for _, bb := range cfg.Blocks() {
        self.block(bb)
    }

    /* all blocks must be reachable */
    if len(self.errs) == 0 {
        for _, id := range cfg.Unreachable() {
            self.errorf("bb_%d: unreachable block", id)
        }
    }
}

func (self *_Verifier) block(bb *BasicBlock) {
    cfg := self.cfg
    dup := make(map[int]bool, len(bb.Pred))

    /* must be terminated */
    if bb.Term == nil {
        self.errorf("bb_%d: missing terminator", bb.Id)
        return
    }

    /* check the terminator */
    switch p := bb.Term.(type) {
        case *IrIf: {
            if len(p.In) != 1 && len(p.In) != 2 {
                self.errorf("bb_%d: if with %d operands", bb.Id, len(p.In))
            }
        }

        case *IrSwitch: {
            if len(p.Keys) == 0 || len(p.Keys) != len(p.Cases) {
                self.errorf("bb_%d: malformed switch with %d keys and %d targets", bb.Id, len(p.Keys), len(p.Cases))
            }
            for i := 1; i < len(p.Keys); i++ {
                if p.Keys[i - 1] >= p.Keys[i] {
                    self.errorf("bb_%d: switch keys are not sorted", bb.Id)
                    break
                }
            }
        }
    }

    /* successors must be live and list this block as a predecessor */
    for _, s := range bb.Succ() {
        if !cfg.HasBlock(s) {
            self.errorf("bb_%d: successor bb_%d does not exist", bb.Id, s)
        } else if !cfg.Block(s).HasPred(bb.Id) {
            self.errorf("bb_%d: successor bb_%d does not list it as a predecessor", bb.Id, s)
        }
    }

    /* predecessors must be live, unique and list this block as a successor */
    for _, p := range bb.Pred {
        if dup[p] {
            self.errorf("bb_%d: duplicated predecessor bb_%d", bb.Id, p)
        } else if dup[p] = true; !cfg.HasBlock(p) {
            self.errorf("bb_%d: predecessor bb_%d does not exist", bb.Id, p)
        } else if !containsInt(cfg.Block(p).Succ(), bb.Id) {
            self.errorf("bb_%d: predecessor bb_%d does not list it as a successor", bb.Id, p)
        }
    }

    /* phi arities */
    for _, phi := range bb.Phi {
        if phi.Block != bb.Id {
            self.errorf("bb_%d: phi %s belongs to bb_%d", bb.Id, phi, phi.Block)
        } else if len(phi.Operands) != len(bb.Pred) {
            self.errorf("bb_%d: phi %s has %d operands for %d predecessors", bb.Id, phi, len(phi.Operands), len(bb.Pred))
        }
    }
}

func containsInt(buf []int, v int) bool {
    for _, x := range buf {
        if x == v {
            return true
        }
    }
    return false
}

func (self *_Verifier) values() {
    cfg := self.cfg
    pos := make(map[Instruction]int)

    /* number every instruction */
    for _, bb := range cfg.Blocks() {
        for i, ins := range bb.Ins {
            pos[ins] = i
        }
        pos[bb.Term] = len(bb.Ins)
    }

    /* check every block */
    for _, bb := range cfg.Blocks() {
        for _, phi := range bb.Phi {
            self.phi(bb, phi)
        }
        for i, ins := range bb.Ins {
            self.ins(bb, i, ins, pos)
        }
        self.ins(bb, len(bb.Ins), bb.Term, pos)
    }
}

func (self *_Verifier) defined(v *Value) bool {
    if v.phi != nil {
        return self.cfg.HasBlock(v.phi.Block) && containsPhi(self.cfg.Block(v.phi.Block).Phi, v.phi)
    } else if v.ins != nil {
        id := v.ins.Base().Block
        return self.cfg.HasBlock(id) && self.cfg.Block(id).IndexOf(v.ins) >= 0
    } else {
        return false
    }
}

func containsPhi(buf []*Phi, p *Phi) bool {
    for _, v := range buf {
        if v == p {
            return true
        }
    }
    return false
}

func (self *_Verifier) phi(bb *BasicBlock, phi *Phi) {
    if phi.Out.phi != phi {
        self.errorf("bb_%d: %s is not defined by its phi", bb.Id, phi.Out)
    }

    /* check every operand */
    for i, v := range phi.Operands {
        if i >= len(bb.Pred) {
            break
        }

        /* must be defined */
        if !self.defined(v) {
            self.errorf("bb_%d: phi %s uses undefined value %s", bb.Id, phi, v)
            continue
        }

        /* must be in the use list */
        if !containsPhi(v.phiuse, phi) {
            self.errorf("bb_%d: phi %s missing from the users of %s", bb.Id, phi, v)
        }

        /* the definition must dominate the incoming edge */
        if p := bb.Pred[i]; !self.dt.Dominates(v.DefBlock(), p) {
            self.errorf("bb_%d: phi operand %s from bb_%d is not dominated by its definition", bb.Id, v, p)
        }
    }

    /* every user must use this phi */
    self.users(phi.Out)
}

func (self *_Verifier) ins(bb *BasicBlock, idx int, ins Instruction, pos map[Instruction]int) {
    ir := ins.Base()

    /* must belong to this block */
    if ir.Block != bb.Id {
        self.errorf("bb_%d: instruction %q belongs to bb_%d", bb.Id, ins, ir.Block)
    }

    /* check the operands */
    for _, v := range ir.In {
        if !self.defined(v) {
            self.errorf("bb_%d: %q uses undefined value %s", bb.Id, ins, v)
            continue
        }

        /* must be in the use list */
        if !containsIns(v.users, ins) {
            self.errorf("bb_%d: %q missing from the users of %s", bb.Id, ins, v)
        }

        /* phis are defined at block entry */
        if v.phi != nil {
            if !self.dt.Dominates(v.phi.Block, bb.Id) {
                self.errorf("bb_%d: %q is not dominated by the definition of %s", bb.Id, ins, v)
            }
            continue
        }

        /* instructions in the same block must come earlier */
        if d := v.ins.Base().Block; d == bb.Id {
            if pos[v.ins] >= idx {
                self.errorf("bb_%d: %q uses %s before its definition", bb.Id, ins, v)
            }
        } else if !self.dt.Dominates(d, bb.Id) {
            self.errorf("bb_%d: %q is not dominated by the definition of %s", bb.Id, ins, v)
        }
    }

    /* check the result */
    if ir.Out != nil {
        if ir.Out.ins != ins {
            self.errorf("bb_%d: %s is not defined by %q", bb.Id, ir.Out, ins)
        }

        /* arguments and call results are typed by their declarations */
        switch ins.(type) {
            case *IrArgument, *IrInvoke: {
                if !ir.Out.Type.IsPrecise() {
                    self.errorf("bb_%d: %q has imprecise type %s", bb.Id, ins, ir.Out.Type)
                }
            }
        }
        self.users(ir.Out)
    }
}

func containsIns(buf []Instruction, ins Instruction) bool {
    for _, v := range buf {
        if v == ins {
            return true
        }
    }
    return false
}

func (self *_Verifier) users(v *Value) {
    for _, u := range v.users {
        if id := u.Base().Block; !self.cfg.HasBlock(id) || self.cfg.Block(id).IndexOf(u) < 0 {
            self.errorf("%s: stale user %q", v, u)
        } else if !containsValue(u.Base().In, v) {
            self.errorf("%s: user %q does not use it", v, u)
        }
    }
    for _, p := range v.phiuse {
        if !self.cfg.HasBlock(p.Block) || !containsPhi(self.cfg.Block(p.Block).Phi, p) {
            self.errorf("%s: stale phi user %s", v, p)
        } else if !containsValue(p.Operands, v) {
            self.errorf("%s: phi user %s does not use it", v, p)
        }
    }
}

func containsValue(buf []*Value, v *Value) bool {
    for _, x := range buf {
        if x == v {
            return true
        }
    }
    return false
}

// MustVerify panics with a dump of the graph if it is inconsistent.
func (self *CFG) MustVerify(what string) {
    if err := self.Verify(); err != nil {
        panic(fmt.Sprintf("ssa: inconsistent graph after %s: %v\n%s", what, err, self))
    }
}
