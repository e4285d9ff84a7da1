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

// ConstPlace moves constants as close as possible to their users to
// shorten their live ranges.
//
// Numeric constants are moved to the closest common dominator of their
// users, string and class constants only when they have a single user.
// Constants that may throw are only moved into blocks without catch
// handlers that lead straight to a throw. When too many constants end up
// in a single block, numeric constants that do not feed a phi are copied
// in front of every user instead.
type ConstPlace struct {
    Threshold int
}

func isPlaceableConst(ins Instruction) bool {
    out := ins.Base().Out
    if out == nil || out.Local != "" {
        return false
    }

    /* numeric constants with users, or strings with exactly one user */
    switch ins.(type) {
        case *IrConstNumber : return out.HasUsers()
        case *IrConstString : return out.NumUsers() == 1
        case *IrConstClass  : return out.NumUsers() == 1
        default             : return false
    }
}

// isAlwaysThrowingPath checks that the block and every block reached from
// it through gotos have no catch handlers, and that the chain ends with a
// throw.
func isAlwaysThrowingPath(cfg *CFG, id int) bool {
    mm := cfg.AcquireMarks()
    defer mm.Release()

    /* follow the goto chain */
    for mm.Mark(id) {
        bb := cfg.Block(id)
        if bb.HasCatchHandlers() {
            return false
        }

        /* check the terminator */
        switch p := bb.Term.(type) {
            case *IrThrow : return true
            case *IrGoto  : id = p.Target
            default       : return false
        }
    }

    /* cycles never throw */
    return false
}

func countOperand(phi *Phi, v *Value) (n int) {
    for _, p := range phi.Operands {
        if p == v {
            n++
        }
    }
    return
}

// placementOf finds the block that should hold the constant, or -1 if it
// must stay where it is.
func placementOf(cfg *CFG, dt *DominatorTree, ins Instruction) int {
    out := ins.Base().Out
    ids := make([]int, 0, out.NumUsers())

    /* collect the blocks of every user */
    for _, u := range out.Users() { ids = append(ids, u.Base().Block) }
    for _, p := range out.PhiUsers() { ids = append(ids, p.Block) }

    /* locate the closest dominator of all users */
    dom := dt.ClosestDominator(ids...)
    for _, p := range out.PhiUsers() {
        if p.Block != dom {
            continue
        }

        /* a single phi operand goes right into the predecessor */
        if out.NumUsers() == 1 && countOperand(p, out) == 1 {
            for i, v := range p.Operands {
                if v == out {
                    dom = cfg.Block(dom).Pred[i]
                    break
                }
            }
        } else {
            dom = dt.ImmediateDominator(dom)
        }
        break
    }

    /* constants that do not throw may go anywhere */
    if !CanThrow(ins) {
        return dom
    }

    /* throwing ones must stay out of any try block */
    if cfg.Block(ins.Base().Block).HasCatchHandlers() || cfg.Block(dom).HasCatchHandlers() {
        return -1
    }

    /* and may only move into a path that always throws */
    if !isAlwaysThrowingPath(cfg, dom) {
        return -1
    } else {
        return dom
    }
}

// blockPos returns the first known source position of a block.
func blockPos(bb *BasicBlock) Pos {
    for _, ins := range bb.Ins {
        if !ins.Base().Pos.IsNone() {
            return ins.Base().Pos
        }
    }
    return bb.Term.Base().Pos
}

func insertConstant(cfg *CFG, bb *BasicBlock, ins Instruction) {
    out := ins.Base().Out
    at := len(bb.Ins)

    /* must stay in front of anything covered by the handlers */
    if bb.HasCatchHandlers() {
        if i := bb.FirstThrowing(); i >= 0 {
            at = i
        }
    }

    /* and in front of its first user */
    for i, v := range bb.Ins[:at] {
        if containsValue(v.Base().In, out) {
            at = i
            break
        }
    }

    /* take the position of the next instruction */
    if at != len(bb.Ins) {
        ins.Base().Pos = bb.Ins[at].Base().Pos
    } else if g, ok := bb.Term.(*IrGoto); ok {
        ins.Base().Pos = blockPos(cfg.Block(g.Target))
    } else {
        ins.Base().Pos = bb.Term.Base().Pos
    }

    /* add to the block */
    cfg.Insert(bb, at, ins)
}

func copyConstant(cfg *CFG, c *IrConstNumber) {
    out := c.Out
    use := append([]Instruction(nil), out.Users()...)

    /* materialize a copy right before every user */
    for _, u := range use {
        bb := cfg.Block(u.Base().Block)
        nc := &IrConstNumber { V: c.V }

        /* the new constant is a fresh value */
        nc.Pos = u.Base().Pos
        nc.Out = cfg.NewValue(out.Type)
        nc.Out.Range = out.Range
        nc.Out.Boolean = out.Boolean

        /* insert before the user and rewire */
        cfg.Insert(bb, bb.IndexOf(u), nc)
        out.ReplaceUser(u, nc.Out)
    }

    /* the original constant is dropped */
    statAdd(&_Stats.ConstantsCopied, len(use))
}

func (self ConstPlace) Apply(cfg *CFG) {
    dt := cfg.Dominators()
    nb := cfg.Entry().Id
    mv := make(map[int][]Instruction)

    /* take out all the constants that can be moved */
    for _, bb := range cfg.Blocks() {
        for _, ins := range append([]Instruction(nil), bb.Ins...) {
            if isPlaceableConst(ins) {
                if dom := placementOf(cfg, dt, ins); dom >= 0 {
                    cfg.detach(ins)
                    mv[dom] = append(mv[dom], ins)
                }
            }
        }
    }

    /* put them back in layout order to stay deterministic */
    for _, id := range cfg.Order {
        bb := cfg.Block(id)
        cc := mv[id]

        /* share the constants in their dominator block */
        if id == nb || len(cc) <= self.Threshold {
            for _, ins := range cc { insertConstant(cfg, bb, ins) }
            statAdd(&_Stats.ConstantsMoved, len(cc))
            continue
        }

        /* too many constants, only keep the phi-used ones and strings shared */
        logger.Debugf("constplace: %d constants in bb_%d, copying to users", len(cc), id)
        for _, ins := range cc {
            if c, ok := ins.(*IrConstNumber); ok && len(c.Out.PhiUsers()) == 0 {
                copyConstant(cfg, c)
            } else {
                insertConstant(cfg, bb, ins)
                statAdd(&_Stats.ConstantsMoved, 1)
            }
        }
    }
}
