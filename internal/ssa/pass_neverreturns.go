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
    `github.com/oleiade/lane`
)

// NeverReturns cuts the control flow after calls that are known to never
// return normally. Everything after the call becomes dead, and the call is
// followed by a "throw null" in a separate block without catch handlers so
// the target verifier still sees a proper block end.
type NeverReturns struct {
    Oracle Oracle
}

func (self NeverReturns) Apply(cfg *CFG) {
    for _, id := range append([]int(nil), cfg.Order...) {
        if !cfg.HasBlock(id) {
            continue
        }

        /* find the first call that never returns */
        bb := cfg.Block(id)
        for i, ins := range bb.Ins {
            if p, ok := ins.(*IrInvoke); ok && self.neverReturns(p) {
                if !isThrowNullTail(cfg, bb, i) && canCut(cfg, bb, i) {
                    self.cut(cfg, bb, i)
                }
                break
            }
        }
    }
}

func (self NeverReturns) neverReturns(p *IrInvoke) bool {
    return self.Oracle.SingleTarget(p) && self.Oracle.NeverReturnsNormally(p)
}

// isThrowNullTail checks whether the call at idx is already the end of
// its block, followed by a jump into a "throw null" block.
func isThrowNullTail(cfg *CFG, bb *BasicBlock, idx int) bool {
    if idx != len(bb.Ins) - 1 {
        return false
    }

    /* must jump to another block */
    g, ok := bb.Term.(*IrGoto)
    if !ok {
        return false
    }

    /* that block only throws null */
    tb := cfg.Block(g.Target)
    th, ok := tb.Term.(*IrThrow)
    return ok && len(tb.Ins) == 1 && th.In[0].Def() == tb.Ins[0] && th.In[0].IsZero()
}

// canCut checks that no value defined after the call at idx is still used
// by a block that stays reachable once the normal successors are gone,
// such as a catch handler of the block itself.
func canCut(cfg *CFG, bb *BasicBlock, idx int) bool {
    mm := cfg.AcquireMarks()
    defer mm.Release()

    /* walk the graph, leaving the block only through its handlers */
    st := lane.NewStack()
    st.Push(cfg.Entry().Id)
    mm.Mark(cfg.Entry().Id)

    /* depth first traversal */
    for !st.Empty() {
        id := st.Pop().(int)
        nb := cfg.Block(id)
        succ := nb.Succ()

        /* the cut block only keeps its handlers */
        if id == bb.Id {
            succ = succ[:0:0]
            for _, h := range nb.Catch { succ = appendUnique(succ, h.Target) }
        }

        /* visit the successors */
        for _, s := range succ {
            if mm.Mark(s) {
                st.Push(s)
            }
        }
    }

    /* check every value defined after the call */
    for _, ins := range bb.Ins[idx + 1:] {
        v := ins.Base().Out
        if v == nil {
            continue
        }

        /* uses outside the block that survive the cut */
        for _, u := range v.Users() {
            if b := u.Base().Block; b != bb.Id && mm.IsMarked(b) {
                logger.Debugf("neverreturns: keep bb_%d, %s is used in bb_%d", bb.Id, v, b)
                return false
            }
        }

        /* phi uses on edges from blocks that survive the cut */
        for _, p := range v.PhiUsers() {
            pred := cfg.Block(p.Block).Pred
            for i, op := range p.Operands {
                if op == v && mm.IsMarked(pred[i]) && (pred[i] != bb.Id || bb.HasCatchTarget(p.Block)) {
                    logger.Debugf("neverreturns: keep bb_%d, %s is used by a phi in bb_%d", bb.Id, v, p.Block)
                    return false
                }
            }
        }
    }
    return true
}

func (self NeverReturns) cut(cfg *CFG, bb *BasicBlock, idx int) {
    pos := bb.Ins[idx].Base().Pos
    tgt := bb.Term.Targets()

    /* the block that throws null */
    tb := cfg.CreateBlockAfter(bb.Id)
    nv := &IrConstNumber {}
    nv.Pos = pos
    nv.Out = cfg.NewValue(TObject)
    cfg.Append(tb, nv)
    cfg.SetTerm(tb, &IrThrow { IrBase: IrBase { Pos: pos, In: []*Value { nv.Out } } })

    /* jump into it right after the call */
    cfg.SetTerm(bb, &IrGoto { IrBase: IrBase { Pos: pos }, Target: tb.Id })
    cfg.AddEdge(bb.Id, tb.Id, nil)

    /* detach the normal successors */
    for _, s := range tgt {
        if !bb.HasCatchTarget(s) {
            cfg.RemoveEdge(bb.Id, s)
        }
    }

    /* remove everything that became unreachable */
    cfg.RemoveUnreachable()

    /* and the instructions after the call */
    for i := len(bb.Ins) - 1; i > idx; i-- {
        cfg.Remove(bb.Ins[i])
    }

    /* update statistics */
    statAdd(&_Stats.NeverReturns, 1)
    logger.Debugf("neverreturns: cut bb_%d after %s", bb.Id, bb.Ins[idx])
}
