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
)

// endOfGotoChain follows the trivial goto blocks starting at id. It returns
// the first non-trivial block and the last trivial block that jumps to it,
// or (id, -1) if id is not trivial, or (-1, -1) if the chain is a cycle.
func endOfGotoChain(cfg *CFG, id int) (int, int) {
    last := -1
    mm := cfg.AcquireMarks()
    defer mm.Release()

    /* follow the chain until a non-trivial block */
    for cfg.Block(id).IsTrivialGoto() {
        if !mm.Mark(id) {
            return -1, -1
        } else {
            last, id = id, cfg.Block(id).Term.(*IrGoto).Target
        }
    }

    /* found the end */
    return id, last
}

// phiConflict reports whether block from already jumps to end with phi
// operands that differ from those flowing in through last.
func phiConflict(cfg *CFG, from int, end int, last int) bool {
    if !cfg.Block(end).HasPred(from) {
        return false
    } else {
        return !slices.Equal(cfg.EdgeOperands(from, end), cfg.EdgeOperands(last, end))
    }
}

// redirectEdge moves the edge from -> old to from -> end, where end is
// reached from old through the trivial goto chain ending at last. The
// terminator is updated by patch.
func redirectEdge(cfg *CFG, from int, old int, end int, last int, patch func()) bool {
    if phiConflict(cfg, from, end, last) {
        logger.Debugf("goto: keeping bb_%d -> bb_%d, phi operands differ from bb_%d", from, old, last)
        return false
    }

    /* phi operands of the new edge come from the chain */
    src := cfg.Block(from)
    ops := cfg.EdgeOperands(last, end)
    patch()

    /* drop the old edge if nothing else leads there */
    if !containsInt(src.Succ(), old) {
        cfg.RemoveEdge(from, old)
    }

    /* add the new edge if not merged with an existing one */
    if !cfg.Block(end).HasPred(from) {
        cfg.AddEdge(from, end, ops)
    }

    /* graph changed */
    cfg.Invalidate()
    statAdd(&_Stats.GotosCollapsed, 1)
    return true
}

// isFallthroughTarget reports whether some predecessor reaches bb by
// falling through or by an exceptional edge, neither of which can be
// redirected.
func isFallthroughTarget(cfg *CFG, bb *BasicBlock) bool {
    for _, p := range bb.Pred {
        if pp := cfg.Block(p); fallthroughOf(pp.Term) == bb.Id || pp.HasCatchTarget(bb.Id) {
            return true
        }
    }
    return false
}

func collapseTrivialGoto(cfg *CFG, bb *BasicBlock) bool {
    ret := false
    tr := bb.Term.(*IrGoto).Target

    /* this is the base case for goto loops */
    if tr == bb.Id || bb.Id == cfg.Order[0] {
        return false
    }

    /* goto loops collapse one block at a time */
    end, last := endOfGotoChain(cfg, bb.Id)
    if end < 0 {
        end, last = tr, bb.Id
    }

    /* fall-through predecessors keep the block alive, unless the target is laid out right after it */
    if end != cfg.NextOf(bb.Id) && isFallthroughTarget(cfg, bb) {
        return false
    }

    /* redirect every predecessor */
    for _, p := range append([]int(nil), bb.Pred...) {
        if src := cfg.Block(p); !src.HasCatchTarget(bb.Id) {
            ret = redirectEdge(cfg, p, bb.Id, end, last, func() { src.Term.ReplaceTarget(bb.Id, end) }) || ret
        }
    }
    return ret
}

func collapseIfTrueTarget(cfg *CFG, bb *BasicBlock) bool {
    ret := false
    ins := bb.Term.(*IrIf)

    /* redirect the branch target to the end of the chain */
    if old := ins.True; old != ins.False {
        if end, last := endOfGotoChain(cfg, old); end >= 0 && last >= 0 {
            ret = redirectEdge(cfg, bb.Id, old, end, last, func() { ins.True = end })
        }
    }

    /* both targets are the same block after the chain */
    fall := ins.False
    end, last := endOfGotoChain(cfg, fall)

    /* must end up in the branch target */
    if end != ins.True {
        return ret
    }

    /* values flowing in along both paths must be the same */
    if last >= 0 && !slices.Equal(cfg.EdgeOperands(bb.Id, end), cfg.EdgeOperands(last, end)) {
        return ret
    }

    /* replace with a goto to the fall-through block */
    cfg.SetTerm(bb, &IrGoto {
        IrBase : IrBase { Pos: ins.Pos },
        Target : fall,
    })

    /* remove the branch edge if it no longer exists */
    if end != fall && !containsInt(bb.Succ(), end) {
        cfg.RemoveEdge(bb.Id, end)
    }

    /* the branch is gone */
    statAdd(&_Stats.GotosCollapsed, 1)
    return true
}

func collapseSwitchTargets(cfg *CFG, bb *BasicBlock) bool {
    ret := false
    ins := bb.Term.(*IrSwitch)

    /* redirect every non-fall-through target */
    for _, old := range ins.Targets() {
        if old == ins.Default {
            continue
        }

        /* find the end of chain */
        end, last := endOfGotoChain(cfg, old)
        if end < 0 || last < 0 {
            continue
        }

        /* replace all the cases */
        ret = redirectEdge(cfg, bb.Id, old, end, last, func() {
            for i, v := range ins.Cases {
                if v == old {
                    ins.Cases[i] = end
                }
            }
        }) || ret
    }
    return ret
}

// GotoCollapse rewrites control edges that lead into chains of trivial goto
// blocks to jump to the end of the chain directly, then removes the blocks
// that are no longer reachable. Fall-through edges are never redirected
// since that would require reordering the blocks.
type GotoCollapse struct{}

func (GotoCollapse) Apply(cfg *CFG) {
    for {
        done := true

        /* scan every block in layout order */
        for _, id := range append([]int(nil), cfg.Order...) {
            bb := cfg.Block(id)

            /* collapse the trivial gotos */
            if bb.IsTrivialGoto() && collapseTrivialGoto(cfg, bb) {
                done = false
            }

            /* redirect branch targets */
            switch bb.Term.(type) {
                case *IrIf     : done = !collapseIfTrueTarget(cfg, bb) && done
                case *IrSwitch : done = !collapseSwitchTargets(cfg, bb) && done
            }
        }

        /* remove the blocks that have become unreachable */
        if cfg.RemoveUnreachable() != 0 {
            done = false
        }

        /* no more modifications */
        if done {
            break
        }
    }
}

// CheckTrivialGotos verifies that no removable trivial goto block is left:
// every remaining one is either a self-loop, the entry block, the target of
// a fall-through or exceptional edge, or carries phi operands that differ
// from those of another edge into its target.
func CheckTrivialGotos(cfg *CFG) error {
    for _, bb := range cfg.Blocks() {
        if !bb.IsTrivialGoto() || isNeededGoto(cfg, bb) {
            continue
        } else {
            return fmt.Errorf("bb_%d: removable trivial goto to bb_%d", bb.Id, bb.Term.(*IrGoto).Target)
        }
    }
    return nil
}

func isNeededGoto(cfg *CFG, bb *BasicBlock) bool {
    tr := bb.Term.(*IrGoto).Target

    /* self loops and the entry */
    if tr == bb.Id || bb.Id == cfg.Order[0] {
        return true
    }

    /* find the end of the chain */
    end, last := endOfGotoChain(cfg, bb.Id)
    if end < 0 {
        end, last = tr, bb.Id
    }

    /* reached by fall through */
    if end != cfg.NextOf(bb.Id) && isFallthroughTarget(cfg, bb) {
        return true
    }

    /* some predecessor cannot be redirected */
    for _, p := range bb.Pred {
        if cfg.Block(p).HasCatchTarget(bb.Id) || phiConflict(cfg, p, end, last) {
            return true
        }
    }
    return false
}
