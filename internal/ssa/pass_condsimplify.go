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

// CondSimplify folds conditional branches whose outcome is known and
// removes diamonds that only turn a boolean into 0 or 1.
//
// Comparisons against a zero constant are first rewritten into zero tests.
// A branch is folded when both operands are constants, when the known
// ranges of its operands do not overlap, or when it tests a reference that
// can never be null. The dead edge is removed together with every block
// that becomes unreachable.
type CondSimplify struct{}

func (CondSimplify) Apply(cfg *CFG) {
    for _, id := range append([]int(nil), cfg.Order...) {
        if !cfg.HasBlock(id) {
            continue
        }

        /* only conditional branches */
        bb := cfg.Block(id)
        if _, ok := bb.Term.(*IrIf); !ok {
            continue
        }

        /* normalize comparisons against zero */
        normalizeZeroTest(cfg, bb)

        /* boolean diamonds, then known outcomes */
        if !simplifyBooleanDiamond(cfg, bb) {
            foldKnownBranch(cfg, bb)
        }
    }
}

func normalizeZeroTest(cfg *CFG, bb *BasicBlock) {
    p := bb.Term.(*IrIf)
    if p.IsZeroTest() {
        return
    }

    /* zero on the left side, swap the condition */
    x, y := p.In[0], p.In[1]
    if x.IsZero() {
        cfg.SetTerm(bb, &IrIf {
            IrBase : IrBase { Pos: p.Pos, In: []*Value { y } },
            Cond   : p.Cond.Swapped(),
            True   : p.True,
            False  : p.False,
        })
        return
    }

    /* zero on the right side */
    if y.IsZero() {
        cfg.SetTerm(bb, &IrIf {
            IrBase : IrBase { Pos: p.Pos, In: []*Value { x } },
            Cond   : p.Cond,
            True   : p.True,
            False  : p.False,
        })
    }
}

func rangeOf(v *Value) *Interval {
    if v.IsConstNumber() {
        return &Interval { Min: v.ConstValue(), Max: v.ConstValue() }
    } else {
        return v.Range
    }
}

// branchOutcome evaluates the condition statically, if possible.
func branchOutcome(p *IrIf) (bool, bool) {
    x := p.In[0]
    z := p.IsZeroTest()

    /* comparison between constants */
    if x.IsConstNumber() {
        if z {
            return p.Cond.Eval(x.ConstValue(), 0), true
        } else if y := p.In[1]; y.IsConstNumber() {
            return p.Cond.Eval(x.ConstValue(), y.ConstValue()), true
        }
    }

    /* zero test on a value range that excludes zero */
    if rx := rangeOf(x); rx != nil && z {
        if rx.Contains(0) {
            return false, false
        } else {
            return p.Cond.Eval(rx.Min, 0), true
        }
    }

    /* comparison between disjoint value ranges */
    if rx := rangeOf(x); rx != nil && !z {
        if ry := rangeOf(p.In[1]); ry == nil {
            return false, false
        } else if rx.Max >= ry.Min && ry.Max >= rx.Min {
            return false, false
        } else {
            return p.Cond.Eval(rx.Min, ry.Min), true
        }
    }

    /* references that are never null always compare unequal to zero */
    if z && x.Type == TObject && x.IsNeverNull() {
        return p.Cond.Eval(1, 0), true
    } else {
        return false, false
    }
}

func foldKnownBranch(cfg *CFG, bb *BasicBlock) {
    p := bb.Term.(*IrIf)
    v, ok := branchOutcome(p)

    /* the outcome is not known */
    if !ok {
        return
    }

    /* jump to the taken target directly */
    if v {
        rewriteIfToGoto(cfg, bb, p.True, p.False)
    } else {
        rewriteIfToGoto(cfg, bb, p.False, p.True)
    }

    statAdd(&_Stats.BranchesFolded, 1)
    logger.Debugf("condsimplify: folded branch in bb_%d to %v", bb.Id, v)
}

func rewriteIfToGoto(cfg *CFG, bb *BasicBlock, target int, dead int) {
    pos := bb.Term.Base().Pos
    cfg.SetTerm(bb, &IrGoto { IrBase: IrBase { Pos: pos }, Target: target })

    /* exceptional edges to the same block must stay */
    if dead != target && !bb.HasCatchTarget(dead) {
        cfg.RemoveEdge(bb.Id, dead)
        cfg.RemoveUnreachable()
    }
}

// isBooleanArm checks that a diamond arm only jumps, optionally after
// producing the constant 0 or 1.
func isBooleanArm(cfg *CFG, id int, from *BasicBlock) bool {
    bb := cfg.Block(id)
    nc := 0

    /* must be a plain block reached only from the branch */
    if len(bb.Phi) != 0 || bb.HasCatchHandlers() || len(bb.Pred) != 1 || bb.Pred[0] != from.Id {
        return false
    }

    /* must jump unconditionally */
    if _, ok := bb.Term.(*IrGoto); !ok {
        return false
    }

    /* debug positions may only repeat the position of the branch */
    for _, ins := range bb.Ins {
        switch p := ins.(type) {
            default: {
                return false
            }

            /* position markers */
            case *IrDebugPosition: {
                if p.Pos != from.Term.Base().Pos {
                    return false
                }
            }

            /* the constant 0 or 1 */
            case *IrConstNumber: {
                if nc++; nc > 1 || p.Out.Type != TInt || (p.V != 0 && p.V != 1) {
                    return false
                }
            }
        }
    }
    return true
}

func simplifyBooleanDiamond(cfg *CFG, bb *BasicBlock) bool {
    p := bb.Term.(*IrIf)
    x := p.In[0]

    /* must be a zero test of a boolean */
    if !p.IsZeroTest() || !x.KnownToBeBoolean() || (p.Cond != IfEQ && p.Cond != IfNE) {
        return false
    }

    /* both arms must be simple and distinct */
    if p.True == p.False || !isBooleanArm(cfg, p.True, bb) || !isBooleanArm(cfg, p.False, bb) {
        return false
    }

    /* both arms must merge into the same block */
    tb := cfg.Block(p.True)
    fb := cfg.Block(p.False)
    mb := cfg.Block(tb.Term.(*IrGoto).Target)

    /* the merge block has exactly these two predecessors */
    if fb.Term.(*IrGoto).Target != mb.Id || len(mb.Pred) != 2 {
        return false
    }

    /* find the operands of each arm */
    ti := mb.PredIndex(tb.Id)
    fi := mb.PredIndex(fb.Id)
    dead := make([]*Phi, 0, len(mb.Phi))

    /* rewrite the phis that merge the two constants */
    for _, phi := range append([]*Phi(nil), mb.Phi...) {
        tv := phi.Operands[ti]
        fv := phi.Operands[fi]

        /* both operands must be constants */
        if !tv.IsConstNumber() || !fv.IsConstNumber() {
            continue
        }

        /* check for polarity */
        t, f := tv.ConstValue(), fv.ConstValue()
        same := (p.Cond == IfEQ && t == 0 && f == 1) || (p.Cond == IfNE && t == 1 && f == 0)
        flip := (p.Cond == IfNE && t == 0 && f == 1) || (p.Cond == IfEQ && t == 1 && f == 0)

        /* the phi is the tested value itself */
        if same {
            phi.Out.ReplaceUsers(x)
            dead = append(dead, phi)
            continue
        }

        /* the phi is the inverse of the tested value */
        if flip {
            one := tv
            if f == 1 {
                one = fv
            }
            phi.Out.ReplaceUsers(invertBoolean(cfg, mb, x, one, phi.Out))
            dead = append(dead, phi)
        }
    }

    /* the replaced phis are now unused */
    for _, phi := range dead {
        cfg.RemovePhi(phi)
    }

    /* some phis still need the diamond */
    if len(mb.Phi) != 0 {
        return false
    }

    /* collapse the diamond into a single path */
    rewriteIfToGoto(cfg, bb, p.True, p.False)
    statAdd(&_Stats.DiamondsRemoved, 1)
    logger.Debugf("condsimplify: removed boolean diamond at bb_%d", bb.Id)
    return true
}

// invertBoolean emits x ^ 1 at the top of the merge block, copying the
// constant 1 when it lives in one of the arms.
func invertBoolean(cfg *CFG, mb *BasicBlock, x *Value, one *Value, old *Value) *Value {
    pos := blockPos(mb)
    idx := 0

    /* the arms are about to be removed */
    if !cfg.Dominators().Dominates(one.DefBlock(), mb.Id) {
        c := &IrConstNumber { V: 1 }
        c.Pos = pos
        c.Out = cfg.NewValue(TInt)
        cfg.Insert(mb, idx, c)
        one, idx = c.Out, idx + 1
    }

    /* build the xor */
    ins := &IrBinop { Op: OpXor }
    ins.Pos = pos
    ins.In = []*Value { x, one }
    ins.Out = cfg.NewValue(old.Type)
    ins.Out.Boolean = true
    ins.Out.Local = old.Local
    cfg.Insert(mb, idx, ins)
    return ins.Out
}
