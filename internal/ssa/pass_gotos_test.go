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
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/cloudwego/shrinker/internal/types`
)

func collapseTwice(t *testing.T, cfg *CFG) {
    GotoCollapse{}.Apply(cfg)
    mustVerify(t, cfg)
    require.NoError(t, CheckTrivialGotos(cfg))

    /* a second run must not change anything */
    ss := cfg.String()
    GotoCollapse{}.Apply(cfg)
    require.Equal(t, ss, cfg.String())
}

func TestGotos_BranchChain(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V", "I"))
    x := b.CFG().Args[0]
    ba := b.NewBlock()
    bb := b.NewBlock()
    bc := b.NewBlock()
    bd := b.NewBlock()
    b.If(IfGT, x, nil, ba, bb)
    b.SetBlock(ba)
    b.DebugPosition()
    b.Goto(bc)
    b.SetBlock(bc)
    b.Goto(bd)
    b.SetBlock(bd)
    b.Return(nil)
    b.SetBlock(bb)
    b.Return(nil)
    cfg := b.Build()
    mustVerify(t, cfg)
    require.Error(t, CheckTrivialGotos(cfg))

    /* the branch goes to the end of the chain directly */
    collapseTwice(t, cfg)
    require.Equal(t, bd.Id, cfg.Entry().Term.(*IrIf).True)
    require.False(t, cfg.HasBlock(ba.Id))
    require.False(t, cfg.HasBlock(bc.Id))
    require.Equal(t, []int { 0 }, bd.Pred)
}

func TestGotos_PhiConflict(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "I", "I"))
    x := b.CFG().Args[0]
    c0 := b.Const(TInt, 0)
    c1 := b.Const(TInt, 1)
    ba := b.NewBlock()
    bm := b.NewBlock()
    b.If(IfNE, x, nil, ba, bm)
    b.SetBlock(ba)
    b.Goto(bm)
    b.SetBlock(bm)
    b.Return(b.Phi(bm, TInt, c0, c1))
    cfg := b.Build()

    /* the trivial block carries a different operand */
    collapseTwice(t, cfg)
    require.True(t, cfg.HasBlock(ba.Id))
    require.Equal(t, ba.Id, cfg.Entry().Term.(*IrIf).True)
}

func TestGotos_SameOperands(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "I", "I"))
    x := b.CFG().Args[0]
    c0 := b.Const(TInt, 0)
    ba := b.NewBlock()
    bm := b.NewBlock()
    b.If(IfNE, x, nil, ba, bm)
    b.SetBlock(ba)
    b.Goto(bm)
    b.SetBlock(bm)
    v := b.Phi(bm, TInt, c0, c0)
    b.Return(v)
    cfg := b.Build()

    /* both paths carry the same value, the branch is gone */
    collapseTwice(t, cfg)
    require.False(t, cfg.HasBlock(ba.Id))
    require.Equal(t, &IrGoto { Target: bm.Id }, cfg.Entry().Term)
    require.Equal(t, []*Value { c0 }, v.Phi().Operands)
}

func TestGotos_FallthroughTarget(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V", "I"))
    x := b.CFG().Args[0]
    bg := b.NewBlock()
    br := b.NewBlock()
    bx := b.NewBlock()
    b.If(IfEQ, x, nil, br, bg)
    b.SetBlock(bg)
    b.Goto(bx)
    b.SetBlock(br)
    b.Return(nil)
    b.SetBlock(bx)
    b.Return(nil)
    cfg := b.Build()

    /* the fall-through block cannot go away without reordering */
    collapseTwice(t, cfg)
    require.True(t, cfg.HasBlock(bg.Id))
    require.Equal(t, bg.Id, cfg.Entry().Term.(*IrIf).False)
}

func TestGotos_FallthroughToNext(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V", "I"))
    x := b.CFG().Args[0]
    bg := b.NewBlock()
    bx := b.NewBlock()
    br := b.NewBlock()
    b.If(IfEQ, x, nil, br, bg)
    b.SetBlock(bg)
    b.Goto(bx)
    b.SetBlock(bx)
    b.Return(nil)
    b.SetBlock(br)
    b.Return(nil)
    cfg := b.Build()

    /* the target is laid out right after the goto, so the edge can move */
    collapseTwice(t, cfg)
    require.False(t, cfg.HasBlock(bg.Id))
    require.Equal(t, bx.Id, cfg.Entry().Term.(*IrIf).False)
}

func TestGotos_SwitchCases(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V", "I"))
    x := b.CFG().Args[0]
    b1 := b.NewBlock()
    b2 := b.NewBlock()
    bx := b.NewBlock()
    def := b.NewBlock()
    b.Switch(x, []int32 { 1, 2 }, []*BasicBlock { b1, b2 }, def)
    b.SetBlock(b1)
    b.Goto(bx)
    b.SetBlock(b2)
    b.Goto(bx)
    b.SetBlock(bx)
    b.Return(nil)
    b.SetBlock(def)
    b.Return(nil)
    cfg := b.Build()

    /* both cases lead to the same block now */
    collapseTwice(t, cfg)
    sw := cfg.Entry().Term.(*IrSwitch)
    require.Equal(t, []int { bx.Id, bx.Id }, sw.Cases)
    require.Equal(t, []int { 0 }, bx.Pred)
    require.False(t, cfg.HasBlock(b1.Id))
    require.False(t, cfg.HasBlock(b2.Id))
}

func TestGotos_Loop(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V"))
    ba := b.NewBlock()
    bb := b.NewBlock()
    b.Goto(ba)
    b.SetBlock(ba)
    b.Goto(bb)
    b.SetBlock(bb)
    b.Goto(ba)
    cfg := b.Build()

    /* the loop shrinks down to a single block */
    collapseTwice(t, cfg)
    require.Len(t, cfg.Order, 2)
    tr := cfg.Entry().Term.(*IrGoto).Target
    require.Equal(t, tr, cfg.Block(tr).Term.(*IrGoto).Target)
}

func TestGotos_CatchTarget(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V", "I"))
    m := newMethod(tf, "g", "V")
    bh := b.NewBlock()
    bn := b.NewBlock()
    bx := b.NewBlock()
    b.Invoke(InvokeStatic, m)
    b.Catch(nil, bh)
    b.Goto(bn)
    b.SetBlock(bh)
    b.Goto(bx)
    b.SetBlock(bn)
    b.Return(nil)
    b.SetBlock(bx)
    b.Return(nil)
    cfg := b.Build()

    /* handlers are never bypassed */
    collapseTwice(t, cfg)
    require.True(t, cfg.HasBlock(bh.Id))
    require.True(t, cfg.Entry().HasCatchTarget(bh.Id))
}
