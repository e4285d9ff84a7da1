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
    `bytes`
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/cloudwego/shrinker/internal/types`
)

func diamond(t *testing.T, cond IfType, tv int64, fv int64) (*CFG, *BasicBlock, *BasicBlock, *BasicBlock) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "Z", "Z"))
    x := b.CFG().Args[0]
    bt := b.NewBlock()
    bf := b.NewBlock()
    bm := b.NewBlock()
    b.If(cond, x, nil, bt, bf)
    b.SetBlock(bt)
    c1 := b.Const(TInt, tv)
    b.Goto(bm)
    b.SetBlock(bf)
    c2 := b.Const(TInt, fv)
    b.Goto(bm)
    b.SetBlock(bm)
    b.Return(b.Phi(bm, TInt, c1, c2))
    cfg := b.Build()
    mustVerify(t, cfg)
    return cfg, bt, bf, bm
}

func TestVerify_MissingPredecessor(t *testing.T) {
    cfg, bt, _, bm := diamond(t, IfNE, 1, 0)
    bm.Pred[0] = bm.Pred[1]
    require.Error(t, cfg.Verify())
    bm.Pred[0] = bt.Id
    require.NoError(t, cfg.Verify())
}

func TestVerify_PhiArity(t *testing.T) {
    cfg, _, _, bm := diamond(t, IfNE, 1, 0)
    phi := bm.Phi[0]
    phi.Operands = phi.Operands[:1]
    require.ErrorContains(t, cfg.Verify(), "operands")
}

func TestVerify_UseBeforeDefinition(t *testing.T) {
    cfg, bt, _, _ := diamond(t, IfNE, 1, 0)
    c := bt.Ins[0].(*IrConstNumber)
    neg := &IrUnop { Op: OpNeg }
    neg.In = []*Value { c.Out }
    neg.Out = cfg.NewValue(TInt)
    cfg.Insert(bt, 0, neg)
    require.ErrorContains(t, cfg.Verify(), "before its definition")
}

func TestVerify_NotDominated(t *testing.T) {
    cfg, bt, bf, _ := diamond(t, IfNE, 1, 0)
    c := bt.Ins[0].(*IrConstNumber)
    neg := &IrUnop { Op: OpNeg }
    neg.In = []*Value { c.Out }
    neg.Out = cfg.NewValue(TInt)
    cfg.Append(bf, neg)
    require.ErrorContains(t, cfg.Verify(), "not dominated")
    require.Panics(t, func() { cfg.MustVerify("test") })
}

func TestVerify_UnreachableBlock(t *testing.T) {
    cfg, _, _, _ := diamond(t, IfNE, 1, 0)
    bb := cfg.CreateBlock()
    cfg.SetTerm(bb, new(IrReturn))
    require.ErrorContains(t, cfg.Verify(), "unreachable")
    require.Equal(t, 1, cfg.RemoveUnreachable())
    require.NoError(t, cfg.Verify())
}

func TestVerify_StaleUser(t *testing.T) {
    cfg, bt, _, _ := diamond(t, IfNE, 1, 0)
    x := cfg.Args[0]
    neg := &IrUnop { Op: OpNeg }
    neg.In = []*Value { x }
    neg.Out = cfg.NewValue(TInt)
    cfg.Append(bt, neg)
    bt.Ins = bt.Ins[:len(bt.Ins) - 1]
    require.ErrorContains(t, cfg.Verify(), "stale user")
}

func TestVerify_ImpreciseArgument(t *testing.T) {
    cfg, _, _, _ := diamond(t, IfNE, 1, 0)
    x := cfg.Args[0]
    x.Type = TIntOrFloat
    require.ErrorContains(t, cfg.Verify(), "imprecise type")
    x.Type = TInt
    require.NoError(t, cfg.Verify())
}

func TestWriteDot(t *testing.T) {
    buf := bytes.NewBuffer(nil)
    cfg, bt, bf, bm := diamond(t, IfNE, 1, 0)
    require.NoError(t, WriteDot(buf, cfg))
    out := buf.String()
    require.Contains(t, out, "digraph CFG {")
    require.Contains(t, out, "START -> bb_0")
    require.Contains(t, out, `bb_0 -> bb_1 [ label = "true" ]`)
    require.Contains(t, out, `bb_0 -> bb_2 [ label = "false" ]`)
    require.Contains(t, out, "#&nbsp;idom&nbsp;=&nbsp;bb_0")
    require.Contains(t, out, "φ")
    require.Equal(t, 1, bt.Id)
    require.Equal(t, 2, bf.Id)
    require.Equal(t, 3, bm.Id)
}
