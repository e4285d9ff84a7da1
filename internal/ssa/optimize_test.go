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

    `github.com/cloudwego/shrinker/internal/opts`
    `github.com/cloudwego/shrinker/internal/types`
)

func TestPipeline_Passes(t *testing.T) {
    o := opts.GetDefaultOptions()
    require.Equal(t, PassNames(), NewPipeline(&o, NoOracle{}).Passes())
    o.DisabledPasses = []string { "cse", "gotos" }
    pl := NewPipeline(&o, NoOracle{})
    require.NotContains(t, pl.Passes(), "cse")
    require.NotContains(t, pl.Passes(), "gotos")
    require.Len(t, pl.Passes(), len(PassNames()) - 2)
}

func TestPipeline_BooleanDiamond(t *testing.T) {
    o := opts.GetDefaultOptions()
    o.VerifyPasses = true
    cfg, _, _, bm := diamond(t, IfNE, 1, 0)
    before := GetCounters()
    NewPipeline(&o, NoOracle{}).Run(cfg)
    mustVerify(t, cfg)
    require.NoError(t, CheckTrivialGotos(cfg))

    /* the whole method is a single return of the argument */
    require.Equal(t, []int { 0, bm.Id }, cfg.Order)
    require.Same(t, cfg.Args[0], returnOf(cfg, bm))
    require.Empty(t, bm.Ins)

    /* counters only grow */
    after := GetCounters()
    require.Greater(t, after.Methods, before.Methods)
    require.Greater(t, after.DiamondsRemoved, before.DiamondsRemoved)
}

func TestPipeline_SwitchAndConstants(t *testing.T) {
    o := opts.GetDefaultOptions()
    o.VerifyPasses = true
    keys := append([]int32 { 1, 2, 3, 10 }, rangeKeys(50, 60)...)
    targets := make([]int, len(keys))
    for i := range targets { targets[i] = i % 3 }
    cfg, bbs, def := switchGraph(keys, targets, 3)
    NewPipeline(&o, NoOracle{}).Run(cfg)
    mustVerify(t, cfg)
    require.NoError(t, CheckTrivialGotos(cfg))
    for i, k := range keys {
        require.Equal(t, bbs[targets[i]].Id, dispatch(t, cfg, int64(k)))
    }
    require.Equal(t, def.Id, dispatch(t, cfg, 0))
}

func TestPipeline_Oracle(t *testing.T) {
    o := opts.GetDefaultOptions()
    o.VerifyPasses = true
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", types.ObjectDesc, types.StringDesc))
    x := b.CFG().Args[0]
    check := newMethod(tf, "check", types.StringDesc, types.StringDesc)
    bt := b.NewBlock()
    bf := b.NewBlock()
    r := b.Invoke(InvokeStatic, check, x)
    b.If(IfEQ, b.NonNull(r), nil, bt, bf)
    b.SetBlock(bt)
    b.Return(b.Null())
    b.SetBlock(bf)
    b.Return(r)
    cfg := b.Build()

    /* the call returns its argument, which is then proven non-null */
    oracle := _FakeOracle { args: map[string]int { "check": 0 } }
    vt := NewPipeline(&o, oracle).Run(cfg)
    mustVerify(t, cfg)
    require.False(t, cfg.HasBlock(bt.Id))
    require.Same(t, tf.String, vt[returnOf(cfg, cfg.Block(cfg.Order[len(cfg.Order) - 1]))])
}
