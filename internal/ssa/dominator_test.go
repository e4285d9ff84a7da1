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

    `github.com/brianvoe/gofakeit/v6`
    `github.com/stretchr/testify/require`
    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`

    `github.com/cloudwego/shrinker/internal/types`
)

// randomGraph builds a graph of n blocks with random branches. Block 0 is
// the entry and is never a branch target.
func randomGraph(fk *gofakeit.Faker, n int) *CFG {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V", "I"))
    x := b.CFG().Args[0]
    bbs := []*BasicBlock { b.Block() }

    /* allocate the blocks */
    for i := 1; i < n; i++ {
        bbs = append(bbs, b.NewBlock())
    }

    /* terminate every block with a random jump */
    for _, bb := range bbs {
        b.SetBlock(bb)
        switch fk.Number(0, 3) {
            case 0: {
                b.Return(nil)
            }
            case 1: {
                b.Goto(bbs[fk.Number(1, n - 1)])
            }
            default: {
                t := bbs[fk.Number(1, n - 1)]
                f := bbs[fk.Number(1, n - 1)]
                b.If(IfNE, x, nil, t, f)
            }
        }
    }
    return b.Build()
}

func referenceDominators(cfg *CFG) flow.DominatorTree {
    g := simple.NewDirectedGraph()
    for _, bb := range cfg.Blocks() {
        g.AddNode(simple.Node(bb.Id))
    }

    /* gonum does not allow self edges, they never change dominance */
    for _, bb := range cfg.Blocks() {
        for _, s := range bb.Succ() {
            if s != bb.Id {
                g.SetEdge(simple.Edge { F: simple.Node(bb.Id), T: simple.Node(s) })
            }
        }
    }
    return flow.Dominators(simple.Node(cfg.Entry().Id), g)
}

func TestDominatorTree_Diamond(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V", "I"))
    x := b.CFG().Args[0]
    bt := b.NewBlock()
    bf := b.NewBlock()
    bm := b.NewBlock()
    b.If(IfEQ, x, nil, bt, bf)
    b.SetBlock(bt)
    b.Goto(bm)
    b.SetBlock(bf)
    b.Goto(bm)
    b.SetBlock(bm)
    b.Return(nil)
    cfg := b.Build()
    dt := cfg.Dominators()
    require.Equal(t, -1, dt.ImmediateDominator(0))
    require.Equal(t, 0, dt.ImmediateDominator(bm.Id))
    require.True(t, dt.Dominates(0, bm.Id))
    require.True(t, dt.Dominates(bm.Id, bm.Id))
    require.False(t, dt.StrictlyDominates(bm.Id, bm.Id))
    require.False(t, dt.Dominates(bt.Id, bm.Id))
    require.Equal(t, 0, dt.ClosestDominator(bt.Id, bf.Id))
    require.Equal(t, bt.Id, dt.ClosestDominator(bt.Id))
    require.Equal(t, 0, dt.PreOrder()[0])
    require.Equal(t, 0, dt.ReversePostOrder()[0])
    require.Equal(t, bm.Id, dt.ReversePostOrder()[3])
    require.Same(t, dt, cfg.Dominators())
    require.Panics(t, func() { dt.ClosestDominator() })
}

func TestDominatorTree_Invalidate(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V"))
    b.Return(nil)
    cfg := b.Build()
    dt := cfg.Dominators()
    cfg.Invalidate()
    require.NotSame(t, dt, cfg.Dominators())
}

func TestDominatorTree_Random(t *testing.T) {
    fk := gofakeit.New(20221019)
    for i := 0; i < 200; i++ {
        cfg := randomGraph(fk, fk.Number(2, 24))
        dt := cfg.Dominators()
        ref := referenceDominators(cfg)

        /* compare the immediate dominators of every reachable block */
        for _, bb := range cfg.Blocks() {
            if !dt.Reachable(bb.Id) {
                continue
            }

            /* the root has no dominator */
            d := ref.DominatorOf(int64(bb.Id))
            if bb.Id == cfg.Entry().Id {
                require.Equal(t, -1, dt.ImmediateDominator(bb.Id))
                continue
            }

            /* must be the same as gonum */
            require.NotNil(t, d, "bb_%d", bb.Id)
            require.Equal(t, int(d.ID()), dt.ImmediateDominator(bb.Id), "bb_%d in\n%s", bb.Id, cfg)
        }

        /* every block comes after all of its dominators in preorder */
        seen := make(map[int]bool)
        for _, id := range dt.PreOrder() {
            if d := dt.ImmediateDominator(id); d >= 0 {
                require.True(t, seen[d])
                require.True(t, dt.StrictlyDominates(d, id))
            }
            seen[id] = true
        }
    }
}

func TestMarks_Pool(t *testing.T) {
    tf := types.NewFactory()
    b := NewBuilder(tf, newMethod(tf, "f", "V"))
    b.Return(nil)
    cfg := b.Build()

    /* all the sets are handed out */
    m1 := cfg.AcquireMarks()
    m2 := cfg.AcquireMarks()
    m3 := cfg.AcquireMarks()
    require.Panics(t, func() { cfg.AcquireMarks() })

    /* sets are independent */
    require.True(t, m1.Mark(0))
    require.False(t, m1.Mark(0))
    require.False(t, m2.IsMarked(0))
    require.True(t, m3.Mark(42))
    m1.Unmark(0)
    require.False(t, m1.IsMarked(0))

    /* released sets come back empty */
    m3.Release()
    m4 := cfg.AcquireMarks()
    require.Same(t, m3, m4)
    require.False(t, m4.IsMarked(42))
    m4.Release()

    /* misuse is caught */
    require.Panics(t, func() { m4.Release() })
    require.Panics(t, func() { m4.Mark(1) })
    require.Panics(t, func() { m4.IsMarked(1) })
    m1.Release()
    m2.Release()
}
