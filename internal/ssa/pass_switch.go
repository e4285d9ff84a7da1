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
    `github.com/cloudwego/shrinker/internal/opts`
)

// partitionKeys splits sorted switch keys into runs of consecutive keys
// and isolated outliers.
func partitionKeys(keys []int32) (seqs [][]int32, outliers []int32) {
    cur := []int32 { keys[0] }
    prev := keys[0]

    /* flushes the current run */
    flush := func() {
        if len(cur) == 1 {
            outliers = append(outliers, cur[0])
        } else {
            seqs = append(seqs, cur)
        }
    }

    /* scan every key */
    for _, k := range keys[1:] {
        if int64(k) - int64(prev) > 1 {
            flush()
            cur = nil
        }
        cur = append(cur, k)
        prev = k
    }

    /* the last run */
    flush()
    return
}

type _SwitchPlan struct {
    ifs      []int32
    switches [][]int32
    size     int64
}

// SwitchRewrite replaces switches by cheaper equivalents. A switch with a
// single key becomes an if, a switch with sparse keys may be split into a
// chain of ifs and smaller switches, whichever the cost model estimates to
// be the smallest.
type SwitchRewrite struct {
    Cost        opts.CostModel
    MaxRewrites int
}

func (self SwitchRewrite) Apply(cfg *CFG) {
    done := true

    /* scan every switch */
    for _, id := range append([]int(nil), cfg.Order...) {
        bb := cfg.Block(id)
        sw, ok := bb.Term.(*IrSwitch)

        /* rewrite the switch if possible */
        if !ok {
            continue
        } else if len(sw.Keys) == 1 {
            done = false
            self.rewriteSingle(cfg, bb, sw)
        } else if plan := self.plan(sw); plan != nil {
            done = false
            self.rewriteChain(cfg, bb, sw, plan)
        }
    }

    /* the new branching structure may introduce critical edges */
    if !done {
        SplitCritical{}.Apply(cfg)
    }
}

func (self SwitchRewrite) rewriteSingle(cfg *CFG, bb *BasicBlock, sw *IrSwitch) {
    key := sw.Keys[0]
    pos := sw.Pos
    val := sw.In[0]

    /* both paths lead to the same block */
    if sw.Cases[0] == sw.Default {
        cfg.SetTerm(bb, &IrGoto { IrBase: IrBase { Pos: pos }, Target: sw.Default })
        statAdd(&_Stats.SwitchesToIf, 1)
        return
    }

    /* compare against the key */
    ins := &IrIf {
        IrBase : IrBase { Pos: pos, In: []*Value { val } },
        Cond   : IfEQ,
        True   : sw.Cases[0],
        False  : sw.Default,
    }

    /* non-zero keys must be materialized right before the test */
    if key != 0 {
        ins.In = append(ins.In, self.constant(cfg, bb, pos, key))
    }

    /* replace the terminator, the successors are the same */
    cfg.SetTerm(bb, ins)
    statAdd(&_Stats.SwitchesToIf, 1)
}

func (self SwitchRewrite) constant(cfg *CFG, bb *BasicBlock, pos Pos, key int32) *Value {
    ins := &IrConstNumber { V: int64(key) }
    ins.Pos = pos
    ins.Out = cfg.NewValue(TInt)
    cfg.Append(bb, ins)
    return ins.Out
}

func (self SwitchRewrite) plan(sw *IrSwitch) *_SwitchPlan {
    var ret *_SwitchPlan
    cm := &self.Cost
    seqs, outliers := partitionKeys(sw.Keys)
    best := switchSize(cm, sw.Keys)

    /* one if for each outlier, plus one switch per run */
    if len(outliers) + len(seqs) <= self.MaxRewrites {
        size := int64(cm.SwitchSize) * int64(len(seqs))

        /* the ifs and their constants */
        for _, k := range outliers {
            if size += int64(cm.IfSize); k != 0 {
                size += constSize(cm, TInt, int64(k))
            }
        }

        /* payloads of the runs */
        for _, s := range seqs {
            size += payloadSize(cm, s)
        }

        /* check if this is better */
        if size < best {
            best = size
            ret = &_SwitchPlan { ifs: outliers, switches: seqs, size: size }
        }
    }

    /* one switch per run, plus one sparse switch for all the outliers */
    if len(outliers) > 1 {
        size := payloadSize(cm, outliers)
        size += int64(cm.SwitchSize) * int64(len(seqs) + 1)

        /* payloads of the runs */
        for _, s := range seqs {
            size += payloadSize(cm, s)
        }

        /* check if this is better */
        if size < best {
            ret = &_SwitchPlan { switches: append(append([][]int32(nil), seqs...), outliers), size: size }
        }
    }

    /* nothing beats the original */
    if ret == nil {
        logger.Debugf("switch: keeping %d keys, estimated size %d", len(sw.Keys), best)
    }
    return ret
}

func (self SwitchRewrite) rewriteChain(cfg *CFG, bb *BasicBlock, sw *IrSwitch, plan *_SwitchPlan) {
    pos := sw.Pos
    val := sw.In[0]
    fall := sw.Default
    ops := make(map[int][]*Value)

    /* remember the phi operands of every outgoing edge */
    for _, s := range sw.Targets() {
        ops[s] = cfg.EdgeOperands(bb.Id, s)
    }

    /* detach the switch from its targets */
    for _, s := range sw.Targets() {
        if !bb.HasCatchTarget(s) {
            cfg.RemoveEdge(bb.Id, s)
        }
    }

    /* links a new block to all its targets */
    link := func(nb *BasicBlock) {
        for _, s := range nb.Term.Targets() {
            cfg.AddEdge(nb.Id, s, ops[s])
        }
    }

    /* build the switch blocks backwards, to always have the fall-through block in hand */
    for i := len(plan.switches) - 1; i >= 0; i-- {
        nb := cfg.CreateBlockAfter(bb.Id)
        ins := &IrSwitch { Default: fall }
        ins.In = []*Value { val }
        ins.Pos = pos

        /* add the keys */
        for _, k := range plan.switches[i] {
            ins.Keys = append(ins.Keys, k)
            ins.Cases = append(ins.Cases, sw.TargetFor(k))
        }

        /* terminate the block */
        cfg.SetTerm(nb, ins)
        link(nb)
        fall = nb.Id
    }

    /* build the if blocks backwards as well */
    for i := len(plan.ifs) - 1; i >= 0; i-- {
        key := plan.ifs[i]
        nb := cfg.CreateBlockAfter(bb.Id)
        ins := &IrIf { Cond: IfEQ, True: sw.TargetFor(key), False: fall }
        ins.In = []*Value { val }
        ins.Pos = pos

        /* non-zero keys need a constant */
        if key != 0 {
            ins.In = append(ins.In, self.constant(cfg, nb, pos, key))
        }

        /* terminate the block */
        cfg.SetTerm(nb, ins)
        link(nb)
        fall = nb.Id
    }

    /* finally link the original block to the new chain */
    cfg.SetTerm(bb, &IrGoto { IrBase: IrBase { Pos: pos }, Target: fall })
    cfg.AddEdge(bb.Id, fall, nil)

    /* update the statistics */
    statAdd(&_Stats.SwitchesSplit, 1)
    logger.Debugf("switch: split %d keys in bb_%d into %d ifs and %d switches, estimated size %d", len(sw.Keys), bb.Id, len(plan.ifs), len(plan.switches), plan.size)
}
