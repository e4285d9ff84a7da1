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

type _CrEdge struct {
    to   int
    from int
}

// SplitCritical splits critical edges (those that go from a block with
// more than one outedge to a block with more than one inedge) by inserting
// an empty block.
//
// Rewrites that build new branching structure rely on this, so passes that
// follow never conflate values flowing along distinct exits. Exceptional
// edges are left alone.
type SplitCritical struct{}

func (SplitCritical) Apply(cfg *CFG) {
    var edges []_CrEdge

    /* find all critical edges */
    for _, bb := range cfg.Blocks() {
        if len(bb.Pred) > 1 {
            for _, p := range bb.Pred {
                pp := cfg.Block(p)

                /* the predecessor have more than 1 successors, this is a critcal edge */
                if len(pp.Succ()) > 1 && !pp.HasCatchTarget(bb.Id) {
                    edges = append(edges, _CrEdge {
                        to   : bb.Id,
                        from : p,
                    })
                }
            }
        }
    }

    /* insert empty block between the edges */
    for _, e := range edges {
        bb := cfg.CreateBlockAfter(e.from)
        cfg.SetTerm(bb, &IrGoto { Target: e.to })

        /* update the successor */
        cfg.Block(e.from).Term.ReplaceTarget(e.to, bb.Id)

        /* update the predecessor, phi operands stay with the edge */
        cfg.ReplacePred(e.to, e.from, bb.Id)
        cfg.AddEdge(e.from, bb.Id, nil)
    }

    /* update the statistics */
    statAdd(&_Stats.EdgesSplit, len(edges))
}
