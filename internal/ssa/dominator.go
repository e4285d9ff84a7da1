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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 */

package ssa

import (
    `github.com/oleiade/lane`
)

type _LtNode struct {
    semi     int
    node     int
    dom      *_LtNode
    label    *_LtNode
    parent   *_LtNode
    ancestor *_LtNode
    pred     []*_LtNode
    bucket   map[*_LtNode]struct{}
}

type _LengauerTarjan struct {
    cfg    *CFG
    nodes  []*_LtNode
    vertex map[int]int
    post   []int
}

func newLengauerTarjan(cfg *CFG) *_LengauerTarjan {
    return &_LengauerTarjan {
        cfg    : cfg,
        vertex : make(map[int]int),
    }
}

func (self *_LengauerTarjan) dfs(id int) {
    i := len(self.nodes)
    self.vertex[id] = i

    /* create a new node */
    p := &_LtNode {
        semi   : i,
        node   : id,
        bucket : make(map[*_LtNode]struct{}),
    }

    /* add to node list */
    p.label = p
    self.nodes = append(self.nodes, p)

    /* traverse the successors, including the exceptional ones */
    for _, w := range self.cfg.Block(id).Succ() {
        idx, ok := self.vertex[w]

        /* not visited yet */
        if !ok {
            self.dfs(w)
            idx = self.vertex[w]
            self.nodes[idx].parent = p
        }

        /* add predecessors */
        q := self.nodes[idx]
        q.pred = append(q.pred, p)
    }

    /* all successors are done */
    self.post = append(self.post, id)
}

func (self *_LengauerTarjan) eval(p *_LtNode) *_LtNode {
    if p.ancestor == nil {
        return p
    } else {
        self.compress(p)
        return p.label
    }
}

func (self *_LengauerTarjan) link(p *_LtNode, q *_LtNode) {
    q.ancestor = p
}

func (self *_LengauerTarjan) compress(p *_LtNode) {
    if p.ancestor.ancestor != nil {
        self.compress(p.ancestor)
        if p.label.semi > p.ancestor.label.semi { p.label = p.ancestor.label }
        p.ancestor = p.ancestor.ancestor
    }
}

// DominatorTree is an immutable snapshot of the dominance relation of a CFG
// at a given generation. Blocks unreachable from the entry are not part of
// the tree.
type DominatorTree struct {
    Root  int
    gen   uint64
    idom  []int
    kids  [][]int
    rpo   []int
    rpn   []int
    pre   []int
    post  []int
    order []int
}

func minInt(a int, b int) int {
    if a < b {
        return a
    } else {
        return b
    }
}

func BuildDominatorTree(cfg *CFG) *DominatorTree {
    nb := cfg.MaxBlock()
    root := cfg.Order[0]

    /* Step 1: Carry out a depth-first search of the problem graph. Number the vertices
     * from 1 to n as they are reached during the search. Initialize the variables used
     * in succeeding steps. */
    lt := newLengauerTarjan(cfg)
    lt.dfs(root)

    /* perform Step 2 and Step 3 simultaneously */
    for i := len(lt.nodes) - 1; i > 0; i-- {
        p := lt.nodes[i]
        q := (*_LtNode)(nil)

        /* Step 2: Compute the semidominators of all vertices by applying Theorem 4.
         * Carry out the computation vertex by vertex in decreasing order by number. */
        for _, v := range p.pred {
            q = lt.eval(v)
            p.semi = minInt(p.semi, q.semi)
        }

        /* link the ancestor */
        lt.link(p.parent, p)
        lt.nodes[p.semi].bucket[p] = struct{}{}

        /* Step 3: Implicitly define the immediate dominator of each vertex by applying Corollary 1 */
        for v := range p.parent.bucket {
            if q = lt.eval(v); q.semi < v.semi {
                v.dom = q
            } else {
                v.dom = p.parent
            }
        }

        /* clear the bucket */
        for v := range p.parent.bucket {
            delete(p.parent.bucket, v)
        }
    }

    /* Step 4: Explicitly define the immediate dominator of each vertex, carrying out the
     * computation vertex by vertex in increasing order by number. */
    for _, p := range lt.nodes[1:] {
        if p.dom.node != lt.nodes[p.semi].node {
            p.dom = p.dom.dom
        }
    }

    /* construct the dominator tree */
    dt := &DominatorTree {
        Root : root,
        gen  : cfg.gen,
        idom : make([]int, nb),
        kids : make([][]int, nb),
        rpn  : make([]int, nb),
        pre  : make([]int, nb),
        post : make([]int, nb),
        rpo  : make([]int, 0, len(lt.post)),
    }

    /* unreachable blocks have no dominators */
    for i := 0; i < nb; i++ {
        dt.idom[i] = -1
        dt.rpn[i] = -1
    }

    /* map the dominator relations */
    for _, p := range lt.nodes[1:] {
        dt.idom[p.node] = p.dom.node
        dt.kids[p.dom.node] = append(dt.kids[p.dom.node], p.node)
    }

    /* reverse post-order numbering */
    for i := len(lt.post) - 1; i >= 0; i-- {
        dt.rpn[lt.post[i]] = len(dt.rpo)
        dt.rpo = append(dt.rpo, lt.post[i])
    }

    /* number the tree for constant time dominance queries */
    dt.number()
    return dt
}

func (self *DominatorTree) number() {
    nr := 0
    st := lane.NewStack()
    vis := make(map[int]bool, len(self.rpo))

    /* iterative depth first traversal of the dominator tree */
    for st.Push(self.Root); !st.Empty(); {
        id := st.Head().(int)

        /* first visit, assign the preorder number */
        if !vis[id] {
            vis[id] = true
            self.pre[id] = nr
            self.order = append(self.order, id)
            nr++

            /* push the children in reverse, so they come out in order */
            for i := len(self.kids[id]) - 1; i >= 0; i-- {
                st.Push(self.kids[id][i])
            }
            continue
        }

        /* all children are done */
        st.Pop()
        self.post[id] = nr
    }
}

// Reachable reports whether the block is part of the tree.
func (self *DominatorTree) Reachable(id int) bool {
    return id < len(self.rpn) && self.rpn[id] >= 0
}

// ImmediateDominator returns the immediate dominator of a block, or -1 for
// the root.
func (self *DominatorTree) ImmediateDominator(id int) int {
    return self.idom[id]
}

// Dominates reports whether a dominates b. Every block dominates itself.
func (self *DominatorTree) Dominates(a int, b int) bool {
    if !self.Reachable(a) || !self.Reachable(b) {
        return false
    } else {
        return self.pre[a] <= self.pre[b] && self.post[b] <= self.post[a]
    }
}

// StrictlyDominates reports whether a dominates b and a != b.
func (self *DominatorTree) StrictlyDominates(a int, b int) bool {
    return a != b && self.Dominates(a, b)
}

// ReversePostOrder returns all the reachable blocks in reverse post-order.
func (self *DominatorTree) ReversePostOrder() []int {
    return self.rpo
}

// PreOrder returns the blocks in dominator tree pre-order, so every block
// comes after all of its dominators.
func (self *DominatorTree) PreOrder() []int {
    return self.order
}

// ClosestDominator returns the deepest block that dominates all the given
// blocks.
func (self *DominatorTree) ClosestDominator(ids ...int) int {
    if len(ids) == 0 {
        panic("ssa: closest dominator of an empty set of blocks")
    }

    /* intersect them one by one */
    ret := ids[0]
    for _, id := range ids[1:] {
        ret = self.intersect(ret, id)
    }
    return ret
}

func (self *DominatorTree) intersect(a int, b int) int {
    if !self.Reachable(a) || !self.Reachable(b) {
        panic("ssa: dominator query on unreachable block")
    }

    /* walk up the tree, dominators always have smaller RPO numbers */
    for a != b {
        for self.rpn[a] > self.rpn[b] { a = self.idom[a] }
        for self.rpn[b] > self.rpn[a] { b = self.idom[b] }
    }
    return a
}
