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
    `html`
    `io`
    `strings`

    `github.com/oleiade/lane`
)

type _DotEdge struct {
    from  int
    to    int
    label string
}

func dotrows(ss string, w *int) []string {
    var ret []string
    for _, s := range strings.Split(ss, "\n") {
        vv := strings.ReplaceAll(html.EscapeString(s), " ", "&nbsp;")
        ret = append(ret, fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", vv))
        if len(s) > *w {
            *w = len(s)
        }
    }
    return ret
}

func dotbb(bb *BasicBlock, dt *DominatorTree) string {
    var w int
    var phi []string
    var ins []string
    var meta []string

    /* dump phis and instructions */
    for _, v := range bb.Phi { phi = append(phi, dotrows(v.Describe(bb.Pred), &w)...) }
    for _, v := range bb.Ins { ins = append(ins, dotrows(v.String(), &w)...) }

    /* dominator information */
    idom := "∅"
    if d := dt.ImmediateDominator(bb.Id); d >= 0 {
        idom = fmt.Sprintf("bb_%d", d)
    }

    /* block metadata */
    meta = append(meta, dotrows(fmt.Sprintf("# pred = %v", bb.Pred), &w)...)
    meta = append(meta, dotrows("# idom = " + idom, &w)...)
    term := dotrows(bb.Term.String(), &w)

    /* build the table */
    buf := []string {
        "<table border=\"1\" cellborder=\"0\" cellspacing=\"0\">\n",
        fmt.Sprintf("<tr><td width=\"%d\">bb_%d</td></tr>\n", w * 10 + 5, bb.Id),
        "<hr/>\n",
    }

    /* add all the sections */
    buf = append(buf, meta...)
    for _, sec := range [][]string { phi, ins, term } {
        if len(sec) != 0 {
            buf = append(buf, "<hr/>\n")
            buf = append(buf, sec...)
        }
    }

    /* close the table */
    buf = append(buf, "</table>")
    return strings.Join(buf, "")
}

func dotedges(bb *BasicBlock) []_DotEdge {
    var ret []_DotEdge
    switch p := bb.Term.(type) {
        case *IrGoto: {
            ret = append(ret, _DotEdge { bb.Id, p.Target, "goto" })
        }

        /* conditional branches */
        case *IrIf: {
            ret = append(ret, _DotEdge { bb.Id, p.True, "true" })
            ret = append(ret, _DotEdge { bb.Id, p.False, "false" })
        }

        /* switches */
        case *IrSwitch: {
            for i, k := range p.Keys {
                ret = append(ret, _DotEdge { bb.Id, p.Cases[i], fmt.Sprint(k) })
            }
            ret = append(ret, _DotEdge { bb.Id, p.Default, "otherwise" })
        }
    }

    /* exceptional edges */
    for _, h := range bb.Catch {
        if h.Guard == nil {
            ret = append(ret, _DotEdge { bb.Id, h.Target, "catch *" })
        } else {
            ret = append(ret, _DotEdge { bb.Id, h.Target, "catch " + h.Guard.Name() })
        }
    }
    return ret
}

// WriteDot writes the reachable part of the graph in Graphviz format.
func WriteDot(w io.Writer, cfg *CFG) error {
    q := lane.NewQueue()
    n := make(map[int]bool)
    dt := cfg.Dominators()
    buf := []string {
        "digraph CFG {",
        `    xdotversion = "15"`,
        `    graph [ fontname = "Fira Code" ]`,
        `    node [ fontname = "Fira Code" fontsize="16" shape = "plaintext" ]`,
        `    edge [ fontname = "Fira Code" ]`,
        `    START [ shape = "circle" ]`,
        fmt.Sprintf(`    START -> bb_%d`, cfg.Entry().Id),
    }

    /* breadth first traversal from the entry */
    n[cfg.Entry().Id] = true
    for q.Enqueue(cfg.Entry().Id); !q.Empty(); {
        p := cfg.Block(q.Dequeue().(int))
        buf = append(buf, fmt.Sprintf(`    bb_%d [ label = < %s > ]`, p.Id, dotbb(p, dt)))

        /* dump all the edges */
        for _, e := range dotedges(p) {
            if !n[e.to] {
                n[e.to] = true
                q.Enqueue(e.to)
            }
            buf = append(buf, fmt.Sprintf(`    bb_%d -> bb_%d [ label = %q ]`, e.from, e.to, e.label))
        }
    }

    /* write the graph */
    buf = append(buf, "}\n")
    _, err := io.WriteString(w, strings.Join(buf, "\n"))
    return err
}
