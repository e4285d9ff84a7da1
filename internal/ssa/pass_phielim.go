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

// PhiElim replaces phis whose operands, after looking through other phis,
// all come from one single value.
type PhiElim struct{}

func (self PhiElim) addSource(src map[*Value]struct{}, phi *Phi, visited map[*Phi]struct{}) {
    var ok bool

    /* circles back to itself */
    if _, ok = visited[phi]; ok {
        return
    } else {
        visited[phi] = struct{}{}
    }

    /* add definitions for this node */
    for _, v := range phi.Operands {
        if p := v.Phi(); p != nil {
            self.addSource(src, p, visited)
        } else {
            src[v] = struct{}{}
        }
    }
}

func (self PhiElim) Apply(cfg *CFG) {
    for {
        done := true

        /* check every phi */
        for _, bb := range cfg.Blocks() {
            for _, p := range append([]*Phi(nil), bb.Phi...) {
                vis := make(map[*Phi]struct{})
                src := make(map[*Value]struct{})

                /* resolve all the value sources */
                if self.addSource(src, p, vis); len(src) != 1 {
                    continue
                }

                /* all values come from a single source */
                for v := range src {
                    p.Out.ReplaceUsers(v)
                    cfg.RemovePhi(p)
                    statAdd(&_Stats.PhisEliminated, 1)
                }

                /* some other phis may become trivial */
                done = false
            }
        }

        /* no more modifications */
        if done {
            break
        }
    }
}
