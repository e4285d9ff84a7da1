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

// TDCE removes trivial dead-code such as unused value definations from CFG.
type TDCE struct{}

func isDeadPhi(p *Phi) bool {
    if len(p.Out.Users()) != 0 {
        return false
    }

    /* the only phi user may be itself */
    for _, u := range p.Out.PhiUsers() {
        if u != p {
            return false
        }
    }
    return true
}

func (TDCE) Apply(cfg *CFG) {
    for {
        done := true

        /* scan every block, users come before definitions within a block */
        for _, bb := range cfg.Blocks() {
            for i := len(bb.Ins) - 1; i >= 0; i-- {
                ins := bb.Ins[i]
                out := ins.Base().Out

                /* remove instructions that don't have any effects */
                if out != nil && !out.HasUsers() && !HasSideEffects(ins) {
                    cfg.Remove(ins)
                    statAdd(&_Stats.DeadCode, 1)
                    done = false
                }
            }

            /* remove Phi nodes that are not used by anything else */
            for _, p := range append([]*Phi(nil), bb.Phi...) {
                if isDeadPhi(p) {
                    p.unlink()
                    cfg.RemovePhi(p)
                    statAdd(&_Stats.DeadCode, 1)
                    done = false
                }
            }
        }

        /* no more modifications */
        if done {
            break
        }
    }
}
