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
    `github.com/oleiade/lane`

    `github.com/cloudwego/shrinker/internal/types`
)

// VerificationTypes maps every reference value to its most precise static
// type, as needed for stack-map frames.
type VerificationTypes map[*Value]*types.Type

type _TypeSolver struct {
    cfg  *CFG
    ret  VerificationTypes
    wl   *lane.Queue
    busy map[*Value]bool
}

// ComputeVerificationTypes seeds the arguments from the method signature
// and the instructions whose result type does not depend on their operands,
// then propagates joins through phis, moves and array loads until nothing
// changes any more.
func ComputeVerificationTypes(cfg *CFG) VerificationTypes {
    ts := &_TypeSolver {
        cfg  : cfg,
        ret  : make(VerificationTypes),
        wl   : lane.NewQueue(),
        busy : make(map[*Value]bool),
    }

    /* seed the fixed types */
    ts.seed()

    /* propagate until fixed point */
    for !ts.wl.Empty() {
        v := ts.wl.Dequeue().(*Value)
        delete(ts.busy, v)

        /* recompute the type and notify the users if it changed */
        if t := ts.infer(v); t != nil && t != ts.ret[v] {
            ts.ret[v] = t
            ts.addUsers(v)
        }
    }
    return ts.ret
}

func (self *_TypeSolver) seed() {
    at := self.cfg.Method.ArgumentTypes()

    /* arguments come from the signature */
    for i, v := range self.cfg.Args {
        if v.Type.IsObject() {
            self.ret[v] = at[i]
            self.addUsers(v)
        }
    }

    /* instructions with invariant result types */
    for _, bb := range self.cfg.Blocks() {
        for _, ins := range bb.Ins {
            if out := ins.Base().Out; out != nil && out.Type.IsObject() {
                if t := self.invariant(ins); t != nil {
                    self.ret[out] = t
                    self.addUsers(out)
                }
            }
        }
    }
}

// invariant returns the type of results that never depend on operands.
func (self *_TypeSolver) invariant(ins Instruction) *types.Type {
    switch p := ins.(type) {
        case *IrConstNumber : return self.cfg.Types.Null
        case *IrConstString : return self.cfg.Types.String
        case *IrConstClass  : return self.cfg.Types.Class
        case *IrCheckCast   : return p.Class
        case *IrNewInstance : return p.Class
        case *IrNewArray    : return p.Class
        case *IrInvoke      : return p.Method.Return
        case *IrFieldGet    : return p.Field.Type
        default             : return nil
    }
}

func (self *_TypeSolver) push(v *Value) {
    if !self.busy[v] {
        self.busy[v] = true
        self.wl.Enqueue(v)
    }
}

func (self *_TypeSolver) addUsers(v *Value) {
    for _, p := range v.PhiUsers() {
        self.push(p.Out)
    }

    /* only instructions whose result follows their operands */
    for _, ins := range v.Users() {
        if out := ins.Base().Out; out != nil && out.Type.IsObject() && self.invariant(ins) == nil {
            self.push(out)
        }
    }
}

func (self *_TypeSolver) infer(v *Value) *types.Type {
    if p := v.Phi(); p != nil {
        return self.join(p.Operands)
    }

    /* depends on the defining instruction */
    switch p := v.Def().(type) {
        case *IrMove      : return self.ret[p.In[0]]
        case *IrNonNull   : return self.ret[p.In[0]]
        case *IrArrayGet  : return self.elementOf(self.ret[p.In[0]])
        default           : return nil
    }
}

func (self *_TypeSolver) join(vv []*Value) *types.Type {
    tt := make([]*types.Type, 0, len(vv))
    for _, v := range vv {
        if t := self.ret[v]; t != nil {
            tt = append(tt, t)
        }
    }

    /* none of the operands are known yet */
    if len(tt) == 0 {
        return nil
    } else {
        return self.cfg.Types.JoinAll(tt...)
    }
}

func (self *_TypeSolver) elementOf(t *types.Type) *types.Type {
    if t == nil {
        return nil
    } else if t.IsArray() && t.Elem().IsReference() {
        return t.Elem()
    } else {
        return self.cfg.Types.Object
    }
}
