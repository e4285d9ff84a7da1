/*
 * Copyright 2022 CloudWeGo Authors
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


package types

// IsSubtype reports whether a value of type t can be assigned to a location
// of type u.
func (self *Factory) IsSubtype(t *Type, u *Type) bool {
    switch {
        case t == u                         : return true
        case t.kind == Null                 : return u.IsReference()
        case !t.IsReference()               : return false
        case !u.IsReference()               : return false
        case u == self.Object               : return true
        case t.kind == Array                : return u.kind == Array && t.elem.IsReference() && self.IsSubtype(t.elem, u.elem)
        case u.kind != Class                : return false
        case u.iface                        : return implements(t, u)
        default                             : return isSuperClass(t, u)
    }
}

// Join returns the least upper bound of two reference types. Joining with
// the null type is the identity, and a type joined with itself is unchanged.
func (self *Factory) Join(a *Type, b *Type) *Type {
    switch {
        case a == b           : return a
        case a.kind == Null   : return self.checkReference(b)
        case b.kind == Null   : return self.checkReference(a)
    }

    /* both sides must be references */
    self.checkReference(a)
    self.checkReference(b)

    /* arrays only join with arrays */
    if a.kind == Array || b.kind == Array {
        if a.kind != Array || b.kind != Array {
            return self.Object
        } else if !a.elem.IsReference() || !b.elem.IsReference() {
            return self.Object
        } else {
            return self.ArrayOf(self.Join(a.elem, b.elem))
        }
    }

    /* interfaces have no single common super type */
    if a.iface || b.iface {
        return self.Object
    }

    /* walk up the class hierarchy */
    self.mu.RLock()
    defer self.mu.RUnlock()
    return commonSuperClass(a, b, self.Object)
}

// JoinAll folds Join over all the types. It panics when called without any
// types, since the join of nothing is undefined.
func (self *Factory) JoinAll(tt ...*Type) *Type {
    if len(tt) == 0 {
        panic("types: join of an empty type set")
    }

    /* fold the types from left to right */
    ret := tt[0]
    for _, t := range tt[1:] { ret = self.Join(ret, t) }
    return ret
}

func (self *Factory) checkReference(t *Type) *Type {
    if t.IsReference() {
        return t
    } else {
        panic("types: join of non-reference type " + t.Desc)
    }
}

func depthOf(t *Type) (n int) {
    for p := t.super; p != nil; p = p.super { n++ }
    return
}

func commonSuperClass(a *Type, b *Type, root *Type) *Type {
    da := depthOf(a)
    db := depthOf(b)

    /* bring both classes to the same depth */
    for ; da > db; da-- { a = a.super }
    for ; db > da; db-- { b = b.super }

    /* then move up in lock step */
    for a != b {
        if a.super == nil || b.super == nil {
            return root
        }
        a, b = a.super, b.super
    }
    return a
}

func isSuperClass(t *Type, u *Type) bool {
    for p := t; p != nil; p = p.super {
        if p == u {
            return true
        }
    }
    return false
}

func implements(t *Type, u *Type) bool {
    for p := t; p != nil; p = p.super {
        for _, v := range p.ifaces {
            if v == u || implements(v, u) {
                return true
            }
        }
    }
    return false
}
