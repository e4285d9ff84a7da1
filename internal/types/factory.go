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

import (
    `fmt`
    `sync`
)

const (
    ObjectDesc    = "Ljava/lang/Object;"
    StringDesc    = "Ljava/lang/String;"
    ClassDesc     = "Ljava/lang/Class;"
    ThrowableDesc = "Ljava/lang/Throwable;"
)

// Factory interns type descriptors and owns the class hierarchy used for
// joins. One factory is shared by every method of a compilation session, so
// all of its methods are safe for concurrent use.
type Factory struct {
    mu    sync.RWMutex
    types map[string]*Type

    Object    *Type
    String    *Type
    Class     *Type
    Throwable *Type
    Null      *Type
    Void      *Type
}

func NewFactory() *Factory {
    ret := &Factory {
        types: make(map[string]*Type),
    }

    /* the root of the class hierarchy */
    ret.Object = ret.intern(ObjectDesc)
    ret.Null = &Type { Desc: "null", kind: Null }
    ret.Void = ret.intern("V")

    /* well-known classes */
    ret.String = ret.DefineClass(StringDesc, ObjectDesc)
    ret.Class = ret.DefineClass(ClassDesc, ObjectDesc)
    ret.Throwable = ret.DefineClass(ThrowableDesc, ObjectDesc)
    return ret
}

// Type returns the interned type for a descriptor. Classes that have not been
// defined with DefineClass are assumed to extend java.lang.Object.
func (self *Factory) Type(desc string) *Type {
    self.mu.RLock()
    tt, ok := self.types[desc]
    self.mu.RUnlock()

    /* fast path: already interned */
    if ok {
        return tt
    }

    /* slow path: intern under the write lock */
    self.mu.Lock()
    defer self.mu.Unlock()
    return self.intern(desc)
}

// ArrayOf returns the array type with the given element type.
func (self *Factory) ArrayOf(elem *Type) *Type {
    if elem.kind == Null || elem.kind == Void {
        panic("types: invalid array element type " + elem.Desc)
    } else {
        return self.Type("[" + elem.Desc)
    }
}

// DefineClass records the super class and interfaces of a class type.
// Hierarchy information must be complete before the factory is shared
// between concurrently compiled methods.
func (self *Factory) DefineClass(desc string, super string, ifaces ...string) *Type {
    self.mu.Lock()
    defer self.mu.Unlock()

    /* intern the class itself */
    tt := self.intern(desc)
    if tt.kind != Class {
        panic("types: cannot define non-class type " + desc)
    }

    /* link the super class */
    if super != "" {
        tt.super = self.intern(super)
    }

    /* link all the interfaces */
    for _, v := range ifaces {
        tt.ifaces = append(tt.ifaces, self.intern(v))
    }
    return tt
}

// DefineInterface records an interface type.
func (self *Factory) DefineInterface(desc string, supers ...string) *Type {
    tt := self.DefineClass(desc, ObjectDesc, supers...)
    self.mu.Lock()
    tt.iface = true
    self.mu.Unlock()
    return tt
}

func (self *Factory) intern(desc string) *Type {
    if tt, ok := self.types[desc]; ok {
        return tt
    }

    /* parse the descriptor */
    tt := self.parse(desc)
    self.types[desc] = tt
    return tt
}

func (self *Factory) parse(desc string) *Type {
    if desc == "" {
        panic("types: empty type descriptor")
    }

    /* check the leading character */
    switch desc[0] {
        default: {
            panic(fmt.Sprintf("types: invalid type descriptor %q", desc))
        }

        /* primitives and void */
        case 'Z', 'B', 'S', 'C', 'I', 'J', 'F', 'D', 'V': {
            if len(desc) != 1 {
                panic(fmt.Sprintf("types: invalid type descriptor %q", desc))
            } else if desc[0] == 'V' {
                return &Type { Desc: desc, kind: Void }
            } else {
                return &Type { Desc: desc, kind: Primitive }
            }
        }

        /* class types */
        case 'L': {
            if len(desc) < 3 || desc[len(desc) - 1] != ';' {
                panic(fmt.Sprintf("types: invalid class descriptor %q", desc))
            }

            /* the root class has no super class */
            tt := &Type { Desc: desc, kind: Class }
            if desc != ObjectDesc {
                tt.super = self.intern(ObjectDesc)
            }
            return tt
        }

        /* array types */
        case '[': {
            return &Type {
                Desc : desc,
                kind : Array,
                elem : self.intern(desc[1:]),
            }
        }
    }
}
