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
    `strings`
)

type Kind uint8

const (
    Primitive Kind = iota
    Class
    Array
    Null
    Void
)

func (self Kind) String() string {
    switch self {
        case Primitive : return "primitive"
        case Class     : return "class"
        case Array     : return "array"
        case Null      : return "null"
        case Void      : return "void"
        default        : panic("unreachable")
    }
}

// Type is an interned type descriptor. Two types are equal iff they are the
// same pointer, so types from different factories must never be mixed.
type Type struct {
    Desc   string
    kind   Kind
    elem   *Type
    super  *Type
    ifaces []*Type
    iface  bool
}

func (self *Type) Kind() Kind {
    return self.kind
}

func (self *Type) IsReference() bool {
    return self.kind == Class || self.kind == Array || self.kind == Null
}

func (self *Type) IsClass() bool {
    return self.kind == Class
}

func (self *Type) IsArray() bool {
    return self.kind == Array
}

func (self *Type) IsNull() bool {
    return self.kind == Null
}

func (self *Type) IsInterface() bool {
    return self.iface
}

// Elem returns the element type of an array type.
func (self *Type) Elem() *Type {
    if self.kind != Array {
        panic("types: element type of non-array type " + self.Desc)
    } else {
        return self.elem
    }
}

// Super returns the direct super class, or nil for the root class and for
// classes whose hierarchy is unknown.
func (self *Type) Super() *Type {
    return self.super
}

// Name returns the source-level name, e.g. "java.lang.String" or "int[]".
func (self *Type) Name() string {
    switch self.kind {
        case Null      : return "null"
        case Void      : return "void"
        case Array     : return self.elem.Name() + "[]"
        case Class     : return strings.ReplaceAll(self.Desc[1:len(self.Desc) - 1], "/", ".")
        case Primitive : return _PrimitiveNames[self.Desc[0]]
        default        : panic("unreachable")
    }
}

func (self *Type) String() string {
    return self.Desc
}

var _PrimitiveNames = map[byte]string {
    'Z': "boolean",
    'B': "byte",
    'S': "short",
    'C': "char",
    'I': "int",
    'J': "long",
    'F': "float",
    'D': "double",
}

// Field describes a resolved field reference.
type Field struct {
    Holder *Type
    Name   string
    Type   *Type
}

func (self *Field) String() string {
    return fmt.Sprintf("%s.%s:%s", self.Holder.Desc, self.Name, self.Type.Desc)
}

// Method describes a resolved method reference together with the
// information the optimizer needs about its signature.
type Method struct {
    Holder *Type
    Name   string
    Params []*Type
    Return *Type
    Static bool
}

func (self *Method) String() string {
    buf := make([]string, 0, len(self.Params))
    ret := "V"

    /* dump parameter types */
    for _, p := range self.Params {
        buf = append(buf, p.Desc)
    }

    /* return type, if any */
    if self.Return != nil {
        ret = self.Return.Desc
    }

    /* join them together */
    return fmt.Sprintf(
        "%s.%s(%s)%s",
        self.Holder.Desc,
        self.Name,
        strings.Join(buf, ""),
        ret,
    )
}

// ArgumentTypes returns the types of the formal arguments, including the
// receiver for instance methods.
func (self *Method) ArgumentTypes() []*Type {
    if self.Static {
        return self.Params
    } else {
        return append([]*Type { self.Holder }, self.Params...)
    }
}
