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
    `testing`

    `github.com/stretchr/testify/require`
)

func newHierarchy() *Factory {
    tf := NewFactory()
    tf.DefineClass("LC;", ObjectDesc)
    tf.DefineClass("LA;", "LC;")
    tf.DefineClass("LB;", "LC;")
    tf.DefineClass("LA1;", "LA;")
    tf.DefineInterface("LI;")
    tf.DefineClass("LD;", "LB;", "LI;")
    return tf
}

func TestFactory_Interning(t *testing.T) {
    tf := NewFactory()
    require.Same(t, tf.Type("LFoo;"), tf.Type("LFoo;"))
    require.Same(t, tf.ArrayOf(tf.Type("I")), tf.Type("[I"))
    require.Same(t, tf.Object, tf.Type("LFoo;").Super())
    require.Equal(t, "int[][]", tf.Type("[[I").Name())
    require.Equal(t, "java.lang.String", tf.String.Name())
    require.True(t, tf.Type("[LFoo;").Elem().IsClass())
    require.Panics(t, func() { tf.Type("Q") })
    require.Panics(t, func() { tf.Type("LFoo") })
    require.Panics(t, func() { tf.Type("II") })
    require.Panics(t, func() { tf.Type("I").Elem() })
}

func TestJoin_CommonAncestor(t *testing.T) {
    tf := newHierarchy()
    a, b, c := tf.Type("LA;"), tf.Type("LB;"), tf.Type("LC;")
    require.Same(t, c, tf.Join(a, b))
    require.Same(t, c, tf.Join(b, a))
    require.Same(t, c, tf.Join(tf.Type("LA1;"), tf.Type("LD;")))
    require.Same(t, a, tf.Join(tf.Type("LA1;"), a))
    require.Same(t, tf.Object, tf.Join(a, tf.String))
}

func TestJoin_Reparented(t *testing.T) {
    tf := NewFactory()
    tf.DefineClass("LX1;", "LX;")
    tf.DefineClass("LY;", "LBase;")
    require.Same(t, tf.Object, tf.Join(tf.Type("LX1;"), tf.Type("LY;")))

    /* the super class of LX; becomes known later */
    tf.DefineClass("LX;", "LBase;")
    require.Same(t, tf.Type("LBase;"), tf.Join(tf.Type("LX1;"), tf.Type("LY;")))
    require.Same(t, tf.Type("LBase;"), tf.Join(tf.Type("LY;"), tf.Type("LX1;")))
}

func TestJoin_Identity(t *testing.T) {
    tf := newHierarchy()
    for _, desc := range []string { "LA;", "LC;", "[LA;", "[I", ObjectDesc } {
        tt := tf.Type(desc)
        require.Same(t, tt, tf.Join(tt, tt), desc)
        require.Same(t, tt, tf.Join(tt, tf.Null), desc)
        require.Same(t, tt, tf.Join(tf.Null, tt), desc)
    }
    require.Same(t, tf.Null, tf.Join(tf.Null, tf.Null))
}

func TestJoin_Arrays(t *testing.T) {
    tf := newHierarchy()
    require.Same(t, tf.Type("[LC;"), tf.Join(tf.Type("[LA;"), tf.Type("[LB;")))
    require.Same(t, tf.Type("[[LC;"), tf.Join(tf.Type("[[LA;"), tf.Type("[[LB;")))
    require.Same(t, tf.Object, tf.Join(tf.Type("[I"), tf.Type("[J")))
    require.Same(t, tf.Object, tf.Join(tf.Type("[I"), tf.Type("[LA;")))
    require.Same(t, tf.Object, tf.Join(tf.Type("[LA;"), tf.Type("LA;")))
}

func TestJoin_Interfaces(t *testing.T) {
    tf := newHierarchy()
    require.Same(t, tf.Object, tf.Join(tf.Type("LI;"), tf.Type("LD;")))
    require.True(t, tf.IsSubtype(tf.Type("LD;"), tf.Type("LI;")))
    require.False(t, tf.IsSubtype(tf.Type("LA;"), tf.Type("LI;")))
}

func TestJoin_Preconditions(t *testing.T) {
    tf := newHierarchy()
    require.Panics(t, func() { tf.JoinAll() })
    require.Panics(t, func() { tf.Join(tf.Type("I"), tf.Type("LA;")) })
    require.Panics(t, func() { tf.Join(tf.Null, tf.Type("J")) })
}

func TestJoinAll(t *testing.T) {
    tf := newHierarchy()
    require.Same(t, tf.Type("LA;"), tf.JoinAll(tf.Type("LA;")))
    require.Same(t, tf.Type("LC;"), tf.JoinAll(tf.Type("LA1;"), tf.Null, tf.Type("LA;"), tf.Type("LB;")))
}

func TestIsSubtype(t *testing.T) {
    tf := newHierarchy()
    require.True(t, tf.IsSubtype(tf.Type("LA1;"), tf.Type("LC;")))
    require.True(t, tf.IsSubtype(tf.Null, tf.Type("[I")))
    require.True(t, tf.IsSubtype(tf.Type("[LA;"), tf.Type("[LC;")))
    require.True(t, tf.IsSubtype(tf.Type("[I"), tf.Object))
    require.False(t, tf.IsSubtype(tf.Type("[I"), tf.Type("[J")))
    require.False(t, tf.IsSubtype(tf.Type("LC;"), tf.Type("LA;")))
    require.False(t, tf.IsSubtype(tf.Type("I"), tf.Object))
}
