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

package shrinker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/shrinker/internal/ssa"
	"github.com/cloudwego/shrinker/internal/types"
)

func newMethod(tf *types.Factory, name string) *types.Method {
	return &types.Method{
		Holder: tf.Type("LTest;"),
		Name:   name,
		Params: []*types.Type{tf.Type("Z")},
		Return: tf.Type("Z"),
		Static: true,
	}
}

// booleanMethod builds "return x ? true : false".
func booleanMethod(tf *types.Factory, name string) Method {
	b := ssa.NewBuilder(tf, newMethod(tf, name))
	x := b.CFG().Args[0]
	bt := b.NewBlock()
	bf := b.NewBlock()
	bm := b.NewBlock()
	b.SetPos("Test.java", 1)
	b.DebugPosition()
	b.If(ssa.IfNE, x, nil, bt, bf)
	b.SetBlock(bt)
	c1 := b.Const(ssa.TInt, 1)
	b.Goto(bm)
	b.SetBlock(bf)
	c0 := b.Const(ssa.TInt, 0)
	b.Goto(bm)
	b.SetBlock(bm)
	b.Return(b.Phi(bm, ssa.TInt, c1, c0))
	return Method{Origin: "LTest;." + name, CFG: b.Build()}
}

// brokenMethod builds a method whose entry block is never terminated.
func brokenMethod(tf *types.Factory, name string) Method {
	b := ssa.NewBuilder(tf, newMethod(tf, name))
	b.SetPos("Broken.java", 7)
	b.DebugPosition()
	return Method{Origin: "LTest;." + name, CFG: b.Build()}
}

func TestOptimize_Methods(t *testing.T) {
	tf := types.NewFactory()
	methods := make([]Method, 0, 16)
	for i := 0; i < 16; i++ {
		methods = append(methods, booleanMethod(tf, fmt.Sprintf("m%d", i)))
	}

	/* every method collapses into a single return */
	ret, err := Optimize(context.Background(), methods, WithParallelism(4), WithVerifyPasses(true))
	require.NoError(t, err)
	require.Len(t, ret, len(methods))
	for i, r := range ret {
		require.NoError(t, r.Err)
		require.Equal(t, methods[i].Origin, r.Origin)
		require.Len(t, r.CFG.Order, 2)
		require.NotNil(t, r.Types)
		require.NoError(t, r.CFG.Verify())
	}
}

func TestOptimize_CompilationError(t *testing.T) {
	var mu sync.Mutex
	var diags []Diagnostic
	tf := types.NewFactory()
	methods := []Method{
		booleanMethod(tf, "good"),
		brokenMethod(tf, "bad"),
	}

	/* collect the diagnostics */
	handler := func(d Diagnostic) {
		mu.Lock()
		diags = append(diags, d)
		mu.Unlock()
	}

	/* only the broken method fails */
	ret, err := Optimize(context.Background(), methods, WithDiagnostics(handler))
	require.Error(t, err)
	require.NoError(t, ret[0].Err)
	require.Error(t, ret[1].Err)

	/* the error carries the method and the position */
	var ce CompilationError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "LTest;.bad", ce.Origin)
	require.Equal(t, ssa.Pos{File: "Broken.java", Line: 7}, ce.Pos)
	require.Contains(t, ce.Error(), "CompilationError(LTest;.bad at Broken.java:7)")
	require.Len(t, diags, 1)
	require.Equal(t, ce.Message, diags[0].Message)
}

func TestOptimize_Cancelled(t *testing.T) {
	tf := types.NewFactory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Optimize(ctx, []Method{booleanMethod(tf, "m")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOptimize_PolicyFile(t *testing.T) {
	tf := types.NewFactory()
	fn := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(fn, []byte("disabled-passes = [ \"condsimplify\" ]\n"), 0644))

	/* without the condition pass the diamond stays */
	ret, err := Optimize(context.Background(), []Method{booleanMethod(tf, "m")}, WithPolicyFile(fn))
	require.NoError(t, err)
	require.Len(t, ret[0].CFG.Order, 4)

	/* broken policy files are reported */
	_, err = Optimize(context.Background(), nil, WithPolicyFile(filepath.Join(t.TempDir(), "missing.toml")))
	require.Error(t, err)
}

func TestOptimize_WithoutPass(t *testing.T) {
	tf := types.NewFactory()
	ret, err := Optimize(context.Background(), []Method{booleanMethod(tf, "m")}, WithoutPass("condsimplify"), WithoutPass("gotos"))
	require.NoError(t, err)
	require.Len(t, ret[0].CFG.Order, 4)
	require.Panics(t, func() { WithoutPass("nosuchpass") })
}

func TestOptions_Panics(t *testing.T) {
	require.Panics(t, func() { WithMaxSwitchRewrites(-1) })
	require.Panics(t, func() { WithConstantShareThreshold(-1) })
	require.Panics(t, func() { WithParallelism(-1) })
	require.Panics(t, func() { WithOracle(nil) })
	require.Panics(t, func() { WithDiagnostics(nil) })
	require.NotPanics(t, func() { WithMaxSwitchRewrites(0) })
}

func TestOptimize_RandomSwitches(t *testing.T) {
	fk := gofakeit.New(42)
	tf := types.NewFactory()
	methods := make([]Method, 0, 32)

	/* methods dispatching random keys to three return sites */
	for i := 0; i < 32; i++ {
		meth := &types.Method{
			Holder: tf.Type("LTest;"),
			Name:   fmt.Sprintf("sw%d", i),
			Params: []*types.Type{tf.Type("I")},
			Return: tf.Type("I"),
			Static: true,
		}
		b := ssa.NewBuilder(tf, meth)
		x := b.CFG().Args[0]
		rets := []*ssa.BasicBlock{b.NewBlock(), b.NewBlock(), b.NewBlock()}
		def := b.NewBlock()
		keys := []int32(nil)
		cases := []*ssa.BasicBlock(nil)
		k := int32(fk.Number(-100, 100))
		for n := fk.Number(1, 30); n > 0; n-- {
			k += int32(fk.Number(1, 8))
			keys = append(keys, k)
			cases = append(cases, rets[len(keys)%3])
		}
		b.Switch(x, keys, cases, def)
		for j, bb := range append(rets, def) {
			b.SetBlock(bb)
			b.Return(b.Const(ssa.TInt, int64(j)))
		}
		cfg := b.Build()
		cfg.RemoveUnreachable()
		methods = append(methods, Method{Origin: meth.Name, CFG: cfg})
	}

	/* everything must stay consistent */
	ret, err := Optimize(context.Background(), methods, WithVerifyPasses(true), WithMaxSwitchRewrites(3))
	require.NoError(t, err)
	for _, r := range ret {
		require.NoError(t, r.CFG.Verify())
		require.NoError(t, ssa.CheckTrivialGotos(r.CFG))
	}
}
