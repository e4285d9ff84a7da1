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

package debug

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudwego/shrinker/internal/opts"
	"github.com/cloudwego/shrinker/internal/ssa"
	"github.com/cloudwego/shrinker/internal/types"
)

func TestGetStats(t *testing.T) {
	tf := types.NewFactory()
	b := ssa.NewBuilder(tf, &types.Method{
		Holder: tf.Type("LTest;"),
		Name:   "f",
		Params: []*types.Type{tf.Type("I")},
		Return: tf.Type("I"),
		Static: true,
	})
	bt := b.NewBlock()
	bf := b.NewBlock()
	b.Switch(b.CFG().Args[0], []int32{5}, []*ssa.BasicBlock{bt}, bf)
	b.SetBlock(bt)
	b.Return(b.Const(ssa.TInt, 1))
	b.SetBlock(bf)
	b.Return(b.Const(ssa.TInt, 0))

	/* run the pipeline once */
	o := opts.GetDefaultOptions()
	before := GetStats()
	ssa.NewPipeline(&o, ssa.NoOracle{}).Run(b.Build())
	after := GetStats()
	require.Equal(t, before.Methods+1, after.Methods)
	require.Equal(t, before.Branches.SwitchesToIf+1, after.Branches.SwitchesToIf)
}
