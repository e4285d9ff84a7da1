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
	"github.com/cloudwego/shrinker/internal/ssa"
)

// A Stats records statistics about the optimizer.
type Stats struct {
	Methods  int
	Blocks   BlockStats
	Branches BranchStats
	Values   ValueStats
}

// A BlockStats records statistics about control-flow rewrites.
type BlockStats struct {
	Removed    int
	Gotos      int
	SplitEdges int
}

// A BranchStats records statistics about conditional branches and switches.
type BranchStats struct {
	Folded        int
	Diamonds      int
	SwitchesToIf  int
	SwitchesSplit int
	NeverReturns  int
}

// A ValueStats records statistics about rewritten values.
type ValueStats struct {
	ConstantsMoved  int
	ConstantsCopied int
	CommonSubexprs  int
	PhisEliminated  int
	DeadCode        int
	ReturnsArgument int
}

// GetStats returns statistics of the optimizer since the process started.
func GetStats() Stats {
	c := ssa.GetCounters()
	return Stats{
		Methods: int(c.Methods),
		Blocks: BlockStats{
			Removed:    int(c.BlocksRemoved),
			Gotos:      int(c.GotosCollapsed),
			SplitEdges: int(c.EdgesSplit),
		},
		Branches: BranchStats{
			Folded:        int(c.BranchesFolded),
			Diamonds:      int(c.DiamondsRemoved),
			SwitchesToIf:  int(c.SwitchesToIf),
			SwitchesSplit: int(c.SwitchesSplit),
			NeverReturns:  int(c.NeverReturns),
		},
		Values: ValueStats{
			ConstantsMoved:  int(c.ConstantsMoved),
			ConstantsCopied: int(c.ConstantsCopied),
			CommonSubexprs:  int(c.CommonSubexprs),
			PhisEliminated:  int(c.PhisEliminated),
			DeadCode:        int(c.DeadCode),
			ReturnsArgument: int(c.ReturnsArgument),
		},
	}
}
