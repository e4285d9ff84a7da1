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
    `sync/atomic`
)

// Counters are process-wide rewrite statistics, updated atomically since
// methods are optimized concurrently.
type Counters struct {
    Methods          int64
    BlocksRemoved    int64
    GotosCollapsed   int64
    SwitchesToIf     int64
    SwitchesSplit    int64
    EdgesSplit       int64
    ConstantsMoved   int64
    ConstantsCopied  int64
    CommonSubexprs   int64
    BranchesFolded   int64
    DiamondsRemoved  int64
    PhisEliminated   int64
    DeadCode         int64
    NeverReturns     int64
    ReturnsArgument  int64
}

var _Stats Counters

func statAdd(p *int64, n int) {
    atomic.AddInt64(p, int64(n))
}

// GetCounters returns a snapshot of the rewrite statistics.
func GetCounters() Counters {
    return Counters {
        Methods         : atomic.LoadInt64(&_Stats.Methods),
        BlocksRemoved   : atomic.LoadInt64(&_Stats.BlocksRemoved),
        GotosCollapsed  : atomic.LoadInt64(&_Stats.GotosCollapsed),
        SwitchesToIf    : atomic.LoadInt64(&_Stats.SwitchesToIf),
        SwitchesSplit   : atomic.LoadInt64(&_Stats.SwitchesSplit),
        EdgesSplit      : atomic.LoadInt64(&_Stats.EdgesSplit),
        ConstantsMoved  : atomic.LoadInt64(&_Stats.ConstantsMoved),
        ConstantsCopied : atomic.LoadInt64(&_Stats.ConstantsCopied),
        CommonSubexprs  : atomic.LoadInt64(&_Stats.CommonSubexprs),
        BranchesFolded  : atomic.LoadInt64(&_Stats.BranchesFolded),
        DiamondsRemoved : atomic.LoadInt64(&_Stats.DiamondsRemoved),
        PhisEliminated  : atomic.LoadInt64(&_Stats.PhisEliminated),
        DeadCode        : atomic.LoadInt64(&_Stats.DeadCode),
        NeverReturns    : atomic.LoadInt64(&_Stats.NeverReturns),
        ReturnsArgument : atomic.LoadInt64(&_Stats.ReturnsArgument),
    }
}
