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
    `github.com/cloudwego/shrinker/internal/opts`
)

func is4Bit(v int64) bool {
    return v >= -8 && v <= 7
}

func is16Bit(v int64) bool {
    return v >= -32768 && v <= 32767
}

func is32Bit(v int64) bool {
    return v >= -2147483648 && v <= 2147483647
}

func packedPayloadSize(cm *opts.CostModel, keys []int32) int64 {
    n := int64(keys[len(keys) - 1]) - int64(keys[0]) + 1
    return int64(cm.PackedPayloadBase) + int64(cm.PackedPayloadUnit) * n
}

func sparsePayloadSize(cm *opts.CostModel, keys []int32) int64 {
    return int64(cm.SparsePayloadBase) + int64(cm.SparsePayloadUnit) * int64(len(keys))
}

// payloadSize estimates the size of the jump table for a sorted key set,
// picking whichever of the packed and sparse layouts is smaller.
func payloadSize(cm *opts.CostModel, keys []int32) int64 {
    packed := packedPayloadSize(cm, keys)
    sparse := sparsePayloadSize(cm, keys)

    /* pick the smaller one */
    if packed < sparse {
        return packed
    } else {
        return sparse
    }
}

// switchSize estimates the size of a switch instruction with its payload.
func switchSize(cm *opts.CostModel, keys []int32) int64 {
    return payloadSize(cm, keys) + int64(cm.SwitchSize)
}

// constSize estimates the size of materializing v into a register.
func constSize(cm *opts.CostModel, vt ValueType, v int64) int64 {
    if !vt.IsWide() {
        switch {
            case is4Bit(v)          : return int64(cm.Const4Size)
            case is16Bit(v)         : return int64(cm.Const16Size)
            case v & 0x0000ffff == 0 : return int64(cm.ConstHigh16Size)
            default                 : return int64(cm.Const32Size)
        }
    } else {
        switch {
            case is16Bit(v)                     : return int64(cm.ConstWide16Size)
            case v & 0x0000ffffffffffff == 0    : return int64(cm.ConstWideHigh16)
            case is32Bit(v)                     : return int64(cm.ConstWide32Size)
            default                             : return int64(cm.ConstWide64Size)
        }
    }
}
