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

package opts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, data string) string {
	fn := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(fn, []byte(data), 0644))
	return fn
}

func TestOptions_Defaults(t *testing.T) {
	o := GetDefaultOptions()
	require.NoError(t, o.Validate())
	require.Equal(t, _DefaultMaxSwitchRewrites, o.MaxSwitchRewrites)
	require.Equal(t, _DefaultConstShareThreshold, o.ConstShareThreshold)
	require.True(t, o.PassEnabled("cse"))
}

func TestOptions_LoadFile(t *testing.T) {
	o := GetDefaultOptions()
	fn := writePolicy(t, `
max-switch-rewrites = 4
verify-passes = true
disabled-passes = [ "constplace" ]

[cost]
if = 3
`)
	require.NoError(t, o.LoadFile(fn))
	require.Equal(t, 4, o.MaxSwitchRewrites)
	require.Equal(t, _DefaultConstShareThreshold, o.ConstShareThreshold)
	require.True(t, o.VerifyPasses)
	require.False(t, o.PassEnabled("constplace"))
	require.Equal(t, 3, o.Cost.IfSize)
	require.Equal(t, DefaultCostModel().SwitchSize, o.Cost.SwitchSize)
}

func TestOptions_LoadFileErrors(t *testing.T) {
	o := GetDefaultOptions()
	require.Error(t, o.LoadFile(filepath.Join(t.TempDir(), "missing.toml")))
	require.ErrorContains(t, o.LoadFile(writePolicy(t, "max-switch-rewrites = ")), "parse error")
	require.ErrorContains(t, o.LoadFile(writePolicy(t, "parallelism = -1")), "invalid parallelism")
	require.ErrorContains(t, o.LoadFile(writePolicy(t, "[cost]\nswitch = 0")), "invalid cost model")
	require.Equal(t, GetDefaultOptions(), o)
}

func TestOptions_Validate(t *testing.T) {
	o := GetDefaultOptions()
	o.MaxSwitchRewrites = -1
	require.Error(t, o.Validate())
	o = GetDefaultOptions()
	o.ConstShareThreshold = -1
	require.Error(t, o.Validate())
	o = GetDefaultOptions()
	o.MaxSwitchRewrites = 0
	o.ConstShareThreshold = 0
	require.NoError(t, o.Validate())
}

func TestOptions_NegativeCost(t *testing.T) {
	o := GetDefaultOptions()
	o.Cost.SparsePayloadUnit = -4
	require.ErrorContains(t, o.Validate(), "sparse-payload-unit")
	o = GetDefaultOptions()
	o.Cost.ConstWide64Size = -1
	require.ErrorContains(t, o.Validate(), "const-wide64")
	o = GetDefaultOptions()
	require.ErrorContains(t, o.LoadFile(writePolicy(t, "[cost]\npacked-payload-base = -2")), "negative size")
	require.Equal(t, GetDefaultOptions().Cost, o.Cost)
}

func TestParseOrDefault_Zero(t *testing.T) {
	t.Setenv("SHRINKER_MAX_SWITCH_REWRITES", "0")
	require.Equal(t, 0, parseOrDefault("SHRINKER_MAX_SWITCH_REWRITES", _DefaultMaxSwitchRewrites, -1))
	require.Panics(t, func() { parseOrDefault("SHRINKER_MAX_SWITCH_REWRITES", _DefaultMaxSwitchRewrites, 0) })
	t.Setenv("SHRINKER_MAX_SWITCH_REWRITES", "")
	require.Equal(t, _DefaultMaxSwitchRewrites, parseOrDefault("SHRINKER_MAX_SWITCH_REWRITES", _DefaultMaxSwitchRewrites, -1))
}
