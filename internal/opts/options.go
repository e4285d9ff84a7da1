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
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// CostModel holds the estimated encoded sizes, in code units, used to decide
// whether a rewrite makes the output smaller.
type CostModel struct {
	SwitchSize        int `toml:"switch"`
	IfSize            int `toml:"if"`
	PackedPayloadBase int `toml:"packed-payload-base"`
	PackedPayloadUnit int `toml:"packed-payload-unit"`
	SparsePayloadBase int `toml:"sparse-payload-base"`
	SparsePayloadUnit int `toml:"sparse-payload-unit"`
	Const4Size        int `toml:"const4"`
	Const16Size       int `toml:"const16"`
	ConstHigh16Size   int `toml:"const-high16"`
	Const32Size       int `toml:"const32"`
	ConstWide16Size   int `toml:"const-wide16"`
	ConstWideHigh16   int `toml:"const-wide-high16"`
	ConstWide32Size   int `toml:"const-wide32"`
	ConstWide64Size   int `toml:"const-wide64"`
}

// DefaultCostModel returns the sizes of the register-based target encoding.
func DefaultCostModel() CostModel {
	return CostModel{
		SwitchSize:        3,
		IfSize:            2,
		PackedPayloadBase: 4,
		PackedPayloadUnit: 2,
		SparsePayloadBase: 2,
		SparsePayloadUnit: 4,
		Const4Size:        1,
		Const16Size:       2,
		ConstHigh16Size:   2,
		Const32Size:       3,
		ConstWide16Size:   2,
		ConstWideHigh16:   2,
		ConstWide32Size:   3,
		ConstWide64Size:   5,
	}
}

type Options struct {
	MaxSwitchRewrites   int       `toml:"max-switch-rewrites"`
	ConstShareThreshold int       `toml:"const-share-threshold"`
	Parallelism         int       `toml:"parallelism"`
	VerifyPasses        bool      `toml:"verify-passes"`
	DisabledPasses      []string  `toml:"disabled-passes"`
	Cost                CostModel `toml:"cost"`
}

// PassEnabled reports whether the named pass should run.
func (self *Options) PassEnabled(name string) bool {
	for _, v := range self.DisabledPasses {
		if v == name {
			return false
		}
	}
	return true
}

// Validate checks the options for values the optimizer cannot work with.
func (self *Options) Validate() error {
	if self.MaxSwitchRewrites < 0 {
		return fmt.Errorf("invalid max-switch-rewrites: %d", self.MaxSwitchRewrites)
	} else if self.ConstShareThreshold < 0 {
		return fmt.Errorf("invalid const-share-threshold: %d", self.ConstShareThreshold)
	} else if self.Parallelism < 0 {
		return fmt.Errorf("invalid parallelism: %d", self.Parallelism)
	} else if self.Cost.SwitchSize <= 0 || self.Cost.IfSize <= 0 {
		return fmt.Errorf("invalid cost model: switch and if sizes must be positive")
	} else {
		return self.Cost.validate()
	}
}

func (self *CostModel) validate() error {
	for _, v := range []struct {
		key  string
		size int
	}{
		{"packed-payload-base", self.PackedPayloadBase},
		{"packed-payload-unit", self.PackedPayloadUnit},
		{"sparse-payload-base", self.SparsePayloadBase},
		{"sparse-payload-unit", self.SparsePayloadUnit},
		{"const4", self.Const4Size},
		{"const16", self.Const16Size},
		{"const-high16", self.ConstHigh16Size},
		{"const32", self.Const32Size},
		{"const-wide16", self.ConstWide16Size},
		{"const-wide-high16", self.ConstWideHigh16},
		{"const-wide32", self.ConstWide32Size},
		{"const-wide64", self.ConstWide64Size},
	} {
		if v.size < 0 {
			return fmt.Errorf("invalid cost model: negative size for %s: %d", v.key, v.size)
		}
	}
	return nil
}

// LoadFile overrides the options with the values of a TOML policy file.
// Keys missing from the file keep their current values.
func (self *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	/* decode over the current values */
	ret := *self
	if err = toml.Unmarshal(data, &ret); err != nil {
		return fmt.Errorf("parse error in %s: %w", path, err)
	}

	/* check before applying */
	if err = ret.Validate(); err != nil {
		return fmt.Errorf("invalid policy in %s: %w", path, err)
	}

	/* everything is fine */
	*self = ret
	return nil
}

func GetDefaultOptions() Options {
	return Options{
		MaxSwitchRewrites:   MaxSwitchRewrites,
		ConstShareThreshold: ConstShareThreshold,
		Parallelism:         Parallelism,
		VerifyPasses:        VerifyPasses,
		Cost:                DefaultCostModel(),
	}
}
