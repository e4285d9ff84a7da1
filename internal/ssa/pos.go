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
    `fmt`
)

// Pos is a source position attached to instructions for debug info.
type Pos struct {
    File string
    Line int
}

func (self Pos) IsNone() bool {
    return self.Line == 0 && self.File == ""
}

func (self Pos) String() string {
    if self.IsNone() {
        return "<none>"
    } else {
        return fmt.Sprintf("%s:%d", self.File, self.Line)
    }
}
