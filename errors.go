/*
 * Copyright 2021 ByteDance Inc.
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
    `fmt`

    `github.com/cloudwego/shrinker/internal/ssa`
)

// CompilationError occures when a method cannot be compiled because its
// input is malformed. Only the affected method is aborted.
type CompilationError struct {
    Message string
    Origin  string
    Pos     ssa.Pos
}

func (self CompilationError) Error() string {
    if self.Pos.IsNone() {
        return fmt.Sprintf("CompilationError(%s): %s", self.Origin, self.Message)
    } else {
        return fmt.Sprintf("CompilationError(%s at %s): %s", self.Origin, self.Pos, self.Message)
    }
}
