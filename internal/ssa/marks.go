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

const (
    _MarkPoolSize = 3
)

// Marks is a visited-set over block ids borrowed from the CFG. Sets are
// tagged with a generation number so acquiring one never needs clearing.
// Every AcquireMarks must be paired with exactly one Release.
type Marks struct {
    cfg  *CFG
    gen  uint32
    seen []uint32
    busy bool
}

type _MarkPool [_MarkPoolSize]Marks

// AcquireMarks borrows an empty visited-set. It panics if all the sets of
// this CFG are in use.
func (self *CFG) AcquireMarks() *Marks {
    for i := range self.marks {
        if mm := &self.marks[i]; !mm.busy {
            mm.acquire(self)
            return mm
        }
    }
    panic("ssa: all marks are in use")
}

func (self *Marks) acquire(cfg *CFG) {
    self.cfg = cfg
    self.busy = true
    self.gen++

    /* generation wrapped around, the stale tags must be cleared */
    if self.gen == 0 {
        self.gen = 1
        for i := range self.seen { self.seen[i] = 0 }
    }
}

// Release returns the set to the pool.
func (self *Marks) Release() {
    if !self.busy {
        panic("ssa: marks released twice")
    } else {
        self.busy = false
    }
}

func (self *Marks) check() {
    if !self.busy {
        panic("ssa: use of released marks")
    }
}

func (self *Marks) grow(id int) {
    if id >= len(self.seen) {
        n := self.cfg.MaxBlock()
        if n <= id { n = id + 1 }
        self.seen = append(self.seen, make([]uint32, n - len(self.seen))...)
    }
}

// Mark adds id to the set, and reports whether it was not there before.
func (self *Marks) Mark(id int) bool {
    self.check()
    self.grow(id)

    /* already marked */
    if self.seen[id] == self.gen {
        return false
    }

    /* mark it */
    self.seen[id] = self.gen
    return true
}

func (self *Marks) Unmark(id int) {
    self.check()
    if id < len(self.seen) && self.seen[id] == self.gen {
        self.seen[id] = 0
    }
}

func (self *Marks) IsMarked(id int) bool {
    self.check()
    return id < len(self.seen) && self.seen[id] == self.gen
}
