// Copyright 2024 The Apex Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package linux

// A Capability represents the ability to perform a privileged operation.
type Capability int

// Capabilities that may be checked before privileged filesystem operations,
// from Linux's include/uapi/linux/capability.h.
const (
	CAP_CHOWN           = Capability(0)
	CAP_DAC_OVERRIDE    = Capability(1)
	CAP_DAC_READ_SEARCH = Capability(2)
	CAP_FOWNER          = Capability(3)
	CAP_FSETID          = Capability(4)
	CAP_SYS_ADMIN       = Capability(21)
	CAP_MKNOD           = Capability(27)

	// CAP_LAST_CAP is the highest-numbered capability.
	CAP_LAST_CAP = CAP_MKNOD
)

// Ok returns true if cp is a supported capability.
func (cp Capability) Ok() bool {
	return cp >= 0 && cp <= CAP_LAST_CAP
}

// Mask returns the bit corresponding to cp in a CapabilitySet.
func (cp Capability) Mask() CapabilitySet {
	return CapabilitySet(1) << uint(cp)
}

// A CapabilitySet is a set of Capabilities implemented as a bitset.
type CapabilitySet uint64

// AllCapabilities is a CapabilitySet containing all valid capabilities.
var AllCapabilities = CapabilitySet(1)<<uint(CAP_LAST_CAP+1) - 1

// CapabilitySetOf returns a CapabilitySet containing only the given
// capability.
func CapabilitySetOf(cp Capability) CapabilitySet {
	return cp.Mask()
}
