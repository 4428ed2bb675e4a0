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

// Filesystem path limits, from Linux's include/uapi/linux/limits.h.
const (
	// NAME_MAX is the maximum length of a path component, not including
	// the terminating NUL byte.
	NAME_MAX = 255

	// PATH_MAX is the maximum length of a path, including the terminating
	// NUL byte.
	PATH_MAX = 4096
)
