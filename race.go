// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package clq

// RaceEnabled is true when the race detector is active.
// Tests skip concurrent record ring scenarios under it: a slot's record is
// published through acquire-release ordering on the slot sequence, which
// the detector cannot observe.
const RaceEnabled = true
