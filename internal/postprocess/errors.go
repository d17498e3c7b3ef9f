// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package postprocess

import "strings"

// CycleError reports that the declared reads/writes of a calculator set
// form a cycle, so no run order exists. Raised at pipeline-build time;
// fatal, matching §7's ConfigError class.
type CycleError struct {
	Calculators []string
}

func (e *CycleError) Error() string {
	return "postprocess: cycle detected among calculators: " + strings.Join(e.Calculators, ", ")
}
