// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	rterrors "powerdata/cli/internal/errors"
)

// PresentError renders err for the terminal, masked and tagged with its
// runtime error code when it has one.
func PresentError(prefix string, err error) string {
	if err == nil {
		return ""
	}
	msg := Mask(err.Error())
	if code, ok := rterrors.CodeOf(err); ok {
		return fmt.Sprintf("%s [%s]: %s", prefix, code, msg)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}
