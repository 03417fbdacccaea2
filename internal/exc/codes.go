// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package exc

const (
	CodeUnknownFatal                   = "F0000"
	CodeFileNotFound                   = "F0001"
	CodeUnsupportedFileSystemOperation = "F0002"
	CodeUnsupportedFileFormat          = "F0003"
	CodeInvalidTokenStream             = "F0004"
	CodeUnexpectedEOF                  = "F0005"
	CodeUnexpectedToken                = "F0006"
	CodeTodoConstruct                  = "F0007"
	CodeUnhandledConstruct             = "F0008"
	CodeProtobufParseError             = "F0009"
	CodeInvalidNumber                  = "F0010"
	CodeEOF                            = "F0011"
	CodePermissionDenied               = "F0012"
)

var defaultNonFatal = map[string]bool{}

// RecoveryCodes are the codes demoted to non-fatal when unit-granular error
// recovery is enabled: the offending unit is abandoned and recorded, the
// batch continues.
var RecoveryCodes = []string{
	CodeUnexpectedToken,
	CodeUnexpectedEOF,
	CodeTodoConstruct,
}
