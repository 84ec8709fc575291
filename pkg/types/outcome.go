// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Outcome is the result of resolving one paper. Exactly one of the
// constructor shapes applies: Success carries PDFURL and Method,
// AlreadyExists carries LocalPath, Failed carries Reason.
type Outcome struct {
	Status    Status
	Method    Method
	PDFURL    string
	LocalPath string
	Reason    FailureReason
	Pages     int

	// Detail is a human-readable diagnostic for failures.
	Detail string
}

// Success builds a Success outcome for a verified PDF stored at path.
func Success(pdfURL string, method Method, path string) Outcome {
	return Outcome{Status: StatusSuccess, Method: method, PDFURL: pdfURL, LocalPath: path}
}

// AlreadyExists builds an outcome for a PDF already present on disk.
func AlreadyExists(path string) Outcome {
	return Outcome{Status: StatusExists, Method: MethodExisting, LocalPath: path}
}

// Failed builds a Failed outcome.
func Failed(reason FailureReason, detail string) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Detail: detail}
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusSuccess:
		return fmt.Sprintf("success (%s) %s", o.Method, o.PDFURL)
	case StatusExists:
		return fmt.Sprintf("exists %s", o.LocalPath)
	default:
		if o.Detail != "" {
			return fmt.Sprintf("failed (%s): %s", o.Reason, o.Detail)
		}
		return fmt.Sprintf("failed (%s)", o.Reason)
	}
}
