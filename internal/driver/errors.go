package driver

import (
	"errors"
	"fmt"
)

// StatusCode mirrors the small slice of OpenCL error codes this module
// cares about, returned by Stub and expected from any real driver binding.
type StatusCode int

const (
	StatusSuccess StatusCode = iota
	StatusDeviceNotAvailable
	StatusOutOfResources
	StatusMemObjectAllocationFailure
	StatusInvalidMemObject
	StatusInvalidContext
	StatusInvalidCommandQueue
	StatusInvalidValue
	StatusInvalidKernelArgs
	StatusMemCopyOverlap
	StatusBuildProgramFailure
)

func (c StatusCode) String() string {
	switch c {
	case StatusSuccess:
		return "CL_SUCCESS"
	case StatusDeviceNotAvailable:
		return "CL_DEVICE_NOT_AVAILABLE"
	case StatusOutOfResources:
		return "CL_OUT_OF_RESOURCES"
	case StatusMemObjectAllocationFailure:
		return "CL_MEM_OBJECT_ALLOCATION_FAILURE"
	case StatusInvalidMemObject:
		return "CL_INVALID_MEM_OBJECT"
	case StatusInvalidContext:
		return "CL_INVALID_CONTEXT"
	case StatusInvalidCommandQueue:
		return "CL_INVALID_COMMAND_QUEUE"
	case StatusInvalidValue:
		return "CL_INVALID_VALUE"
	case StatusInvalidKernelArgs:
		return "CL_INVALID_KERNEL_ARGS"
	case StatusMemCopyOverlap:
		return "CL_MEM_COPY_OVERLAP"
	case StatusBuildProgramFailure:
		return "CL_BUILD_PROGRAM_FAILURE"
	default:
		return fmt.Sprintf("CL_UNKNOWN(%d)", int(c))
	}
}

// StatusError is the concrete error type Stub returns; real bindings should
// return an error satisfying the same Code() contract so callers one layer
// up can classify failures without string matching.
type StatusError struct {
	Code StatusCode
	Op   string
}

func (e *StatusError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("driver: %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("driver: %s", e.Code)
}

// CodeOf extracts the StatusCode from err, if err is (or wraps) a
// *StatusError; ok is false otherwise.
func CodeOf(err error) (code StatusCode, ok bool) {
	var se *StatusError
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code, true
}

// IsAllocationFailure reports whether err represents a driver-side
// out-of-memory condition, the case callers map to KindDeviceOOM.
func IsAllocationFailure(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	return code == StatusMemObjectAllocationFailure || code == StatusOutOfResources
}
