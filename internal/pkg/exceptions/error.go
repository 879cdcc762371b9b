package exceptions

import (
	"chartseed-service/internal/pkg/constvars"
	"errors"
	"fmt"
	"runtime"
)

type CustomError struct {
	StatusCode    int      `json:"status_code"`
	Success       bool     `json:"success"`
	ClientMessage string   `json:"message"`
	DevMessage    string   `json:"dev_message,omitempty"`
	Location      Location `json:"-"`
}

type Location struct {
	File         string
	Line         int
	FunctionName string
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%s (%s:%d %s)", e.DevMessage, e.Location.File, e.Location.Line, e.Location.FunctionName)
}

func BuildNewCustomError(err error, statusCode int, clientMessage, devMessage string) *CustomError {
	location := getLocation(2)
	devMsg := devMessage
	if err != nil {
		devMsg = fmt.Sprintf("%s: %s", devMessage, err.Error())
	}
	return &CustomError{
		StatusCode:    statusCode,
		ClientMessage: clientMessage,
		DevMessage:    devMsg,
		Location:      location,
	}
}

// IsNotFound reports whether err represents a missing upstream resource.
func IsNotFound(err error) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.StatusCode == constvars.StatusNotFound
	}
	return false
}

// IsGone reports whether err represents a resource that was already deleted upstream.
func IsGone(err error) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.StatusCode == constvars.StatusGone
	}
	return false
}

// IsConflict reports whether err represents a referential-integrity rejection.
func IsConflict(err error) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.StatusCode == constvars.StatusConflict
	}
	return false
}

func getLocation(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{
			File:         constvars.ResponseUnknown,
			Line:         0,
			FunctionName: constvars.ResponseUnknown,
		}
	}
	function := runtime.FuncForPC(pc).Name()
	return Location{
		File:         file,
		Line:         line,
		FunctionName: function,
	}
}
