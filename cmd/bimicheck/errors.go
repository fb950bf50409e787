// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package main

import "fmt"

// exitError carries a process exit code out of a command without go-flags
// printing it as a usage error.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func failWith(code int, format string, args ...any) error {
	return &exitError{code: code, msg: fmt.Sprintf(format, args...)}
}
