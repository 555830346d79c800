// templates provides the functions available to the text templates
// that expand configuration files, on top of the sprig functions.
//
// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package templates

import (
	"runtime"
	"text/template"
)

// TxtFuncMap gives the template functions.
func TxtFuncMap() template.FuncMap {
	return template.FuncMap{
		"os": func() string {
			return runtime.GOOS
		},
		"arch": func() string {
			return runtime.GOARCH
		},
	}
}
