// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/cxxmod/cxxmod/cmd/cxxmod"

func main() {
	cmd.Execute()
}
