// Package main runs the dmcache command line tool.
package main

import (
	"github.com/sarchlab/dmcache/dmcache/cmd"
)

func main() {
	cmd.Execute()
}
