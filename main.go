package main

import "github.com/khanhnv2901/riskscan/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
