package main

import "github.com/masmgr/histmigrate/cmd"

func main() {
	cmd.Run()
}
