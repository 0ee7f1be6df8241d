package main

import "github.com/alntools/alntools/cmd/bio-alntools/cmd"

func main() {
	cmd.Run()
}
