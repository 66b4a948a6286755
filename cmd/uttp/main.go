package main

import "github.com/ncbi/uttp/cmd/uttp/cmd"

func main() {
	cmd.Execute()
}
