package main

import "github.com/shaharia-lab/stockbell/cmd"

func main() {
	cmd.Execute()
}
