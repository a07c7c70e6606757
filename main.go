package main

import "github.com/rxvl-d/vabiko-demo/cmd"

func main() {
	cmd.Execute()
}
