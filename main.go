package main

import "github.com/peekknuf/dataiq/cmd"

func main() {
	cmd.Execute()
}
