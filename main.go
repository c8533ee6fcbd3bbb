package main

import "github.com/lepinkainen/cadastro/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
