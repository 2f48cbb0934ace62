package main

import "github.com/pgschemaplan/pgschemaplan/cmd"

func main() {
	cmd.Execute()
}
