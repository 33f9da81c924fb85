package main

import "github.com/zzuhann/stellar/cmd/server/cmd"

func main() {
	cmd.Execute()
}
