package main

import (
	"github.com/quorumchain/bft/cmd/bftsim/cmd"
)

func main() {
	cmd.Execute()
}
