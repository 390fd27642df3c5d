package main

import (
	"github.com/mellow-player/mellow/cmd"
	"github.com/mellow-player/mellow/config"
	"github.com/mellow-player/mellow/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())
	cmd.Execute()
}
