package version

import (
	"context"
	"fmt"

	"github.com/mellow-player/mellow/color"
	"github.com/mellow-player/mellow/constant"
	"github.com/mellow-player/mellow/icon"
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/log"
	"github.com/mellow-player/mellow/style"
	"github.com/mellow-player/mellow/util"
	"github.com/spf13/viper"
)

// Notify prints a short banner when a newer release exists.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest(context.Background())
	erase()
	if err != nil {
		log.Warnf("version check: %v", err)
		return
	}
	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/mellow-player/mellow/releases/tag/v"+latest),
	)
}
