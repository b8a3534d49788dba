package main

import (
	"flag"
	"fmt"

	"customtex/internal/cli"
	"customtex/internal/pack"
)

func main() {
	var common cli.Common
	common.Register(flag.CommandLine)
	flag.Parse()

	cfg, log, err := common.Load()
	if err != nil {
		cli.Fatal("%v", err)
	}
	files := pack.NewManager(log, cfg.TempRoot)
	removed, err := files.CleanStale()
	if err != nil {
		cli.Fatal("%v", err)
	}
	fmt.Printf("Removed %d stale temp director%s under %s\n", removed, plural(removed), cfg.TempRoot)
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
