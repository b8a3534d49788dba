package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"customtex/internal/cli"
	"customtex/internal/customs"
	"customtex/internal/host/memhost"
	"customtex/internal/manifest"
	"customtex/internal/scenemod"
	"customtex/internal/variant"
)

func main() {
	var common cli.Common
	common.Register(flag.CommandLine)
	trees := flag.Bool("trees", false, "Print scene mod node trees")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: inspect [flags] <mixtape dir or archive>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, log, err := common.Load()
	if err != nil {
		cli.Fatal("%v", err)
	}
	mt, err := cli.Open(flag.Arg(0), cfg, log)
	if err != nil {
		cli.Fatal("%v", err)
	}
	defer mt.Close()

	catalog, err := common.Catalog(mt.Dir)
	if err != nil {
		cli.Fatal("%v", err)
	}
	m := customs.New(log, cfg, memhost.NewGraphics(), catalog, nil)
	m.ReadDirectory(mt.Dir, false)
	defer m.DeleteTempDirectory()

	mf := m.Manifest()
	fmt.Printf("Mixtape: %s\n", flag.Arg(0))
	if mf.Exists {
		fmt.Printf("Version: %s (release %d, %s)\n", mf.Version, mf.Release, mf.Status())
	} else {
		fmt.Printf("Version: no %s (treated as release %d)\n", manifest.FileName, mf.Release)
	}
	dirs := m.Dirs()
	fmt.Printf("Texture dirs: %s\n", list(dirs.Textures))
	fmt.Printf("Scene dirs: %s\n", list(dirs.Scenes))
	if fr := m.Frame(); fr.Len() > 0 {
		fmt.Printf("Referenced by events: %s\n", list(fr.Paths()))
	}
	fmt.Println("------------------------------------------------------------")

	textures := m.Textures()
	for _, sc := range textures.Scenes() {
		fmt.Printf("%s: %d textures\n", sc, textures.TextureCount(sc))
		if names := m.Variants().Names(sc); len(names) > 0 {
			fmt.Printf("  variants: %s\n", strings.Join(names, ", "))
		}
		for _, info := range textures.Slots(sc) {
			var vs []string
			for _, id := range info.Variants {
				if id == variant.Base {
					vs = append(vs, "base")
				} else {
					vs = append(vs, m.Variants().Name(sc, id))
				}
			}
			fmt.Printf("  %-8s %-24s %4dx%-4d [%s]\n", info.Slot.Kind, info.Slot, info.Width, info.Height, strings.Join(vs, " "))
		}
	}

	mods := m.SceneMods()
	for _, sc := range mods.Scenes() {
		doc, _ := mods.Document(sc)
		fmt.Printf("%s: scene mod, events [%s]\n", sc, strings.Join(doc.Order, ", "))
		if *trees {
			printNode(doc.Init, 1)
			for _, key := range doc.Order {
				fmt.Printf("  event %q\n", key)
				printNode(doc.Events[key], 2)
			}
		}
	}

	if !m.HasCustomAssets() {
		fmt.Println("No custom assets found.")
	}
}

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func printNode(n *scenemod.Node, depth int) {
	if n == nil {
		return
	}
	var parts []string
	if n.Active != nil {
		parts = append(parts, fmt.Sprintf("active=%v", *n.Active))
	}
	for _, mu := range n.Mutations {
		parts = append(parts, mu.Component())
	}
	fmt.Printf("%s%s %s\n", strings.Repeat("  ", depth), n.Name, strings.Join(parts, " "))
	for _, c := range n.Children {
		printNode(c, depth+1)
	}
	for _, c := range n.Deferred {
		printNode(c, depth+1)
	}
}
