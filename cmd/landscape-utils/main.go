package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gruppe-adler/landscape-utils/internal/landscape"
	"github.com/gruppe-adler/landscape-utils/internal/preview"
)

type command struct {
	name        string
	description string
	run         func(flagSet *flag.FlagSet, args []string)
}

var subCommands []command

func init() {
	subCommands = []command{
		{"build", "Build heightmap and blend weights from elevation tiles and land use.", landscape.Run},
		{"fetch", "Download the elevation tiles of a build into the cache.", landscape.RunFetch},
		{"preview", "Render preview images of a build.", preview.Run},
		{"help", "Print this message.", func(*flag.FlagSet, []string) { printUsage() }},
	}
}

func printUsage() {
	fmt.Printf("USAGE:\n    %s [SUBCOMMAND] [SUBCOMMAND FLAGS]\n\n", os.Args[0])
	fmt.Print("SUBCOMMANDS: \n")

	for i := 0; i < len(subCommands); i++ {
		name := subCommands[i].name

		fmt.Printf("%12s    %s\n", name, subCommands[i].description)
	}

	fmt.Printf("\nUse -h as SUBCOMMAND FLAG to print help for each subcommand.\n\n")
}

func main() {

	if len(os.Args) < 2 {
		fmt.Printf("\nERROR: No subcommand was provided.\n\n")
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]

	for _, sub := range subCommands {
		if sub.name == cmd {
			sub.run(flag.NewFlagSet(cmd, flag.ExitOnError), args)
			return
		}
	}

	fmt.Printf("\nERROR: Subcommand '%s' was not found.\n\n", cmd)
	printUsage()
	os.Exit(1)
}
