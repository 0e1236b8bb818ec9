package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"landmarkfp/utils"
)

const (
	songsDir = "songs"
	dbPath   = "landmarkfp.db"
)

func main() {
	_ = utils.CreateFolder("tmp")
	_ = utils.CreateFolder(songsDir)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	switch os.Args[1] {
	case "match":
		if len(os.Args) < 3 {
			fmt.Println("usage: landmarkfp match <path_to_audio_file>")
			os.Exit(1)
		}
		matchCmd(os.Args[2])

	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		port := serveCmd.String("p", "5000", "port to use")
		serveCmd.Parse(os.Args[2:])
		serve(*port)

	case "erase":
		all := false
		if len(os.Args) > 2 {
			switch os.Args[2] {
			case "db":
				all = false
			case "all":
				all = true
			default:
				fmt.Println("usage: landmarkfp erase [db | all]")
				os.Exit(1)
			}
		}
		eraseCmd(all)

	case "add":
		addCmd := flag.NewFlagSet("add", flag.ExitOnError)
		addCmd.Parse(os.Args[2:])
		if addCmd.NArg() < 1 {
			fmt.Println("usage: landmarkfp add <path_to_file_or_dir>")
			os.Exit(1)
		}
		addPathCmd(addCmd.Arg(0))

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: landmarkfp <command>")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  add   <file_or_dir>       fingerprint and store audio file(s)")
	fmt.Println("  match <audio_file>        match a file against the store")
	fmt.Println("  erase [db | all]          clear the store (and optionally audio files)")
	fmt.Println("  serve [-p 5000]           start the web server")
}
