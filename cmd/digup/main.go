package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:   "digup",
	Short: "Reconcile a directory tree against a digest file, incrementally",
	Run:   mainify(runMain),
}

var rootConfiguration struct {
	help          bool
	batch         bool
	check         bool
	directory     string
	file          string
	links         bool
	modified      bool
	modifyWindow  int64
	quiet         bool
	verbose       int
	restrict      string
	algorithm     string
	update        bool
	excludeMarker string
	windows       bool
	version       bool
}

func init() {
	flags := rootCommand.Flags()
	flags.SortFlags = false

	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.batch, "batch", "b", false, "Run non-interactively; the exit code signals clean/dirty")
	flags.BoolVarP(&rootConfiguration.check, "check", "c", false, "Recompute every digest regardless of modification time")
	flags.StringVarP(&rootConfiguration.directory, "directory", "d", "", "Change to PATH before any operation")
	flags.StringVarP(&rootConfiguration.file, "file", "f", "", "Use FILE as the digest file")
	flags.BoolVarP(&rootConfiguration.links, "links", "l", false, "Follow symbolic links instead of recording them")
	flags.BoolVarP(&rootConfiguration.modified, "modified", "m", false, "Suppress unchanged entries in verbose output")
	flags.Int64Var(&rootConfiguration.modifyWindow, "modify-window", 0, "Set the modification time slack, in seconds")
	flags.BoolVarP(&rootConfiguration.quiet, "quiet", "q", false, "Suppress everything but fatal errors and advisory diagnostics")
	flags.CountVarP(&rootConfiguration.verbose, "verbose", "v", "Increase verbosity; may be repeated")
	flags.StringVarP(&rootConfiguration.restrict, "restrict", "r", "", "Restrict processing to paths containing PAT")
	flags.StringVarP(&rootConfiguration.algorithm, "type", "t", "", "Select the digest algorithm for new files (md5|sha1|sha256|sha512)")
	flags.BoolVarP(&rootConfiguration.update, "update", "u", false, "Automatically write the digest file in batch mode")
	flags.StringVar(&rootConfiguration.excludeMarker, "exclude-marker", "", "Skip directories containing an entry named NAME")
	flags.BoolVarP(&rootConfiguration.windows, "windows", "w", false, "Equivalent to --modify-window=1")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Print version information and exit")

	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(255)
	}
}
