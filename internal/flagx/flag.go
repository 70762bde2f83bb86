// Package flagx lets several independent flag sets share one command line:
// each consumer filters os.Args down to the flags it owns before parsing.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args that belongs to allowedFlags, keeping
// flag values that follow as separate tokens ("-c conf.json") and combined
// forms ("--config=conf.json"). Like the flag package, a separate value may
// begin with "-". The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		// the next token is the value unless it is another allowed flag, so
		// values may start with "-"
		if i+1 < len(args) && !isAllowedFlag(args[i+1], allowed) {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

func isAllowedFlag(arg string, allowed map[string]struct{}) bool {
	name, _, _ := strings.Cut(arg, "=")
	_, ok := allowed[name]
	return ok
}

// ConfigFileFlag extracts the configuration file path given with -c or
// -config. An empty string means no file was requested; when both forms are
// present the last one wins.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file (json or yaml)")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
