package cli

import (
	"strconv"
	"strings"
)

// flagsWithValue lists the flags whose value may follow as a separate argument.
var flagsWithValue = map[string]bool{"--mode": true, "-m": true}

// ParseGlobalFlags reads the flags that shape the container from raw
// arguments. They are needed before cobra parses the command line because
// the commands are built around the container.
func ParseGlobalFlags(args []string) Options {
	var opts Options
	command := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			if command == "" {
				command = arg
			}
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "--verbose":
			opts.Verbose = boolValue(value, hasValue)
		case "--ephemeral":
			opts.Ephemeral = boolValue(value, hasValue)
		default:
			if flagsWithValue[name] && !hasValue {
				i++
			}
		}
	}
	opts.ConfigCommand = command == "config"
	return opts
}

func boolValue(value string, hasValue bool) bool {
	if !hasValue {
		return true
	}
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
