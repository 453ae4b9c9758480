package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/oakfield-systems/mumps"
)

var version = "dev" // set via -ldflags at build time

// fileConfig is the optional TOML overlay for interpreter settings,
// loaded from -config before the command-line flags are applied on top
// of it.
type fileConfig struct {
	Debug            bool `toml:"debug"`
	MaxSteps         int  `toml:"max_steps"`
	MaxIndirectChase int  `toml:"max_indirect_chase"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	_, err := toml.DecodeFile(path, &fc)
	return fc, err
}

func main() {
	debugFlag := flag.Bool("debug", false, "enable interpreter trace logging")
	configFlag := flag.String("config", "", "path to a TOML config file overlaying interpreter settings")
	maxStepsFlag := flag.Int("max-steps", 0, "stop execution after this many steps: commands executed plus for-loop iterations (0 = unbounded)")
	licenseFlag := flag.Bool("version", false, "print version and exit")
	flag.Usage = showUsage
	flag.Parse()

	if *licenseFlag {
		fmt.Printf("mumps interpreter %s\n", version)
		os.Exit(0)
	}

	fc, err := loadFileConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		os.Exit(1)
	}

	cfg := mumps.DefaultConfig()
	cfg.Debug = fc.Debug || *debugFlag
	if fc.MaxIndirectChase > 0 {
		cfg.MaxIndirectChase = fc.MaxIndirectChase
	}
	cfg.MaxSteps = fc.MaxSteps
	if *maxStepsFlag > 0 {
		cfg.MaxSteps = *maxStepsFlag
	}
	if cfg.Debug {
		cfg.Logger = mumps.NewLogger(true)
		cfg.Logger.EnableAllCategories()
	}

	args := flag.Args()

	var source string
	if len(args) > 0 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading script: %v\n", err)
			os.Exit(1)
		}
		source = string(content)
	} else {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading stdin: %v\n", err)
			os.Exit(1)
		}
		source = string(content)
	}

	interp := mumps.New(cfg)
	result := interp.Evaluate(source)

	fmt.Print(result.Output)

	for _, d := range result.Errors {
		fmt.Fprintf(os.Stderr, "%s\n", d.String())
	}

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

func showUsage() {
	usage := `Usage: mumps [options] [script.m]
       mumps [options] < script.m

Run an M-family script from a file or stdin, printing accumulated
output to stdout and diagnostics to stderr.

Options:
  -debug            enable interpreter trace logging
  -config PATH      TOML file overlaying interpreter settings
  -max-steps N      stop after N steps (commands plus loop iterations; 0 = unbounded)
  -version          print version and exit
`
	fmt.Fprint(os.Stderr, usage)
}
