package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"EngDB/internal/di"
	"EngDB/internal/services/plot"
	"EngDB/pkg/config"
	xhttp "EngDB/pkg/http"
	"EngDB/pkg/server"
)

const usage = `usage: engdb [-config path] <command> [args]

commands:
  inventory                   list every mnemonic
  valid <id>                  report whether <id> is a known mnemonic
  info <id>                   print the dictionary entry of <id>
  query <id> <start> <end>    fetch the time series of <id>
  plot <id> <start> <end>     print the embeddable chart of <id>
  serve                       run the viewer HTTP API

times accept RFC3339, "2006-01-02 15:04:05.000000", a bare date,
"mjd:<days>" or unix seconds; all are UTC.
`

var errUsage = errors.New("bad usage")

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout for one-shot commands")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	if err := app.VerifyToken(ctx); err != nil {
		log.Fatalf("mast token check failed: %v", err)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "serve" {
		if err := app.Serve(ctx); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	err = run(ctx, app, cmd, args, os.Stdout)
	cancel()
	if errors.Is(err, errUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Printf("%s: %v", cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *server.App, cmd string, args []string, out io.Writer) error {
	edb := app.EngineeringDB()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	switch cmd {
	case "inventory":
		if len(args) != 0 {
			return errUsage
		}
		table, meta, err := edb.ListMnemonics(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(map[string]interface{}{"meta": meta, "rows": table})

	case "valid":
		if len(args) != 1 {
			return errUsage
		}
		ok, err := edb.IsValidMnemonic(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, ok)
		return err

	case "info":
		if len(args) != 1 {
			return errUsage
		}
		info, err := edb.QueryMnemonicInfo(ctx, args[0])
		if err != nil {
			return err
		}
		return enc.Encode(info)

	case "query", "plot":
		if len(args) != 3 {
			return errUsage
		}
		start, ok := xhttp.ParseTime(args[1])
		if !ok {
			return fmt.Errorf("start %q is not a recognised time", args[1])
		}
		end, ok := xhttp.ParseTime(args[2])
		if !ok {
			return fmt.Errorf("end %q is not a recognised time", args[2])
		}
		m, err := edb.QuerySingleMnemonic(ctx, args[0], start, end)
		if err != nil {
			return err
		}
		if cmd == "query" {
			if _, err := fmt.Fprintln(out, m.Describe()); err != nil {
				return err
			}
			return enc.Encode(m.Data())
		}
		div, script, err := m.RenderPlot(plot.NewRenderer())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n%s\n", div, script)
		return err
	}
	return errUsage
}
