// Command sqlops renders reversible migration SQL and optionally applies it.
//
// Usage:
//
//	sqlops default orders status "'pending'"
//	sqlops sequence invoice_no_seq --start 1000
//	sqlops index idx_orders_customer orders customer_id created_at
//	sqlops function --dir ./sql functions/touch_updated_at.sql
//
// With --apply or --revert the operation runs against SQLOPS_DSN (PostgreSQL).
package main

import (
	"os"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface using Kong
var CLI struct {
	Apply  bool `name:"apply" help:"Execute the forward SQL against SQLOPS_DSN" xor:"exec"`
	Revert bool `name:"revert" help:"Execute the reverse SQL against SQLOPS_DSN" xor:"exec"`

	Default        DefaultCmd        `cmd:"" help:"Set a column default"`
	EmptyDefaults  EmptyDefaultsCmd  `cmd:"" name:"empty-defaults" help:"Set empty string defaults on columns"`
	Sequence       SequenceCmd       `cmd:"" help:"Create a sequence"`
	Index          IndexCmd          `cmd:"" help:"Create an index"`
	ZeroOne        ZeroOneCmd        `cmd:"" name:"zero-one" help:"Add a 0/1 check constraint"`
	Function       FunctionCmd       `cmd:"" help:"Create a function from a SQL file"`
	UpdateFunction UpdateFunctionCmd `cmd:"" name:"update-function" help:"Replace a function definition from SQL files"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	ctx := kong.Parse(&CLI,
		kong.Name("sqlops"),
		kong.Description("Reversible schema migration SQL"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	app := &App{
		Config: cfg,
		Out:    os.Stdout,
		Logger: newLogger(cfg.LogLevel),
		Mode:   modeFromFlags(CLI.Apply, CLI.Revert),
	}

	err = ctx.Run(app)
	ctx.FatalIfErrorf(err)
}
