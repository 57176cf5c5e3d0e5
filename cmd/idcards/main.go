// Command idcards generates one identification card per roster row.
//
// Usage:
//
//	idcards -roster participants.csv -template id_cards -out output
//	idcards -template-mode fixed -template card.pdf
//	idcards -template-mode pattern -template "id_cards/ID card_{first}.pdf"
//
// Every flag can also be set through an IDCARDS_* environment variable.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/youruser/idcardapp/internal/batch"
	"github.com/youruser/idcardapp/internal/config"
)

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = batch.Run(ctx, cfg, os.Stdout)
	stop()
	if err != nil {
		config.Fail(err)
	}
}
