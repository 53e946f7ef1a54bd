// Command useradmin adds an account to the cvewatch store.
//
//	useradmin -u alice [-admin] [-D pgx|sqlite] [-d DSN] [-c config.json]
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/cvewatch/internal/server/config"
	"github.com/dmitrijs2005/cvewatch/internal/useradmin"
)

func main() {

	opts, err := useradmin.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("usage: useradmin -u <username> [-admin]: %v", err)
	}

	cfg := config.LoadConfig()

	if err := useradmin.Run(context.Background(), cfg, opts, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}

}
