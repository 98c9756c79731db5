package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/flagx"
	"github.com/dmitrijs2005/salesdesk/internal/server"
	"github.com/dmitrijs2005/salesdesk/internal/server/config"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/salesdesk/internal/server/services"
	"github.com/dmitrijs2005/salesdesk/internal/useradd"
)

func main() {

	var username string
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.StringVar(&username, "n", "", "user name")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-n"})); err != nil {
		log.Fatalf("%v", err)
	}

	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	us := services.NewUserService(db, rm, cfg)
	if err := useradd.Run(ctx, us, bufio.NewReader(os.Stdin), os.Stdout, username); err != nil {
		log.Fatalf("%v", err)
	}

}
