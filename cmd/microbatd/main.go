// Command microbatd is microbat's server daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/mickamy/microbat/catalog"
	"github.com/mickamy/microbat/server"
	"github.com/mickamy/microbat/value"
)

func main() {
	fs := flag.NewFlagSet("microbatd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:5433", "address to listen on")
	version := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: microbatd [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if *version {
		fmt.Println("microbatd (dev)")
		return
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		logger.Fatalf("microbatd: listen: %v", err)
	}
	logger.Printf("microbatd: listening on %s", lis.Addr())

	cat := catalog.New()
	seedDemoData(cat)

	srv := server.New(cat, logger)
	if err := srv.Serve(ctx, lis); err != nil {
		logger.Fatalf("microbatd: serve: %v", err)
	}
	logger.Printf("microbatd: shut down")
}

// seedDemoData populates two tables with a handful of rows. The grammar has
// no INSERT statement, so this is the only way any table in a freshly
// started server ever has data in it: the catalog's own Insert, called
// directly rather than through a parsed query.
func seedDemoData(cat *catalog.Catalog) {
	mustCreate(cat, "people", value.NewTableSchema(
		value.Column{Name: "id", DataType: value.Integer},
		value.Column{Name: "name", DataType: value.Varchar},
	))
	mustInsert(cat, "people", value.NewInteger(1), value.NewVarchar("Juho"))
	mustInsert(cat, "people", value.NewInteger(2), value.NewVarchar("Simo"))

	mustCreate(cat, "departments", value.NewTableSchema(
		value.Column{Name: "id", DataType: value.Integer},
		value.Column{Name: "name", DataType: value.Varchar},
	))
	mustInsert(cat, "departments", value.NewInteger(1), value.NewVarchar("Engineering"))
}

func mustCreate(cat *catalog.Catalog, name string, schema value.TableSchema) {
	if err := cat.CreateTable(name, schema); err != nil {
		panic(fmt.Sprintf("microbatd: seed %s: %v", name, err))
	}
}

func mustInsert(cat *catalog.Catalog, name string, values ...value.Value) {
	if err := cat.Insert(name, values...); err != nil {
		panic(fmt.Sprintf("microbatd: seed %s: %v", name, err))
	}
}
