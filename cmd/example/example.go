package main

import (
	"context"
	"flag"
	"log"

	"github.com/xdbsoft/couchrepo"
	"github.com/xdbsoft/couchrepo/api"
	"github.com/xdbsoft/couchrepo/transport"
)

var configPath = flag.String("config", "", "optional configuration file")
var storeURL = flag.String("url", "http://localhost:5984", "URL of the store")
var database = flag.String("db", "example", "database name")

func main() {

	flag.Parse()

	cfg := couchrepo.Config{URL: *storeURL, Database: *database, Debug: true}
	if len(*configPath) > 0 {
		var err error
		if cfg, err = couchrepo.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}

	ctx := context.Background()

	client, err := couchrepo.NewHTTPClient(ctx, cfg.Auth)
	if err != nil {
		log.Fatal(err)
	}

	repo, err := couchrepo.New(cfg, transport.HTTP(client))
	if err != nil {
		log.Fatal(err)
	}

	doc := api.Map{"type": "note", "title": "first"}
	info, err := repo.Save(ctx, doc)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("created", info.ID, info.Rev)
	firstRev := info.Rev

	loaded, err := repo.Load(ctx, info.ID)
	if err != nil {
		log.Fatal(err)
	}
	loaded["title"] = "updated"

	info, err = repo.Save(ctx, loaded)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("updated", info.ID, info.Rev)

	// The first revision is stale now
	_, err = repo.Save(ctx, api.Map{"_id": info.ID, "_rev": firstRev, "title": "lost"})
	switch {
	case couchrepo.IsConflict(err):
		log.Println("stale write rejected")
	case err != nil:
		log.Fatal(err)
	default:
		log.Fatal("stale write unexpectedly accepted")
	}

	rows, err := repo.Query().AllDocsRows(ctx, api.Params{"include_docs": true})
	if err != nil {
		log.Fatal(err)
	}
	log.Println(rows.TotalRows, "documents")

	if _, err := repo.Delete(ctx, api.Map{"_id": info.ID, "_rev": info.Rev}); err != nil {
		log.Fatal(err)
	}
	log.Println("deleted", info.ID)
}
