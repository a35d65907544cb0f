package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/jinzhu/configor"

	"github.com/xdbsoft/couchrepo/devserver"
)

func loadConfig(path string) (devserver.Config, error) {

	var cfg devserver.Config
	if err := configor.Load(&cfg, path); err != nil {
		return cfg, err
	}

	return cfg, nil
}

var configPath = flag.String("config", "couchrepo_server.toml", "path to the configuration file")
var listenAddr = flag.String("addr", ":5984", "address and port to listen on")

func main() {

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("%+v", cfg)

	h, err := devserver.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	s := &http.Server{
		Addr:           *listenAddr,
		Handler:        handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(os.Stdout, h)),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	log.Fatal(s.ListenAndServe())

}
