package main

import (
	"context"
	"flag"
	"time"

	"github.com/2beens/skischeduler/internal/exercises"
	"github.com/2beens/skischeduler/internal/store"

	log "github.com/sirupsen/logrus"
)

// assigns ids to exercises saved by older versions, which stored them without one
func main() {
	dataDir := flag.String("data-dir", "./data", "directory holding the collection files")
	flag.Parse()

	backend, err := store.NewFileBackend(*dataDir)
	if err != nil {
		log.Fatalf("open data dir: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo := exercises.NewRepo(store.New(backend, 0, nil))
	assigned, err := repo.AssignMissingIDs(ctx)
	if err != nil {
		log.Fatalf("assign missing ids: %s", err)
	}

	log.Infof("done, %d exercises got a new id", assigned)
}
