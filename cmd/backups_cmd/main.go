package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/2beens/skischeduler/internal/logging"
	"github.com/2beens/skischeduler/pkg"

	log "github.com/sirupsen/logrus"
)

// writes a tar.gz snapshot of the data dir (the file storage backend) into the backups dir
func main() {
	dataDir := flag.String("data-dir", "./data", "directory holding the collection files")
	backupsDir := flag.String("backups-dir", "./backups", "directory the archives are written to")
	logsPath := flag.String("logs-path", "", "logs file path (empty for stdout)")
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{
		LogFileName: *logsPath,
		LogLevel:    "info",
	})

	log.Println("starting data backup ...")

	exists, err := pkg.PathExists(*dataDir, true)
	if err != nil {
		log.Fatalf("check data dir: %s", err)
	}
	if !exists {
		log.Fatalf("data dir [%s] does not exist", *dataDir)
	}

	if err := pkg.EnsureDir(*backupsDir); err != nil {
		log.Fatalf("ensure backups dir: %s", err)
	}

	var buf bytes.Buffer
	if err := pkg.Compress(*dataDir, &buf); err != nil {
		log.Fatalf("compress data dir: %s", err)
	}

	archiveName := fmt.Sprintf("ski-scheduler-data-%s.tar.gz", time.Now().UTC().Format("20060102-150405"))
	archivePath := filepath.Join(*backupsDir, archiveName)
	if err := os.WriteFile(archivePath, buf.Bytes(), 0o600); err != nil {
		log.Fatalf("write archive: %s", err)
	}

	log.Printf("backup done: %s (%d bytes)", archivePath, buf.Len())
}
