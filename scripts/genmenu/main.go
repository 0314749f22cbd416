package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"orderdesk/internal/model"

	"github.com/google/uuid"
)

type sampleProduct struct {
	slug        string
	name        string
	description string
	priceCents  int64
}

// Ids are derived from the slug so re-running the import updates rows in place.
var samples = []sampleProduct{
	{"espresso", "Espresso", "Miscela della casa", 150},
	{"cappuccino", "Cappuccino", "Con latte intero o vegetale", 220},
	{"cornetto", "Cornetto", "Vuoto, crema o marmellata", 180},
	{"cornetto-pistacchio", "Cornetto al pistacchio", "", 250},
	{"spremuta", "Spremuta d'arancia", "Arance di Sicilia", 400},
	{"tramezzino", "Tramezzino", "Tonno e carciofi", 450},
	{"panino", "Panino crudo e mozzarella", "", 650},
	{"tiramisu", "Tiramisù", "Fatto in casa", 550},
}

func main() {
	out := flag.String("out", "data/menu/menu.jsonl.gz", "output file")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	if err := writeMenu(*out); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	fmt.Printf("Created %s with %d products\n", *out, len(samples))
	fmt.Println("Import it with MENU_SEED_FILES=" + *out)
}

func writeMenu(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	enc := json.NewEncoder(gzipWriter)

	for i, s := range samples {
		p := model.Product{
			ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte("orderdesk/menu/"+s.slug)),
			Name:       s.name,
			PriceCents: s.priceCents,
			Available:  true,
			Position:   i + 1,
		}
		if s.description != "" {
			desc := s.description
			p.Description = &desc
		}
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to write product: %w", err)
		}
	}

	return gzipWriter.Close()
}
