package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"shopcart/internal/model"

	"github.com/shopspring/decimal"
)

// seedgen writes a small sample catalogue as gzipped JSON lines, the format
// read by the API's seeder.
func main() {
	out := flag.String("out", "data/seed/products.jsonl.gz", "output file")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	products := sampleCatalogue()
	if err := writeSeedFile(*out, products); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	fmt.Printf("Created %s with %d products\n", *out, len(products))
}

func sampleCatalogue() []model.ProductRequest {
	image := func(slug string) *string {
		u := "https://images.example.com/products/" + slug + ".jpg"
		return &u
	}
	product := func(name, description, price string, stock int, category, slug string) model.ProductRequest {
		return model.ProductRequest{
			Name:        name,
			Description: description,
			Price:       decimal.RequireFromString(price),
			Stock:       stock,
			Category:    category,
			ImageURL:    image(slug),
		}
	}

	return []model.ProductRequest{
		product("Wireless Mouse", "Ergonomic 2.4GHz mouse with silent clicks", "24.99", 40, "Electronics", "wireless-mouse"),
		product("Mechanical Keyboard", "Tenkeyless keyboard with brown switches", "89.00", 15, "Electronics", "mechanical-keyboard"),
		product("USB-C Hub", "7-in-1 hub with HDMI and card reader", "39.50", 25, "Electronics", "usb-c-hub"),
		product("Desk Lamp", "Dimmable LED lamp with adjustable arm", "32.00", 20, "Home", "desk-lamp"),
		product("Ceramic Mug", "350ml stoneware mug", "10.00", 5, "Kitchen", "ceramic-mug"),
		product("Tea Sampler", "Six loose leaf teas", "5.50", 1, "Kitchen", "tea-sampler"),
		product("Hardcover Notebook", "A5 dotted notebook, 192 pages", "14.25", 60, "Stationery", "hardcover-notebook"),
		product("Gel Pen Set", "Pack of 10 assorted colours", "7.99", 80, "Stationery", "gel-pen-set"),
		product("Running Socks", "Cushioned ankle socks, 3 pairs", "12.00", 50, "Apparel", "running-socks"),
		product("Canvas Tote", "Heavy cotton tote bag", "18.00", 0, "Apparel", "canvas-tote"),
	}
}

func writeSeedFile(filePath string, products []model.ProductRequest) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := json.NewEncoder(gzipWriter)
	for _, p := range products {
		if err := encoder.Encode(p); err != nil {
			return fmt.Errorf("failed to write product %q: %w", p.Name, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}
