package main

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/swelljoe/citywthr/internal/config"
	"github.com/swelljoe/citywthr/internal/db"
)

const (
	citiesURL = "https://download.geonames.org/export/dump/cities15000.zip"
	dataDir   = "data"
	batchSize = 5000
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	envFile := flag.String("env", ".env", "path to an optional dotenv file")
	url := flag.String("url", citiesURL, "GeoNames cities dump to import")
	minPopulation := flag.Int64("min-population", 0, "skip places smaller than this")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load %s: %v", *envFile, err)
	}
	cfg := config.Load()

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// Initialize DB
	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer database.Close()

	zipPath := filepath.Join(dataDir, filepath.Base(*url))
	if _, err := os.Stat(zipPath); os.IsNotExist(err) {
		fmt.Printf("Downloading %s...\n", *url)
		if err := downloadFile(*url, zipPath); err != nil {
			return err
		}
	} else {
		fmt.Printf("Using existing %s\n", zipPath)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".txt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		imp, err := database.BeginImport()
		if err != nil {
			return fmt.Errorf("failed to start import: %w", err)
		}
		defer imp.Rollback()

		count, err := importPlaces(imp, rc, *minPopulation)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", f.Name, err)
		}
		if err := imp.Commit(); err != nil {
			return fmt.Errorf("failed to commit import: %w", err)
		}
		fmt.Printf("\nFinished importing %d places into %s.\n", count, cfg.DBPath)
		return nil
	}
	return fmt.Errorf("no txt file found in %s", zipPath)
}

// downloadFile writes url to dest only once the whole body has arrived, so
// a failed download never leaves a partial file to be reused.
func downloadFile(url, dest string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(out.Name())

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(out.Name(), dest)
}

type placeWriter interface {
	InsertPlaces(places []db.Place) (int, error)
}

// importPlaces streams a GeoNames dump into the index in batches
func importPlaces(w placeWriter, r io.Reader, minPopulation int64) (int, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	count := 0
	batch := make([]db.Place, 0, batchSize)
	flush := func() error {
		n, err := w.InsertPlaces(batch)
		if err != nil {
			return err
		}
		count += n
		batch = batch[:0]
		fmt.Printf("Imported %d places...\r", count)
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed lines
		}

		place, err := parseRecord(record)
		if err != nil {
			log.Printf("Skipping record: %v", err)
			continue
		}
		if place.Population < minPopulation {
			continue
		}

		batch = append(batch, place)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return count, err
			}
		}
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// parseRecord reads one line of the GeoNames "geoname" table:
// geonameid(0) name(1) asciiname(2) alternatenames(3) latitude(4) longitude(5)
// feature class(6) feature code(7) country code(8) cc2(9) admin1 code(10)
// admin2(11) admin3(12) admin4(13) population(14) ...
func parseRecord(record []string) (db.Place, error) {
	if len(record) < 15 {
		return db.Place{}, fmt.Errorf("short record (%d fields)", len(record))
	}

	name := strings.TrimSpace(record[1])
	if name == "" {
		return db.Place{}, errors.New("missing name")
	}

	lat, lon, err := parseAndValidateCoordinates(strings.TrimSpace(record[4]), strings.TrimSpace(record[5]))
	if err != nil {
		return db.Place{}, fmt.Errorf("coordinates for %s: %w", name, err)
	}

	var population int64
	if p := strings.TrimSpace(record[14]); p != "" {
		population, err = strconv.ParseInt(p, 10, 64)
		if err != nil {
			return db.Place{}, fmt.Errorf("population for %s: %w", name, err)
		}
	}

	ascii := strings.TrimSpace(record[2])
	if ascii == "" {
		ascii = name
	}

	return db.Place{
		Name:       name,
		ASCIIName:  ascii,
		Country:    strings.TrimSpace(record[8]),
		Admin1:     strings.TrimSpace(record[10]),
		Latitude:   lat,
		Longitude:  lon,
		Population: population,
	}, nil
}

// parseAndValidateCoordinates parses and validates latitude and longitude strings
func parseAndValidateCoordinates(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude out of range: %f", lat)
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("longitude out of range: %f", lon)
	}

	return lat, lon, nil
}
