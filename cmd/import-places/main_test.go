package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/swelljoe/citywthr/internal/db"
)

const sampleDump = "2988507\tParis\tParis\tLutece,Paname\t48.85341\t2.3488\tP\tPPLC\tFR\t\t11\t75\t751\t75056\t2138551\t\t42\tEurope/Paris\t2024-01-01\n" +
	"2657896\tZürich\tZurich\t\t47.36667\t8.55\tP\tPPLA\tCH\t\tZH\t112\t261\t\t341730\t\t413\tEurope/Zurich\t2024-01-01\n" +
	"9999999\tNowhere\tNowhere\t\t123.0\t8.55\tP\tPPL\tXX\t\t\t\t\t\t100\t\t\t\t\n" +
	"broken line\n" +
	"4717560\tParis\tParis\t\t33.66094\t-95.55551\tP\tPPLA2\tUS\t\tTX\t277\t\t\t24782\t\t183\tAmerica/Chicago\t2024-01-01\n"

type recordingWriter struct {
	batches [][]db.Place
}

func (w *recordingWriter) InsertPlaces(places []db.Place) (int, error) {
	w.batches = append(w.batches, append([]db.Place(nil), places...))
	return len(places), nil
}

func TestImportPlaces(t *testing.T) {
	w := &recordingWriter{}
	count, err := importPlaces(w, strings.NewReader(sampleDump), 0)
	if err != nil {
		t.Fatalf("importPlaces() error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 places, got %d", count)
	}
	if len(w.batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(w.batches))
	}

	zurich := w.batches[0][1]
	if zurich.Name != "Zürich" || zurich.ASCIIName != "Zurich" || zurich.Country != "CH" || zurich.Admin1 != "ZH" {
		t.Errorf("unexpected record: %+v", zurich)
	}
	if zurich.Population != 341730 {
		t.Errorf("expected population 341730, got %d", zurich.Population)
	}
}

func TestImportPlacesMinPopulation(t *testing.T) {
	w := &recordingWriter{}
	count, err := importPlaces(w, strings.NewReader(sampleDump), 100000)
	if err != nil {
		t.Fatalf("importPlaces() error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 places above the threshold, got %d", count)
	}
}

func TestParseRecordErrors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
	}{
		{name: "short", record: []string{"1", "Paris"}},
		{name: "no name", record: strings.Split("1\t\t\t\t48.8\t2.3\tP\tPPL\tFR\t\t11\t\t\t\t100", "\t")},
		{name: "bad population", record: strings.Split("1\tParis\tParis\t\t48.8\t2.3\tP\tPPL\tFR\t\t11\t\t\t\tmany", "\t")},
		{name: "bad longitude", record: strings.Split("1\tParis\tParis\t\t48.8\teast\tP\tPPL\tFR\t\t11\t\t\t\t100", "\t")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseRecord(tt.record); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseAndValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lon     string
		wantErr bool
	}{
		{name: "valid", lat: "48.85341", lon: "2.3488"},
		{name: "bounds", lat: "-90", lon: "180"},
		{name: "latitude too high", lat: "90.5", lon: "0", wantErr: true},
		{name: "longitude too low", lat: "0", lon: "-180.1", wantErr: true},
		{name: "not a number", lat: "abc", lon: "0", wantErr: true},
		{name: "empty", lat: "", lon: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseAndValidateCoordinates(tt.lat, tt.lon)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseAndValidateCoordinates(%q, %q) error = %v, wantErr %v", tt.lat, tt.lon, err, tt.wantErr)
			}
		})
	}
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cities.zip" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "zipdata")
	}))
	defer srv.Close()

	dir := t.TempDir()

	t.Run("success", func(t *testing.T) {
		dest := filepath.Join(dir, "cities.zip")
		if err := downloadFile(srv.URL+"/cities.zip", dest); err != nil {
			t.Fatalf("downloadFile() error: %v", err)
		}
		data, err := os.ReadFile(dest)
		if err != nil || string(data) != "zipdata" {
			t.Errorf("unexpected file contents %q, %v", data, err)
		}
	})

	t.Run("bad status leaves nothing behind", func(t *testing.T) {
		dest := filepath.Join(dir, "missing.zip")
		if err := downloadFile(srv.URL+"/missing.zip", dest); err == nil {
			t.Fatal("expected an error for a 404")
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Errorf("expected no file at %s, got %v", dest, err)
		}
	})

	t.Run("no temporary files left", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".part") {
				t.Errorf("leftover temporary file %s", e.Name())
			}
		}
	})
}

func TestDownloadFileTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("partial"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "cities.zip")
	if err := downloadFile(srv.URL, dest); err == nil {
		t.Fatal("expected an error for a truncated body")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("a truncated download must not be kept, got %v", err)
	}
}

func TestImportPlacesIntoIndex(t *testing.T) {
	database, err := db.NewDB(filepath.Join(t.TempDir(), "places.db"))
	if err != nil {
		t.Fatalf("NewDB() error: %v", err)
	}
	defer database.Close()

	if _, err := database.InsertPlaces([]db.Place{{Name: "Oslo", ASCIIName: "Oslo", Country: "NO"}}); err != nil {
		t.Fatalf("InsertPlaces() error: %v", err)
	}

	imp, err := database.BeginImport()
	if err != nil {
		t.Fatalf("BeginImport() error: %v", err)
	}
	count, err := importPlaces(imp, strings.NewReader(sampleDump), 0)
	if err != nil {
		t.Fatalf("importPlaces() error: %v", err)
	}
	if err := imp.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	if count != 3 || imp.Count() != 3 {
		t.Errorf("expected 3 imported places, got %d (%d)", count, imp.Count())
	}
	if places, _ := database.SearchPlaces("Oslo"); len(places) != 0 {
		t.Error("the import should replace the previous index")
	}
	places, err := database.SearchPlaces("Paris")
	if err != nil || len(places) != 2 || places[0].Label() != "Paris, FR" {
		t.Errorf("unexpected Paris results: %+v, %v", places, err)
	}
}
