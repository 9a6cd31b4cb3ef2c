// Command soundprint is the reference CLI over pkg/soundprint: it can
// dump the intermediate artifacts of a single file (diagnostic mode),
// build a database from a batch of recordings, or identify a query
// recording against a previously built database.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/devrindt/soundprint/pkg/logger"
	"github.com/devrindt/soundprint/pkg/soundprint"
	"github.com/devrindt/soundprint/pkg/soundprint/audio"
	"github.com/devrindt/soundprint/pkg/soundprint/fingerprint"
)

func main() {
	log := logger.GetLogger()
	printBanner()

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch {
	case args[0] == "--indexar":
		err = runIndexar(log, args[1:])
	case args[0] == "--buscar":
		err = runBuscar(log, args[1:])
	default:
		err = runDiagnostic(log, args[0])
	}

	if err != nil {
		fmt.Printf("\n❌ %v\n", err)
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Println(`
   ___                    _ _____       _       _
  / __|___ _  _ _ _  __| |_   _| _ __ _| |__   (_)_ _
  \__ / _ \ || | ' \/ _' | | || '_/ _' | / /   | | ' \
  |___\___/\_,_|_||_\__,_| |_||_| \__,_|_\_\   |_|_||_|

       acoustic fingerprinting & matching engine
`)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  soundprint <file.wav>                               diagnostic dump")
	fmt.Println("  soundprint --indexar <db> <file1.wav> [file2.wav …] build/extend a database")
	fmt.Println("  soundprint --buscar <db> <query.wav> [--top N]      identify a recording")
}

func dbPaths(db string) (binPath, metaPath string) {
	return db + "_index.bin", db + "_metadata.txt"
}

func loadOrNewService(log *logger.Logger, db string) (*soundprint.Service, error) {
	svc := soundprint.NewService(soundprint.WithLogger(log))
	binPath, metaPath := dbPaths(db)

	if _, err := os.Stat(binPath); err == nil {
		if _, err := os.Stat(metaPath); err != nil {
			return nil, soundprint.NewError(soundprint.KindMalformedDatabase,
				fmt.Sprintf("found %s without matching %s", binPath, metaPath), err)
		}
		fmt.Printf("📂 Loading existing database %q...\n", db)
		if err := svc.Load(binPath, metaPath); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func runIndexar(log *logger.Logger, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: soundprint --indexar <db> <file1.wav> [file2.wav …]")
	}
	db := args[0]
	files := args[1:]

	svc, err := loadOrNewService(log, db)
	if err != nil {
		return err
	}

	fmt.Printf("\n🎧 Indexing %d file(s) into %q\n", len(files), db)
	bar := progressbar.Default(int64(len(files)), "fingerprinting")

	var failures int
	for _, path := range files {
		if err := indexOneFile(svc, path); err != nil {
			fmt.Printf("\n⚠️  skipping %s: %v\n", path, err)
			log.Warnf("enrollment failed for %s: %v", path, err)
			failures++
		}
		bar.Add(1)
	}

	binPath, metaPath := dbPaths(db)
	if err := svc.Save(binPath, metaPath); err != nil {
		return err
	}

	fmt.Printf("\n✅ Database %q now holds %s\n", db, svc.Describe())
	if failures > 0 {
		fmt.Printf("   (%d of %d files failed and were skipped)\n", failures, len(files))
	}
	return nil
}

func indexOneFile(svc *soundprint.Service, path string) error {
	samples, err := audio.ReadWAV(path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	_, err = svc.Enroll(name, path, samples.Data, samples.SampleRate, samples.Duration)
	return err
}

func runBuscar(log *logger.Logger, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: soundprint --buscar <db> <query.wav> [--top N]")
	}
	db := args[0]
	query := args[1]
	top := 1

	for i := 2; i < len(args); i++ {
		if args[i] == "--top" && i+1 < len(args) {
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid --top value %q: %w", args[i+1], err)
			}
			top = n
			i++
		}
	}

	svc, err := loadOrNewService(log, db)
	if err != nil {
		return err
	}
	if svc.Stats().SongCount == 0 {
		return fmt.Errorf("database %q is empty or missing", db)
	}

	samples, err := audio.ReadWAV(query)
	if err != nil {
		return err
	}

	fmt.Printf("\n🔍 Searching %q for %s (%s)...\n", db, filepath.Base(query), humanize.FormatFloat("#,###.#", samples.Duration)+"s")

	start := time.Now()
	results, err := svc.Query(samples.Data, samples.SampleRate, top, 0)
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		if e, ok := err.(*soundprint.Error); ok && e.Kind == soundprint.KindInsufficientData {
			fmt.Println("\n❌ No match — query produced no usable fingerprints")
			return nil
		}
		return err
	}

	if len(results) == 0 {
		fmt.Println("\n❌ No match found")
		return nil
	}

	fmt.Printf("\n✅ Found %d candidate(s) in %.1fms\n\n", len(results), elapsedMs)
	for i, r := range results {
		fmt.Printf("%d. %q\n", i+1, r.Name)
		fmt.Printf("   confidence: %.1f%%   matched hashes: %d/%d   offset: %.2fs\n",
			r.Confidence, r.MatchedHashes, r.QueryHashes, r.TimeOffset)
	}
	return nil
}

func runDiagnostic(log *logger.Logger, path string) error {
	samples, err := audio.ReadWAV(path)
	if err != nil {
		return err
	}

	fmt.Printf("\n🎛️  Analyzing %s\n", path)
	fmt.Printf("   sample rate: %d Hz   duration: %s\n", samples.SampleRate,
		humanize.FormatFloat("#,###.##", samples.Duration)+"s")

	svc := soundprint.NewService(soundprint.WithLogger(log))
	hashes, peaks, err := svc.Fingerprint(samples.Data, samples.SampleRate)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := writePeaksCSV(base+"_peaks.csv", peaks); err != nil {
		return err
	}
	if err := writeFingerprintsCSV(base+"_fingerprints.csv", hashes); err != nil {
		return err
	}

	fmt.Printf("   peaks:    %d  -> %s\n", len(peaks), base+"_peaks.csv")
	fmt.Printf("   hashes:   %d  -> %s\n", len(hashes), base+"_fingerprints.csv")
	log.Infof("diagnostic dump complete for %s: %d peaks, %d hashes", path, len(peaks), len(hashes))
	return nil
}

func writePeaksCSV(path string, peaks []fingerprint.Peak) error {
	f, err := os.Create(path)
	if err != nil {
		return soundprint.NewError(soundprint.KindIoFailure, "create peaks csv", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{"time_s", "freq_hz", "magnitude", "frame_idx", "bin_idx"})
	for _, p := range peaks {
		w.Write([]string{
			strconv.FormatFloat(p.Time, 'f', 6, 64),
			strconv.FormatFloat(p.Freq, 'f', 3, 64),
			strconv.FormatFloat(p.Magnitude, 'f', 6, 64),
			strconv.Itoa(p.FrameIdx),
			strconv.Itoa(p.BinIdx),
		})
	}
	return w.Error()
}

func writeFingerprintsCSV(path string, hashes []fingerprint.Hash) error {
	f, err := os.Create(path)
	if err != nil {
		return soundprint.NewError(soundprint.KindIoFailure, "create fingerprints csv", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{"value", "anchor_time_s", "anchor_idx", "target_idx"})
	for _, h := range hashes {
		w.Write([]string{
			strconv.FormatUint(uint64(h.Value), 10),
			strconv.FormatFloat(h.AnchorTime, 'f', 6, 64),
			strconv.Itoa(h.AnchorIdx),
			strconv.Itoa(h.TargetIdx),
		})
	}
	return w.Error()
}
