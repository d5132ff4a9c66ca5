package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// RequiredDataFiles lists the JSON documents the dashboard cannot run
// without.
var RequiredDataFiles = []string{
	mliDataFile,
	divergenceFile,
}

// CheckDataFiles returns the required files missing from dataDir.
func CheckDataFiles(dataDir string) []string {
	var missing []string
	for _, name := range RequiredDataFiles {
		if _, err := os.Stat(filepath.Join(dataDir, name)); os.IsNotExist(err) {
			missing = append(missing, name)
		}
	}
	return missing
}

// PromptUserForDownload asks whether to fetch the missing files.
func PromptUserForDownload(missing []string) bool {
	if len(missing) == 0 {
		return false
	}

	fmt.Println("\nMissing required data files:")
	for _, name := range missing {
		fmt.Printf("   - %s\n", name)
	}
	fmt.Print("\nWould you like to download them now? (y/N): ")

	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))

	return response == "y" || response == "yes"
}

// progressCounter counts bytes as they stream in and redraws one
// progress line.
type progressCounter struct {
	total     int64
	current   int64
	name      string
	fileIndex int
	fileCount int
}

func (pc *progressCounter) Write(p []byte) (int, error) {
	n := len(p)
	pc.current += int64(n)

	currentKB := pc.current / 1024
	if pc.total > 0 {
		percentage := float64(pc.current) / float64(pc.total) * 100
		fmt.Printf("\r   Downloading %s... %.1f%% (%d/%d KB) [%d/%d]",
			pc.name, percentage, currentKB, pc.total/1024, pc.fileIndex, pc.fileCount)
	} else {
		fmt.Printf("\r   Downloading %s... %d KB downloaded [%d/%d]",
			pc.name, currentKB, pc.fileIndex, pc.fileCount)
	}

	return n, nil
}

// downloadFile fetches one file from url into path with a progress line.
func downloadFile(path, url string, fileIndex, fileCount int) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	counter := &progressCounter{
		total:     resp.ContentLength,
		name:      filepath.Base(path),
		fileIndex: fileIndex,
		fileCount: fileCount,
	}

	_, err = io.Copy(out, io.TeeReader(resp.Body, counter))
	fmt.Println()

	return err
}

// DownloadDataFiles fetches the missing JSON files from baseURL into
// dataDir. Files land in a temp name first so an interrupted download
// never leaves a half-written required file behind.
func DownloadDataFiles(dataDir, baseURL string, missing []string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	fmt.Println("\nDownloading data files...")

	for i, name := range missing {
		url := strings.TrimRight(baseURL, "/") + "/" + name
		tmpPath := filepath.Join(dataDir, name+".partial")

		if err := downloadFile(tmpPath, url, i+1, len(missing)); err != nil {
			os.Remove(tmpPath)
			if logger != nil {
				logger.Error("Data file download failed", "error", err, "url", url)
			}
			return fmt.Errorf("failed to download %s: %w", url, err)
		}

		finalPath := filepath.Join(dataDir, name)
		if err := os.Rename(tmpPath, finalPath); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to finalize %s: %w", finalPath, err)
		}

		if logger != nil {
			logger.Info("Data file downloaded", "file", name, "url", url)
		}
	}

	fmt.Println("All data files downloaded successfully!")
	return nil
}
