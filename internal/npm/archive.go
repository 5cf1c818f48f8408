package npm

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
)

// PackageRoot is the directory npm nests every tarball entry under.
const PackageRoot = "package"

// IntegrityError lists the required entries absent from a package archive.
type IntegrityError struct {
	Archive string
	Missing []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrIntegrity, e.Archive, strings.Join(e.Missing, ", "))
}

// Unwrap makes errors.Is(err, ErrIntegrity) hold.
func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

// RequiredEntries returns the archive paths of the launcher and of each
// staged binary under binSubdir.
func RequiredEntries(binSubdir, launcher string, staged []string) []string {
	entries := make([]string, 0, len(staged)+1)
	entries = append(entries, path.Join(PackageRoot, binSubdir, launcher))
	for _, name := range staged {
		entries = append(entries, path.Join(PackageRoot, binSubdir, name))
	}
	return entries
}

// ListEntries returns the file entries of a gzip'd tarball, sorted.
func ListEntries(archivePath string) ([]string, error) {
	// Open archive file
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	var entries []string
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break // End of archive
		}
		if err != nil {
			return nil, fmt.Errorf("read tar header: %w", err)
		}

		// Directories are implied by their files
		if header.Typeflag == tar.TypeDir {
			continue
		}
		entries = append(entries, header.Name)
	}

	sort.Strings(entries)
	return entries, nil
}

// Verify checks that every required entry is present in the archive by exact
// name. It returns the archive's entries on success and an *IntegrityError
// naming every absent entry otherwise.
func Verify(archivePath string, required []string) ([]string, error) {
	entries, err := ListEntries(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e] = true
	}

	var missing []string
	for _, r := range required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return nil, &IntegrityError{Archive: archivePath, Missing: missing}
	}
	return entries, nil
}
