package binary

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/jedisct1/go-minisign"

	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
)

// ErrVerification is returned when a signature or checksum does not match.
var ErrVerification = errors.New("verification failed")

// VerificationMethod indicates how the release inputs were verified
type VerificationMethod int

const (
	// VerificationNone indicates checksum verification was disabled or skipped
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates an OpenPGP signature over the checksum file
	VerificationGPG
	// VerificationMinisign indicates a minisign signature over the checksum file
	VerificationMinisign
	// VerificationSHA256 indicates per-asset SHA-256 checksums
	VerificationSHA256
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationMinisign:
		return "minisign"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// VerifyOptions configures the Verifier. An empty Checksums disables it.
type VerifyOptions struct {
	Checksums   string // checksum file name among the release assets
	PGPKeyring  string // keyring path for <Checksums>.asc / .sig
	MinisignKey string // public key path for <Checksums>.minisig
}

// VerificationResult contains the outcome of a verification pass
type VerificationResult struct {
	Methods  []VerificationMethod
	Verified []string // assets whose checksum matched
	Unlisted []string // assets the checksum file does not mention
}

// Verifier checks downloaded assets against a release checksum file.
type Verifier struct {
	opts   VerifyOptions
	logger config.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(opts VerifyOptions, logger config.Logger) *Verifier {
	return &Verifier{opts: opts, logger: config.OrNop(logger)}
}

// Verify checks the signature on the checksum file in dir, when one is
// configured, then the SHA-256 of every asset the file lists. A checksum
// file that was not downloaded skips verification with a warning.
func (v *Verifier) Verify(dir string, assets []Asset) (*VerificationResult, error) {
	result := &VerificationResult{}
	if v.opts.Checksums == "" {
		return result, nil
	}

	checksumPath := filepath.Join(dir, v.opts.Checksums)
	if !fileExists(checksumPath) {
		v.logger.Warn("checksum file not in release, skipping verification", "file", v.opts.Checksums)
		return result, nil
	}

	signed, err := v.verifySignatures(checksumPath)
	if err != nil {
		return nil, err
	}
	result.Methods = append(result.Methods, signed...)

	sums, err := parseChecksums(checksumPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	for _, asset := range assets {
		if isVerificationFile(asset.Name, v.opts.Checksums) {
			continue
		}
		expected, ok := sums[asset.Name]
		if !ok {
			v.logger.Warn("asset not listed in checksum file", "asset", asset.Name)
			result.Unlisted = append(result.Unlisted, asset.Name)
			continue
		}
		actual, err := calculateSHA256(asset.Path)
		if err != nil {
			return nil, fmt.Errorf("calculate checksum of %s: %w", asset.Name, err)
		}
		if !strings.EqualFold(actual, expected) {
			return nil, fmt.Errorf("%w: checksum mismatch for %s:\nactual:   %s\nexpected: %s",
				ErrVerification, asset.Name, actual, expected)
		}
		result.Verified = append(result.Verified, asset.Name)
	}
	if len(result.Verified) > 0 {
		result.Methods = append(result.Methods, VerificationSHA256)
	}

	return result, nil
}

// verifySignatures checks each signature that has a configured key. A
// configured key without its signature file is an error.
func (v *Verifier) verifySignatures(checksumPath string) ([]VerificationMethod, error) {
	var methods []VerificationMethod

	pgpSig := firstExisting(checksumPath+".asc", checksumPath+".sig")
	switch {
	case v.opts.PGPKeyring != "" && pgpSig == "":
		return nil, fmt.Errorf("%w: no OpenPGP signature for %s", ErrVerification, filepath.Base(checksumPath))
	case v.opts.PGPKeyring != "":
		if err := verifyGPG(v.opts.PGPKeyring, checksumPath, pgpSig); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVerification, err)
		}
		methods = append(methods, VerificationGPG)
	case pgpSig != "":
		v.logger.Warn("OpenPGP signature present but no keyring configured", "signature", filepath.Base(pgpSig))
	}

	minisig := firstExisting(checksumPath + ".minisig")
	switch {
	case v.opts.MinisignKey != "" && minisig == "":
		return nil, fmt.Errorf("%w: no minisign signature for %s", ErrVerification, filepath.Base(checksumPath))
	case v.opts.MinisignKey != "":
		if err := verifyMinisign(v.opts.MinisignKey, checksumPath, minisig); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVerification, err)
		}
		methods = append(methods, VerificationMinisign)
	case minisig != "":
		v.logger.Warn("minisign signature present but no public key configured", "signature", filepath.Base(minisig))
	}

	return methods, nil
}

// verifyGPG verifies a detached signature, armored or binary
func verifyGPG(keyringPath, filePath, signaturePath string) error {
	keyring, err := loadKeyring(keyringPath)
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	// Try armored first
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, file, sigFile, nil)
	if err != nil {
		if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("rewind file: %w", seekErr)
		}
		if _, seekErr := sigFile.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("rewind signature: %w", seekErr)
		}
		_, err = openpgp.CheckDetachedSignature(keyring, file, sigFile, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

// loadKeyring loads an armored or binary OpenPGP keyring
func loadKeyring(keyringPath string) (openpgp.EntityList, error) {
	// #nosec G304 -- keyring path comes from the operator's config
	keyringFile, err := os.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		// Try reading as non-armored keyring
		if _, seekErr := keyringFile.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("rewind keyring: %w", seekErr)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

func verifyMinisign(pubKeyPath, filePath, sigPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(pubKeyPath)
	if err != nil {
		return fmt.Errorf("read minisign pubkey: %w", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return fmt.Errorf("read minisign signature: %w", err)
	}

	// #nosec G304 -- path is inside the run's scratch directory
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read signed file: %w", err)
	}

	valid, err := pubKey.Verify(data, sig)
	if err != nil {
		return fmt.Errorf("minisign: verification error: %w", err)
	}
	if !valid {
		return fmt.Errorf("minisign: signature verification failed")
	}
	return nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// parseChecksums reads a sha256sum style file into filename → digest.
// Format: "abc123def456  filename.tar.gz", optionally "*filename" for binary
// mode and paths reduced to their basename.
func parseChecksums(checksumPath string) (map[string]string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return nil, fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	sums := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		name := filepath.Base(strings.TrimPrefix(parts[len(parts)-1], "*"))
		sums[name] = strings.ToLower(parts[0])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan checksum file: %w", err)
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("checksum file %s is empty", filepath.Base(checksumPath))
	}

	return sums, nil
}

// isVerificationFile reports whether name is the checksum file or one of its
// signatures.
func isVerificationFile(name, checksums string) bool {
	return name == checksums || strings.HasPrefix(name, checksums+".")
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
