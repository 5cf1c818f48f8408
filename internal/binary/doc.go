// Package binary turns the release assets of a tagged GitHub release into
// the staged binaries of an npm package.
//
// # Pipeline stages
//
//   - Fetcher: downloads release assets with the gh CLI, once, no retries
//   - Verifier: optional checksum file verification (OpenPGP or minisign
//     signature over the file, then SHA-256 per asset)
//   - Extractor: per-asset format detection and extraction through external
//     tools; every failure is a warning and yields no binary
//   - Stager: moves extracted binaries into the package bin directory under
//     their canonical target names and records them in a Manifest
//
// # Usage
//
//	caps := binary.Probe(runner.LookPath, logger)
//	extractor := binary.NewExtractor(r, caps, "mcp-getweb", logger)
//	stager := binary.NewStager(extractor, "mcp-getweb", "mcp-getweb.js", logger)
//	manifest, err := stager.Stage(ctx, assetsDir, scratchDir, binDir)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(manifest.Missing())
package binary
