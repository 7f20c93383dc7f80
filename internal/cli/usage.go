package cli

import (
	"flag"
	"fmt"
	"os"
)

// Usage prints the usage information for the sweeper command
func Usage() {
	fmt.Fprintf(os.Stderr, `Sweeper - Dead code and dependency analysis for JavaScript and TypeScript

Usage: sweeper [options]

Sweeper builds the module graph of a source tree from its configured entry
points and reports what nothing reaches: unused files, unused and unlisted
dependencies, unlisted binaries, unresolved imports, and unused exports.

Issue categories:
  files         Project files no entry point reaches
  dependencies  Declared dependencies nothing imports
  unlisted      Imported packages missing from the manifest
  binaries      Script binaries no installed package provides
  unresolved    Import specifiers that resolve to nothing
  exports       Exported values nothing imports
  types         Exported types nothing imports
  enumMembers   Members of used enums nothing references
  classMembers  Members of used classes nothing references

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  # Analyze the current directory
  sweeper

  # Analyze a monorepo root with JSON output
  sweeper --workspace ~/src/app --json

  # Report only dependency issues
  sweeper --include dependencies,unlisted

  # Hide unresolved import noise
  sweeper --exclude unresolved

  # Also audit the public surface of entry files
  sweeper --include-entry-exports

  # Disable the namespace enumeration heuristic
  sweeper --strict-exports

  # Keep the report current while editing
  sweeper --watch

Exit status:
  0  no issues found
  1  issues found
  2  fatal error
`)
}
