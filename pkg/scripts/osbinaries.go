package scripts

// osBinaries is the static allow-list of OS-provided executables. A binary
// reference matching this table is never reported as unlisted. Kept as a
// versioned table so it can be reviewed and tested independently of the
// extraction logic.
var osBinaries = map[string]bool{
	"awk":      true,
	"basename": true,
	"cat":      true,
	"cd":       true,
	"chmod":    true,
	"chown":    true,
	"cp":       true,
	"curl":     true,
	"cut":      true,
	"date":     true,
	"diff":     true,
	"dirname":  true,
	"docker":   true,
	"echo":     true,
	"exit":     true,
	"export":   true,
	"false":    true,
	"find":     true,
	"git":      true,
	"grep":     true,
	"gzip":     true,
	"head":     true,
	"kill":     true,
	"ln":       true,
	"ls":       true,
	"make":     true,
	"mkdir":    true,
	"mv":       true,
	"printf":   true,
	"pwd":      true,
	"rm":       true,
	"rmdir":    true,
	"sed":      true,
	"set":      true,
	"sleep":    true,
	"sort":     true,
	"source":   true,
	"tail":     true,
	"tar":      true,
	"tee":      true,
	"test":     true,
	"touch":    true,
	"tr":       true,
	"true":     true,
	"uname":    true,
	"uniq":     true,
	"unzip":    true,
	"wc":       true,
	"wget":     true,
	"which":    true,
	"xargs":    true,
	"zip":      true,
}

// IsOSBinary reports whether name is on the OS-provided allow-list.
func IsOSBinary(name string) bool {
	return osBinaries[name]
}
