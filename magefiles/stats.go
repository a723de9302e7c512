//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
)

// pkgStats counts Go source in one package directory.
type pkgStats struct {
	Dir       string `json:"dir"`
	ProdLines int    `json:"prodLines"`
	TestLines int    `json:"testLines"`
	Tests     int    `json:"tests"`
}

// Stats prints per-package line and test counts for cmd, internal and pkg,
// followed by a JSON totals line.
func Stats() error {
	byDir := map[string]*pkgStats{}
	for _, root := range []string{"cmd", "internal", "pkg"} {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == root {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			dir := filepath.Dir(path)
			st, ok := byDir[dir]
			if !ok {
				st = &pkgStats{Dir: dir}
				byDir[dir] = st
			}
			lines, tests, err := scanGoFile(path)
			if err != nil {
				return err
			}
			if strings.HasSuffix(path, "_test.go") {
				st.TestLines += lines
				st.Tests += tests
			} else {
				st.ProdLines += lines
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var total pkgStats
	total.Dir = "total"
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tPROD\tTEST\tTESTS")
	for _, dir := range dirs {
		st := byDir[dir]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", st.Dir, st.ProdLines, st.TestLines, st.Tests)
		total.ProdLines += st.ProdLines
		total.TestLines += st.TestLines
		total.Tests += st.Tests
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	line, err := json.Marshal(total)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

// scanGoFile returns the line count of a Go file and how many top-level
// Test functions it declares.
func scanGoFile(path string) (lines, tests int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		if strings.HasPrefix(scanner.Text(), "func Test") {
			tests++
		}
	}
	return lines, tests, scanner.Err()
}
