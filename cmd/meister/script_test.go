package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/tidwall/gjson"
	"go.trai.ch/meister/internal/core/domain"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"meister": main,
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setupScript,
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"manifested": cmdManifested,
		},
	})
}

func setupScript(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, domain.DirPerm); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)

	return nil
}

// cmdManifested prints the file the manifest of a destination maps a key to.
//
//	manifested <destination> <key>
func cmdManifested(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! manifested")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: manifested <destination> <key>")
	}

	dest := ts.MkAbs(args[0])
	manifest := ts.ReadFile(domain.ManifestPath(dest))
	target := gjson.Get(manifest, strings.ReplaceAll(args[1], ".", `\.`))
	if !target.Exists() {
		ts.Fatalf("%s is not in %s", args[1], domain.ManifestPath(dest))
	}

	contents := ts.ReadFile(filepath.Join(dest, filepath.FromSlash(target.String())))
	_, _ = io.WriteString(ts.Stdout(), contents)
}
