package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lukaszgryglicki/apconst"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestDefaultRunPrintsAllReports(t *testing.T) {
	out, _, err := run(t)
	if err != nil {
		t.Fatal(err)
	}
	zeta := strings.Index(out, "DERIVATION OF FUNDAMENTAL CONSTANTS")
	apery := strings.Index(out, "THE APÉRY UNIVERSE")
	planck := strings.Index(out, "HOLOGRAPHIC DERIVATION")
	if zeta < 0 || apery < 0 || planck < 0 || !(zeta < apery && apery < planck) {
		t.Fatalf("reports missing or out of order (%d %d %d)", zeta, apery, planck)
	}
}

func TestReportYAMLWithFlags(t *testing.T) {
	out, _, err := run(t, "report", "apery", "--format", "yaml", "--digits", "30", "--workers", "4")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"name: apery", "digits: 30", "verdict: Match", "verdict: Fail"} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q\n%s", s, out)
		}
	}
}

func TestReportFromCatalogFile(t *testing.T) {
	dir := t.TempDir()
	cat := filepath.Join(dir, "tiny.yaml")
	doc := "name: tiny\ntitle: TINY\nentries:\n  - name: two_pi\n    label: TWO PI\n    expr: 2*pi\n    decimals: 4\n    reference:\n      value: \"6.2832\"\n      rule: absolute\n      tolerance: \"0.0001\"\n"
	if err := os.WriteFile(cat, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "report", cat)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Calculated: 6.2832") || !strings.Contains(out, "Verdict:    Match") {
		t.Fatalf("unexpected output\n%s", out)
	}
}

func TestCatalogsDoNotShareConstants(t *testing.T) {
	dir := t.TempDir()
	clash := filepath.Join(dir, "clash.toml")
	doc := `name = "clash"
title = "CLASH"

[[constants]]
name = "G"
value = "1"

[[entries]]
name = "c"
label = "SHADOWS PLANCK"
expr = "2*G"
  [entries.reference]
  value = "2"
  rule = "absolute"
  tolerance = "0"
`
	if err := os.WriteFile(clash, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "report", "planck", clash)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Calculated: 2.000000") || !strings.Contains(out, "HOLOGRAPHIC DERIVATION") {
		t.Fatalf("unexpected output\n%s", out)
	}

	borrow := filepath.Join(dir, "borrow.toml")
	doc = strings.Replace(doc, `name = "clash"`, `name = "borrow"`, 1)
	doc = strings.Replace(doc, `expr = "2*G"`, `expr = "2*alpha_obs"`, 1)
	if err := os.WriteFile(borrow, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "report", "planck", borrow); !errors.Is(err, apconst.ErrEvaluation) {
		t.Fatalf("constant of another catalog resolved: err = %v", err)
	}
}

func TestConfigFileAndLogging(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "apconst.toml")
	if err := os.WriteFile(cfg, []byte("digits = 20\nlog_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, logs, err := run(t, "--config", cfg, "--digits", "25", "constants")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "pi           3.141592653589793238462643") {
		t.Fatalf("constants output\n%s", out)
	}
	if !strings.Contains(logs, "run_id=") || !strings.Contains(logs, "digits=25") {
		t.Fatalf("logs lack run id or flag override\n%s", logs)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		args []string
		kind error
	}{
		{[]string{"report", "nope"}, apconst.ErrConfiguration},
		{[]string{"--digits=-3", "list"}, apconst.ErrConfiguration},
		{[]string{"--format", "xml"}, apconst.ErrConfiguration},
		{[]string{"report", "missing.toml"}, apconst.ErrConfiguration},
	}
	for _, tc := range tests {
		if _, _, err := run(t, tc.args...); !errors.Is(err, tc.kind) {
			t.Errorf("%v: error = %v, want %v", tc.args, err, tc.kind)
		}
	}
	if _, _, err := run(t, "report"); err == nil {
		t.Error("report without names succeeded")
	}
}

func TestListCheckVersion(t *testing.T) {
	out, _, err := run(t, "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"zeta", "apery", "planck", "quadroot(Z0, 1/4)"} {
		if !strings.Contains(out, s) {
			t.Errorf("list lacks %q", s)
		}
	}
	out, _, err = run(t, "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if strings.Contains(out, "DISAGREES") || !strings.Contains(out, "hbar") {
		t.Fatalf("check output\n%s", out)
	}
	out, _, err = run(t, "version")
	if err != nil || !strings.Contains(out, "MPFR:") {
		t.Fatalf("version = %q, %v", out, err)
	}
}
