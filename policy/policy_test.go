package policy

import (
	"context"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/pkgmirror/pkgmirror/internal/core"
)

// fakeLicenses is a canned LicenseSource that records whether it was called.
type fakeLicenses struct {
	info   core.PackageLicenseInfo
	ok     bool
	called bool
}

func (f *fakeLicenses) GetLicenseInfo(ctx context.Context, pkg core.PackageIdentity) (core.PackageLicenseInfo, bool) {
	f.called = true
	return f.info, f.ok
}

func samplePkg(t *testing.T) core.PackageIdentity {
	t.Helper()
	pkg, err := core.NewPackageIdentity("Sample.Pkg", "2.0.0")
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

func newEngine(cfg Config, licenses LicenseSource) *Engine {
	return NewEngine(Static(cfg), licenses, hclog.NewNullLogger())
}

func TestEvaluate_DisabledPolicyNeverCallsUpstream(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{LicenseExpression: "AGPL-3.0-only"}}
	engine := newEngine(Config{}, licenses)

	decision := engine.Evaluate(context.Background(), samplePkg(t))
	if decision.Blocked {
		t.Error("empty config must allow everything")
	}
	if licenses.called {
		t.Error("disabled policy must not call the license source")
	}
}

func TestEvaluate_BlockedExpressionSubstring(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{LicenseExpression: "AGPL-3.0-only"}}
	engine := newEngine(Config{BlockedLicenseExpressions: []string{"AGPL-3.0"}}, licenses)

	decision := engine.Evaluate(context.Background(), samplePkg(t))
	if !decision.Blocked {
		t.Fatal("expected block")
	}
	for _, want := range []string{"Sample.Pkg", "2.0.0", "AGPL-3.0"} {
		if !strings.Contains(decision.Reason, want) {
			t.Errorf("reason %q should mention %q", decision.Reason, want)
		}
	}
}

func TestEvaluate_ExpressionMatchIsCaseInsensitive(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{LicenseExpression: "agpl-3.0-ONLY"}}
	engine := newEngine(Config{BlockedLicenseExpressions: []string{"AGPL-3.0"}}, licenses)

	if !engine.Evaluate(context.Background(), samplePkg(t)).Blocked {
		t.Error("expression matching must be case-insensitive")
	}
}

func TestEvaluate_URLPattern(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{LicenseURL: "https://www.gnu.org/licenses/agpl.txt"}}
	engine := newEngine(Config{BlockedLicenseURLPatterns: []string{"*gnu.org*"}}, licenses)

	decision := engine.Evaluate(context.Background(), samplePkg(t))
	if !decision.Blocked {
		t.Fatal("expected block")
	}
	if !strings.Contains(decision.Reason, "gnu.org") {
		t.Errorf("reason %q should mention the pattern", decision.Reason)
	}
}

func TestEvaluate_StarPatternBlocksAnyLicenseURL(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{LicenseURL: "https://whatever.example/x"}}
	engine := newEngine(Config{BlockedLicenseURLPatterns: []string{"*"}}, licenses)

	if !engine.Evaluate(context.Background(), samplePkg(t)).Blocked {
		t.Error("bare * must match every license URL")
	}
}

func TestEvaluate_StarPatternNeedsALicenseURL(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{LicenseExpression: "MIT"}}
	engine := newEngine(Config{BlockedLicenseURLPatterns: []string{"*"}}, licenses)

	if engine.Evaluate(context.Background(), samplePkg(t)).Blocked {
		t.Error("URL rules must not fire without a license URL")
	}
}

func TestEvaluate_FailsOpenWhenInfoAbsent(t *testing.T) {
	licenses := &fakeLicenses{ok: false}
	engine := newEngine(Config{
		BlockedLicenseExpressions: []string{"AGPL-3.0"},
		BlockedLicenseURLPatterns: []string{"*"},
	}, licenses)

	if engine.Evaluate(context.Background(), samplePkg(t)).Blocked {
		t.Error("absent license info must fail open")
	}
}

func TestEvaluate_ExpressionRulesWinOverURLRules(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{
		LicenseExpression: "AGPL-3.0-only",
		LicenseURL:        "https://www.gnu.org/licenses/agpl.txt",
	}}
	engine := newEngine(Config{
		BlockedLicenseExpressions: []string{"AGPL-3.0"},
		BlockedLicenseURLPatterns: []string{"*gnu.org*"},
	}, licenses)

	decision := engine.Evaluate(context.Background(), samplePkg(t))
	if !decision.Blocked {
		t.Fatal("expected block")
	}
	if !strings.Contains(decision.Reason, "license expression") {
		t.Errorf("expression rule should win, reason = %q", decision.Reason)
	}
}

func TestEvaluate_FirstMatchingExpressionWins(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{LicenseExpression: "AGPL-3.0-or-later"}}
	engine := newEngine(Config{
		BlockedLicenseExpressions: []string{"AGPL", "AGPL-3.0"},
	}, licenses)

	decision := engine.Evaluate(context.Background(), samplePkg(t))
	if !decision.Blocked {
		t.Fatal("expected block")
	}
	if !strings.Contains(decision.Reason, `"AGPL"`) {
		t.Errorf("first configured rule should win, reason = %q", decision.Reason)
	}
}

func TestEvaluate_NoRuleMatches(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{
		LicenseExpression: "MIT",
		LicenseURL:        "https://opensource.org/mit",
	}}
	engine := newEngine(Config{
		BlockedLicenseExpressions: []string{"AGPL-3.0"},
		BlockedLicenseURLPatterns: []string{"*gnu.org*"},
	}, licenses)

	if engine.Evaluate(context.Background(), samplePkg(t)).Blocked {
		t.Error("no rule matched, must allow")
	}
}

func TestEvaluate_URLPatternListEmptyExpressionListMiss(t *testing.T) {
	// End-to-end shape from the serving scenario: AGPL package, expression
	// list empty, URL pattern does not match the actual license URL.
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{
		LicenseExpression: "AGPL-3.0-only",
		LicenseURL:        "https://opensource.org/mit",
	}}
	engine := newEngine(Config{BlockedLicenseURLPatterns: []string{"*gnu.org*"}}, licenses)

	if engine.Evaluate(context.Background(), samplePkg(t)).Blocked {
		t.Error("pattern does not match URL and expression list is empty; must allow")
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	licenses := &fakeLicenses{ok: true, info: core.PackageLicenseInfo{LicenseExpression: "AGPL-3.0-only"}}
	engine := newEngine(Config{BlockedLicenseExpressions: []string{"AGPL-3.0"}}, licenses)

	first := engine.Evaluate(context.Background(), samplePkg(t))
	second := engine.Evaluate(context.Background(), samplePkg(t))
	if first != second {
		t.Errorf("decisions differ: %+v vs %+v", first, second)
	}
}
