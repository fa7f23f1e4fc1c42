package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/decisionos/internal/auth"
	"github.com/spf13/cobra"
)

func captured() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestTemplatesList(t *testing.T) {
	cmd, out := captured()
	if err := runTemplates(cmd, nil); err != nil {
		t.Fatalf("runTemplates: %v", err)
	}
	for _, name := range []string{"build-vs-buy", "measurement", "pricing"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("output missing %q:\n%s", name, out.String())
		}
	}
}

func TestTemplatesShow(t *testing.T) {
	cmd, out := captured()
	if err := runTemplates(cmd, []string{"measurement"}); err != nil {
		t.Fatalf("runTemplates: %v", err)
	}
	if !strings.Contains(out.String(), "dataSources") || !strings.Contains(out.String(), "(required)") {
		t.Errorf("output:\n%s", out.String())
	}

	if err := runTemplates(cmd, []string{"nope"}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "cli-test")

	cmd, out := captured()
	if err := runToken(cmd, []string{"acct-9"}); err != nil {
		t.Fatalf("runToken: %v", err)
	}

	a, err := auth.NewAuthenticator("cli-secret", "cli-test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	account, err := a.Verify(strings.TrimSpace(out.String()))
	if err != nil || account != "acct-9" {
		t.Errorf("Verify = %q, %v", account, err)
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cmd, _ := captured()
	if err := runToken(cmd, []string{"acct-9"}); err == nil {
		t.Error("expected error without JWT_SECRET")
	}
}
