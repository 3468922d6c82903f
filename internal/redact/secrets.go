package redact

import (
	"fmt"
	"regexp"
	"strings"
)

// SecretPattern is a named credential token shape.
type SecretPattern struct {
	Name  string `json:"name"`
	Regex string `json:"regex"`
}

// BuiltinSecretPatterns are token formats curated from gitleaks. Each entry
// encodes the provider prefix plus a minimum body length, so short
// coincidental prefixes ("sk-ip") never match.
var BuiltinSecretPatterns = []SecretPattern{
	// AI/ML platforms
	{"anthropic", `sk-ant-api\d{2}-[a-zA-Z0-9_-]{20,}`},
	{"openai-project", `sk-proj-[a-zA-Z0-9]{20,}`},
	{"openrouter", `sk-or-[a-zA-Z0-9_-]{20,}`},

	// Cloud providers
	{"aws-access-key", `AKIA[0-9A-Z]{16}`},
	{"gcp-api-key", `AIza[0-9A-Za-z_-]{35}`},

	// GitHub
	{"github-pat", `ghp_[0-9a-zA-Z]{36}`},
	{"github-oauth", `gho_[0-9a-zA-Z]{36}`},
	{"github-app", `ghs_[0-9a-zA-Z]{36,}`},
	{"github-user", `ghu_[0-9a-zA-Z]{36}`},
	{"github-fine-grained", `github_pat_[0-9a-zA-Z_]{82}`},

	// GitLab
	{"gitlab-pat", `glpat-[0-9a-zA-Z_-]{20,}`},
	{"gitlab-pipeline-trigger", `glptt-[0-9a-f]{40}`},
	{"gitlab-runner", `GR1348941[0-9a-zA-Z_-]{20,}`},

	// Slack
	{"slack-bot", `xoxb-[0-9]+-[0-9A-Za-z-]+`},
	{"slack-user", `xoxp-[0-9]+-[0-9A-Za-z-]+`},
	{"slack-app", `xoxa-[0-9]+-[0-9A-Za-z-]+`},
	{"slack-config", `xoxe-[0-9]+-[0-9A-Za-z-]+`},

	// Stripe secret / restricted keys
	{"stripe", `(?:sk|rk)_(?:live|test|prod)_[0-9a-zA-Z]{24,}`},

	// Package registries
	{"npm", `npm_[0-9a-zA-Z]{36}`},
	{"pypi", `pypi-[0-9a-zA-Z_-]{16,}`},

	// SaaS
	{"sendgrid", `SG\.[0-9a-zA-Z_-]{22}\.[0-9a-zA-Z_-]{43}`},
	{"twilio", `SK[0-9a-fA-F]{32}`},
	{"postman", `PMAK-[0-9a-fA-F]{24}-[0-9a-fA-F]{34}`},
	{"linear", `lin_api_[a-zA-Z0-9]{40}`},
	{"doppler", `dp\.pt\.[a-zA-Z0-9]{43}`},
	{"databricks", `dapi[0-9a-f]{32}`},

	// DigitalOcean
	{"digitalocean-pat", `dop_v1_[a-f0-9]{64}`},
	{"digitalocean-oauth", `doo_v1_[a-f0-9]{64}`},
	{"digitalocean-refresh", `dor_v1_[a-f0-9]{64}`},

	// HashiCorp Vault
	{"vault-service", `hvs\.[a-zA-Z0-9_-]{24,}`},
	{"vault-batch", `hvb\.[a-zA-Z0-9_-]{100,}`},

	{"pulumi", `pul-[a-f0-9]{40}`},

	// Shopify
	{"shopify-shared-secret", `shpss_[0-9a-fA-F]{32}`},
	{"shopify-access", `shpat_[0-9a-fA-F]{32}`},
	{"shopify-custom-app", `shpca_[0-9a-fA-F]{32}`},
	{"shopify-private-app", `shppa_[0-9a-fA-F]{32}`},

	// Connection strings with embedded credentials
	{"mongodb-uri", `mongodb(?:\+srv)?://[^:@\s]{3,}:[^@\s]{3,}@[^\s]+`},

	// Grafana
	{"grafana-cloud", `glc_[A-Za-z0-9+/]{32,}={0,2}`},
	{"grafana-service-account", `glsa_[A-Za-z0-9]{32}_[A-Fa-f0-9]{8}`},

	// PlanetScale
	{"planetscale-token", `pscale_tkn_[a-zA-Z0-9_.-]{43}`},
	{"planetscale-oauth", `pscale_oauth_[a-zA-Z0-9_.-]{43}`},

	{"contentful", `CFPAT-[a-zA-Z0-9_-]{43}`},

	// Encryption keys
	{"age-secret-key", `AGE-SECRET-KEY-1[qpzry9x8gf2tvdw0s3jn54khce6mua7l]{58}`},
	{"pem-private-key", `-----BEGIN[A-Z ]*PRIVATE KEY-----`},
}

// compileSecrets joins patterns into a single case-sensitive alternation.
// Patterns that could match the empty string or any part of a placeholder
// are rejected: either would make restoration ambiguous.
func compileSecrets(patterns []SecretPattern, m Markers) (*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	parts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, fmt.Errorf("secret pattern %q: invalid regex: %w", p.Name, err)
		}
		if re.MatchString("") {
			return nil, fmt.Errorf("secret pattern %q matches the empty string", p.Name)
		}
		if touchesPlaceholder(re, m.Redacted) || touchesPlaceholder(re, m.Secret) {
			return nil, fmt.Errorf("secret pattern %q matches a redaction placeholder", p.Name)
		}
		parts = append(parts, "(?:"+p.Regex+")")
	}
	return regexp.Compile(strings.Join(parts, "|"))
}

// placeholderSurroundings are the contexts a placeholder is tried in. They
// cover matches that start or end outside the placeholder.
var placeholderSurroundings = [][2]string{
	{"", ""},
	{"a", "a"},
	{"0", "0"},
	{"_", "_"},
	{" ", " "},
	{"a", ""},
	{"", "a"},
	{"=", "\n"},
}

// touchesPlaceholder reports whether re matches any part of placeholder in
// one of the surroundings.
func touchesPlaceholder(re *regexp.Regexp, placeholder string) bool {
	for _, s := range placeholderSurroundings {
		text := s[0] + placeholder + s[1]
		start, end := len(s[0]), len(s[0])+len(placeholder)
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[0] < end && loc[1] > start {
				return true
			}
		}
	}
	return false
}
