package system

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/wellformed/internal/app"
	"github.com/vk/wellformed/internal/config"
	"github.com/vk/wellformed/internal/testutil"
)

// Test for: config merges
func TestCLI_MergesHCL_FromDirectoryPath(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"a.hcl": `
			run {
				workers = 2
				explain = true
			}
		`,
		"b.hcl": `
			run {
				ordered = true
			}
		`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, testutil.Harness{
		Files: files,
		Input: "1\n2\n(x)\n()\n",
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, "1:false\n2:true\n", result.Output, "ordered output from b.hcl")
	assert.Equal(t, 2, result.App.Config().Workers, "workers from a.hcl")
	testutil.AssertLogContains(t, result, "Rule violation.", `reason="unrecognized character"`)
}

// Test for: env file overrides config file, explicit flags override both
func TestCLI_LayersFileEnvAndFlags(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"run.hcl": `
			run {
				workers    = 2
				log_format = "json"
			}
		`,
	}
	env := "WELLFORMED_WORKERS=5\nWELLFORMED_EXPLAIN=true\n"
	workers := 9

	// --- Act ---
	result := testutil.RunIntegrationTest(t, testutil.Harness{
		Files: files,
		Env:   env,
		Input: "1\n1\n{}\n",
		Config: app.Config{
			Overrides: config.Overrides{Workers: &workers},
		},
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	model := result.App.Config()
	assert.Equal(t, 9, model.Workers, "flag beats env")
	assert.True(t, model.Explain, "env beats default")
	assert.Equal(t, "json", model.LogFormat, "file beats default")
	testutil.AssertVerdicts(t, result, map[int]bool{1: false})
}

// Test for: env references in HCL
func TestCLI_HCLReadsEnvironment(t *testing.T) {
	// --- Arrange ---
	t.Setenv("WELLFORMED_SYSTEM_TEST_FORMAT", "json")
	files := map[string]string{
		"run.hcl": `
			run {
				log_format = env.WELLFORMED_SYSTEM_TEST_FORMAT
			}
		`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, testutil.Harness{
		Files: files,
		Input: "1\n1\n()\n",
	})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, "json", result.App.Config().LogFormat)
	assert.True(t, strings.HasPrefix(result.LogOutput, "{"), "logs are JSON lines")
	testutil.AssertLogContains(t, result, `"msg":"Run finished."`)
}
