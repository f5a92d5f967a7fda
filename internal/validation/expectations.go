package validation

import (
	"strings"

	"devcheck/internal/cmdexec"
	"devcheck/internal/generator"
)

// The generator accepts every prompt's default from stdin, so inputs that look
// invalid are often resolved to defaults instead of rejected. The checks below
// therefore report surprises as Advisory rather than HardFail.

// ExpectFailure expects the last invocation to be rejected.
func ExpectFailure(res generator.Result) Verdict {
	const check = "generator rejects input"
	if res.Succeeded() {
		return Advisory(StageGeneration, check, "generator exited 0; input was likely resolved to defaults")
	}
	return Pass(StageGeneration, check)
}

// ExpectMention expects text (case-insensitive) in the last invocation's output.
func ExpectMention(res generator.Result, text string) Verdict {
	check := "output mentions " + text
	if !strings.Contains(strings.ToLower(res.Output), strings.ToLower(text)) {
		return Advisory(StageGeneration, check, "%q not found in generator output; defaults may have been used", text)
	}
	return Pass(StageGeneration, check)
}

// ExpectHandledExisting accepts either outcome of re-creating an existing
// project, provided the generator actually ran to completion.
func ExpectHandledExisting(res generator.Result) Verdict {
	const check = "existing project handled"
	if res.ExitCode == cmdexec.ExitStartFailure {
		return Advisory(StageGeneration, check, "generator did not run to completion: %s", strings.TrimSpace(res.Output))
	}
	return Pass(StageGeneration, check)
}
