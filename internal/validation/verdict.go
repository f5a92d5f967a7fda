// Package validation implements the staged checks run against generated projects.
//
// Every check yields Verdicts. A HardFail fails the scenario; an Advisory is a
// recorded warning that never fails anything.
package validation

import (
	"fmt"
	"strings"
)

// Kind classifies a verdict.
type Kind string

const (
	KindPass     Kind = "pass"
	KindHardFail Kind = "hard_fail"
	KindAdvisory Kind = "advisory"
)

// Stage names the pipeline stage a verdict came from.
type Stage string

const (
	StageGeneration  Stage = "generation"
	StageStructural  Stage = "structural"
	StageDescriptor  Stage = "descriptor"
	StageImageBuild  Stage = "image_build"
	StageRuntime     Stage = "runtime"
	StageEnvironment Stage = "environment"
)

// Verdict is the outcome of one check.
type Verdict struct {
	Kind   Kind   `json:"kind"`
	Stage  Stage  `json:"stage"`
	Check  string `json:"check"`
	Reason string `json:"reason,omitempty"`
}

func Pass(stage Stage, check string) Verdict {
	return Verdict{Kind: KindPass, Stage: stage, Check: check}
}

func HardFail(stage Stage, check, reasonFmt string, args ...interface{}) Verdict {
	return Verdict{Kind: KindHardFail, Stage: stage, Check: check, Reason: fmt.Sprintf(reasonFmt, args...)}
}

func Advisory(stage Stage, check, reasonFmt string, args ...interface{}) Verdict {
	return Verdict{Kind: KindAdvisory, Stage: stage, Check: check, Reason: fmt.Sprintf(reasonFmt, args...)}
}

func (v Verdict) IsHardFail() bool { return v.Kind == KindHardFail }
func (v Verdict) IsAdvisory() bool { return v.Kind == KindAdvisory }

func (v Verdict) String() string {
	if v.Reason == "" {
		return fmt.Sprintf("[%s] %s: %s", v.Stage, v.Check, v.Kind)
	}
	return fmt.Sprintf("[%s] %s: %s: %s", v.Stage, v.Check, v.Kind, v.Reason)
}

// HardFailError carries a HardFail verdict through error returns.
type HardFailError struct {
	Verdict Verdict
}

func (e *HardFailError) Error() string {
	return e.Verdict.String()
}

// Passed reports whether none of verdicts is a HardFail.
func Passed(verdicts []Verdict) bool {
	return FirstHardFail(verdicts) == nil
}

// FirstHardFail returns the first HardFail in verdicts, or nil.
func FirstHardFail(verdicts []Verdict) *Verdict {
	for i := range verdicts {
		if verdicts[i].IsHardFail() {
			return &verdicts[i]
		}
	}
	return nil
}

// Advisories filters verdicts down to the advisory ones.
func Advisories(verdicts []Verdict) []Verdict {
	var out []Verdict
	for _, v := range verdicts {
		if v.IsAdvisory() {
			out = append(out, v)
		}
	}
	return out
}

// maxOutputInReason keeps failure messages readable when a build dumps megabytes.
const maxOutputInReason = 4000

func withOutput(msg, output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return msg
	}
	if len(output) > maxOutputInReason {
		output = "..." + output[len(output)-maxOutputInReason:]
	}
	return msg + "\n" + output
}
