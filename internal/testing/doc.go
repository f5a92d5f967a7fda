// Package testing runs the generation and validation scenarios of devcheck.
//
// A scenario is a list of steps. Each step names an action from the step
// registry (see Actions) and passes string arguments. Actions that invoke the
// generator update the scenario context; actions that check something return
// validation verdicts. A HardFail verdict ends the scenario as FAILED, an
// Advisory verdict is kept as a warning, and a step that cannot run as written
// (unknown action, missing argument, wrong order) ends it as ERROR.
//
// ## Components
//
// ### Runner (test_runner.go)
// - Runs scenarios one after another, each inside its own workspace scope
// - Releases the scope on a detached context, also after cancellation
// - Honors fail-fast, the overall timeout and per-scenario and per-step timeouts
//
// ### Loader (loader.go)
// - Built-in scenarios are embedded from scenarios/*.yaml
// - A file or a directory of *.yaml/*.yml files replaces them
// - Filters by category, scenario name pattern and tags
//
// ### Reporter (test_reporter.go)
// - Console, quiet and JSON reporters
// - Optional JSON report file per run
//
// ## Scenario Structure
//
//	```yaml
//	- name: python-image
//	  category: container
//	  description: The python template builds and ships its toolchain
//	  tags: [python]
//	  steps:
//	    - action: create
//	      args: {name: test-py, template: python, lang_version: "3.12"}
//	    - action: build_image
//	    - action: expect_toolchain
//	      args: {tool: python, use_requested_version: "true"}
//	```
//
// ## Usage
//
//	```bash
//	devcheck test                              # Run all built-in scenarios
//	devcheck test --category=container         # Category-specific
//	devcheck test --scenario='concurrent-*'    # Name pattern
//	devcheck test --generator=claude-binary    # Override the backend
//	```
//
// Container scenarios need a docker CLI; devcontainer scenarios additionally
// need the devcontainer CLI. The exit code is non-zero when any scenario
// failed or errored, warnings never affect it.
package testing
