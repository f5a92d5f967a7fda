package testing

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"devcheck/internal/generator"
	"devcheck/internal/orchestrator"
	"devcheck/internal/scenario"
	"devcheck/internal/validation"
)

// stepEnv is what a step implementation may touch.
type stepEnv struct {
	sc        *scenario.Context
	checker   *validation.Checker
	generator func(id string) generator.Generator
}

// stepArgs wraps TestStep.Args with typed accessors.
type stepArgs map[string]string

func (a stepArgs) require(key string) (string, error) {
	v, ok := a[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return v, nil
}

func (a stepArgs) boolean(key string) (bool, error) {
	v, ok := a[key]
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("argument %q: %w", key, err)
	}
	return b, nil
}

func (a stepArgs) list(key string) []string {
	var out []string
	for _, part := range strings.Split(a[key], ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// stepFunc returns the verdicts a step produced. A returned error means the
// step could not run as written and is reported as ERROR rather than FAILED.
type stepFunc func(ctx context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error)

var stepRegistry = map[string]stepFunc{
	"use_generator":                stepUseGenerator,
	"create":                       stepCreate,
	"recreate":                     stepRecreate,
	"create_concurrent":            stepCreateConcurrent,
	"create_pair":                  stepCreatePair,
	"expect_created":               stepExpectCreated,
	"expect_all_created":           stepExpectAllCreated,
	"expect_independent_structure": stepExpectIndependentStructure,
	"expect_structure":             stepExpectStructure,
	"expect_descriptor_valid":      stepExpectDescriptorValid,
	"expect_descriptor_field":      stepExpectDescriptorField,
	"expect_extensions":            stepExpectExtensions,
	"expect_setting":               stepExpectSetting,
	"build_image":                  stepBuildImage,
	"expect_toolchain":             stepExpectToolchain,
	"start_devcontainer":           stepStartDevContainer,
	"expect_exec":                  stepExpectExec,
	"expect_post_create":           stepExpectPostCreate,
	"stop_devcontainer":            stepStopDevContainer,
	"expect_failure":               stepExpectFailure,
	"expect_error_mentions":        stepExpectErrorMentions,
	"expect_existing_handled":      stepExpectExistingHandled,
}

// Actions returns the registered step actions in lexical order.
func Actions() []string {
	names := make([]string, 0, len(stepRegistry))
	for name := range stepRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupStep(action string) (stepFunc, bool) {
	fn, ok := stepRegistry[action]
	return fn, ok
}

func stepUseGenerator(_ context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	id, err := args.require("type")
	if err != nil {
		return nil, err
	}
	env.sc.Generator = env.generator(id)
	return nil, nil
}

func stepCreate(ctx context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	// An empty name is a legitimate edge case, so only presence is required.
	name, ok := args["name"]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", "name")
	}
	opts := generator.OptionsFromMap(args)
	opts.Workspace = env.sc.Scope.Root

	env.sc.ProjectName = name
	env.sc.Options = opts
	env.sc.Descriptor = nil
	res := env.sc.Generator.Generate(ctx, name, opts)
	env.sc.Last = &res
	return nil, nil
}

func stepRecreate(ctx context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	if env.sc.Last == nil {
		return nil, fmt.Errorf("recreate needs a previous create step")
	}
	opts := env.sc.Options
	override := generator.OptionsFromMap(args)
	if override.Template != "" {
		opts.Template = override.Template
	}
	if override.LangVersion != "" {
		opts.LangVersion = override.LangVersion
	}
	if override.Preset != "" {
		opts.Preset = override.Preset
	}

	env.sc.Options = opts
	env.sc.Descriptor = nil
	res := env.sc.Generator.Generate(ctx, env.sc.ProjectName, opts)
	env.sc.Last = &res
	return nil, nil
}

func stepCreateConcurrent(ctx context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	names := args.list("names")
	if len(names) == 0 {
		return nil, fmt.Errorf("missing required argument %q", "names")
	}
	batch, err := orchestrator.CreateAll(ctx, env.sc.Generator, env.sc.Scope, names, args["template"])
	if err != nil {
		return nil, err
	}
	env.sc.Batch = batch
	return nil, nil
}

func stepCreatePair(ctx context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	var reqs [2]orchestrator.Request
	for i := range reqs {
		suffix := strconv.Itoa(i + 1)
		name, err := args.require("name" + suffix)
		if err != nil {
			return nil, err
		}
		reqs[i] = orchestrator.Request{Name: name, Template: args["template"+suffix]}
	}
	batch, err := orchestrator.CreatePair(ctx, env.sc.Generator, env.sc.Scope, reqs[0], reqs[1])
	if err != nil {
		return nil, err
	}
	env.sc.Batch = batch
	return nil, nil
}

func lastResult(env *stepEnv) (generator.Result, error) {
	if env.sc.Last == nil {
		return generator.Result{}, fmt.Errorf("no generator invocation has run yet")
	}
	return *env.sc.Last, nil
}

func batchOf(env *stepEnv) (*orchestrator.Batch, error) {
	if env.sc.Batch == nil {
		return nil, fmt.Errorf("no concurrent generation has run yet")
	}
	return env.sc.Batch, nil
}

func stepExpectCreated(_ context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	res, err := lastResult(env)
	if err != nil {
		return nil, err
	}
	return []validation.Verdict{validation.CheckCreated(env.sc.Scope, env.sc.ProjectName, res)}, nil
}

func stepExpectAllCreated(_ context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	batch, err := batchOf(env)
	if err != nil {
		return nil, err
	}
	verdicts := make([]validation.Verdict, 0, len(batch.Names))
	for _, name := range batch.Names {
		verdicts = append(verdicts, validation.CheckCreated(env.sc.Scope, name, batch.Results[name]))
	}
	return verdicts, nil
}

func stepExpectIndependentStructure(_ context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	batch, err := batchOf(env)
	if err != nil {
		return nil, err
	}
	var verdicts []validation.Verdict
	for _, name := range batch.Names {
		verdicts = append(verdicts, validation.CheckStructure(env.sc.Scope.ProjectPath(name), validation.StructureOptions{})...)
	}
	return append(verdicts, validation.CheckDisjoint(env.sc.Scope, batch.Names)), nil
}

func stepExpectStructure(_ context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	requireGit, err := args.boolean("git")
	if err != nil {
		return nil, err
	}
	dual, err := args.boolean("dual_repo")
	if err != nil {
		return nil, err
	}
	return validation.CheckStructure(env.sc.ProjectRoot(), validation.StructureOptions{
		RequireGit: requireGit,
		DualRepo:   dual,
	}), nil
}

// loadDescriptor parses the descriptor once per project and caches it.
func loadDescriptor(env *stepEnv) []validation.Verdict {
	if env.sc.Descriptor != nil {
		return nil
	}
	d, v := validation.CheckDescriptor(env.sc.ProjectRoot())
	env.sc.Descriptor = d
	return []validation.Verdict{v}
}

func stepExpectDescriptorValid(_ context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	env.sc.Descriptor = nil
	return loadDescriptor(env), nil
}

func withDescriptor(env *stepEnv, check func() validation.Verdict) []validation.Verdict {
	verdicts := loadDescriptor(env)
	if validation.FirstHardFail(verdicts) != nil {
		return verdicts
	}
	return append(verdicts, check())
}

func stepExpectDescriptorField(_ context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	field, err := args.require("field")
	if err != nil {
		return nil, err
	}
	return withDescriptor(env, func() validation.Verdict {
		return validation.CheckField(env.sc.Descriptor, field)
	}), nil
}

func stepExpectExtensions(_ context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	return withDescriptor(env, func() validation.Verdict {
		return validation.CheckExtensions(env.sc.Descriptor)
	}), nil
}

func stepExpectSetting(_ context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	name, err := args.require("setting")
	if err != nil {
		return nil, err
	}
	probe, ok := validation.SettingProbes[name]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q", name)
	}
	return withDescriptor(env, func() validation.Verdict {
		return validation.CheckSetting(env.sc.Descriptor, probe)
	}), nil
}

func stepBuildImage(ctx context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	if env.sc.ProjectName == "" {
		return nil, fmt.Errorf("build_image needs a project; run create first")
	}
	tag, verdicts := env.checker.BuildImage(ctx, env.sc.Scope, env.sc.ProjectName)
	env.sc.ImageTag = tag
	return verdicts, nil
}

func stepExpectToolchain(ctx context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	tool, err := args.require("tool")
	if err != nil {
		return nil, err
	}
	want := args["version"]
	if want == "" && args["use_requested_version"] == "true" {
		want = env.sc.Options.LangVersion
	}
	return env.checker.CheckToolchain(ctx, env.sc.ImageTag, tool, want), nil
}

func stepStartDevContainer(ctx context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	v := env.checker.StartEnvironment(ctx, env.sc.ProjectRoot())
	env.sc.EnvironmentUp = !v.IsHardFail()
	return []validation.Verdict{v}, nil
}

func stepExpectExec(ctx context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	command, err := args.require("command")
	if err != nil {
		return nil, err
	}
	if !env.sc.EnvironmentUp {
		return nil, fmt.Errorf("expect_exec needs a running dev container; run start_devcontainer first")
	}
	return []validation.Verdict{
		env.checker.CheckExec(ctx, env.sc.ProjectRoot(), args["contains"], strings.Fields(command)...),
	}, nil
}

func stepExpectPostCreate(_ context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	return []validation.Verdict{validation.CheckPostCreate(env.sc.ProjectRoot())}, nil
}

func stepStopDevContainer(ctx context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	v := env.checker.StopEnvironment(ctx, env.sc.ProjectRoot())
	env.sc.EnvironmentUp = false
	return []validation.Verdict{v}, nil
}

func stepExpectFailure(_ context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	res, err := lastResult(env)
	if err != nil {
		return nil, err
	}
	return []validation.Verdict{validation.ExpectFailure(res)}, nil
}

func stepExpectErrorMentions(_ context.Context, env *stepEnv, args stepArgs) ([]validation.Verdict, error) {
	text, err := args.require("text")
	if err != nil {
		return nil, err
	}
	res, err := lastResult(env)
	if err != nil {
		return nil, err
	}
	return []validation.Verdict{validation.ExpectMention(res, text)}, nil
}

func stepExpectExistingHandled(_ context.Context, env *stepEnv, _ stepArgs) ([]validation.Verdict, error) {
	res, err := lastResult(env)
	if err != nil {
		return nil, err
	}
	return []validation.Verdict{validation.ExpectHandledExisting(res)}, nil
}
