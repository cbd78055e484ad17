package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/floodcast/segconf/internal/application"
	"github.com/floodcast/segconf/internal/document"
	"github.com/floodcast/segconf/internal/logging"
	"github.com/floodcast/segconf/internal/schema"
	"github.com/floodcast/segconf/internal/snapshot"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// pipelineFlags are the flags shared by every command that loads a
// configuration.
type pipelineFlags struct {
	configFile *string
	overrides  *[]string
	sets       *[]string
	jobName    *string
	workDir    *string
}

func registerPipelineFlags(cmd *kingpin.CmdClause) *pipelineFlags {
	return &pipelineFlags{
		configFile: cmd.Flag("config", "Path to the base YAML configuration file").String(),
		overrides:  cmd.Flag("override", "Override YAML file, repeatable, later files win").Strings(),
		sets:       cmd.Flag("set", "Single key override as dotted.path=value, repeatable").Strings(),
		jobName:    cmd.Flag("job-name", "Job name exposed as ${runtime.job_name}").String(),
		workDir:    cmd.Flag("work-dir", "Working directory exposed as ${runtime.work_dir} (default: cwd)").String(),
	}
}

func (f *pipelineFlags) options() application.Options {
	return application.Options{
		ConfigFile:    *f.configFile,
		OverrideFiles: *f.overrides,
		SetOverrides:  *f.sets,
		JobName:       *f.jobName,
		WorkDir:       *f.workDir,
	}
}

func run(args []string, stdout io.Writer) int {
	app := kingpin.New("segconf", "Experiment-configuration resolver for the flood-segmentation pipeline")
	verbose := app.Flag("verbose", "Enable debug logging").Short('v').Bool()

	resolveCmd := app.Command("resolve", "Merge, resolve, validate, and persist a run configuration snapshot")
	resolveFlags := registerPipelineFlags(resolveCmd)
	runDir := resolveCmd.Flag("run-dir", "Directory receiving the timestamped run directory (default: <work_dir>/runs)").String()
	noSnapshot := resolveCmd.Flag("no-snapshot", "Skip persisting the resolved snapshot").Bool()
	writeMode := resolveCmd.Flag("snapshot-write-mode", "Behaviour when the run directory exists (raise_exists|overwrite|append)").
		Default(string(snapshot.ModeRaiseExists)).String()

	validateCmd := app.Command("validate", "Report every schema and invariant violation without persisting anything")
	validateFlags := registerPipelineFlags(validateCmd)

	getCmd := app.Command("get", "Print one resolved value by dotted path")
	getFlags := registerPipelineFlags(getCmd)
	getPath := getCmd.Arg("path", "Dotted configuration path, e.g. training.batch_size").Required().String()

	command, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "segconf: %v\n", err)
		return 2
	}

	logger, err := logging.New(*verbose)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case resolveCmd.FullCommand():
		mode, err := snapshot.ParseMode(*writeMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "segconf: %v\n", err)
			return 2
		}
		opts := resolveFlags.options()
		opts.RunDir = *runDir
		opts.WriteSnapshot = !*noSnapshot
		opts.SnapshotMode = mode
		return resolve(opts, logger, stdout)
	case validateCmd.FullCommand():
		return validate(validateFlags.options(), logger, stdout)
	case getCmd.FullCommand():
		return get(getFlags.options(), *getPath, logger, stdout)
	}
	return 2
}

func resolve(opts application.Options, logger *zap.Logger, stdout io.Writer) int {
	run, err := application.Load(opts, logger)
	if err != nil {
		logger.Error("failed to resolve configuration", zap.Error(err))
		return 1
	}
	if run.SnapshotDir != "" {
		fmt.Fprintln(stdout, run.SnapshotDir)
	}
	return 0
}

func validate(opts application.Options, logger *zap.Logger, stdout io.Writer) int {
	opts.WriteSnapshot = false
	_, err := application.Load(opts, logger)
	if err == nil {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	var violations schema.ValidationErrors
	if errors.As(err, &violations) {
		for _, v := range violations {
			fmt.Fprintln(stdout, v.Error())
		}
		return 1
	}
	logger.Error("failed to load configuration", zap.Error(err))
	return 1
}

func get(opts application.Options, path string, logger *zap.Logger, stdout io.Writer) int {
	opts.WriteSnapshot = false
	run, err := application.Load(opts, logger)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	value, err := run.Tree.Get(path)
	if err != nil {
		logger.Error("lookup failed", zap.Error(err))
		return 1
	}

	switch value.(type) {
	case document.Map, []any:
		data, err := yaml.Marshal(value)
		if err != nil {
			logger.Error("encode value", zap.Error(err))
			return 1
		}
		fmt.Fprint(stdout, string(data))
	default:
		fmt.Fprintln(stdout, value)
	}
	return 0
}
