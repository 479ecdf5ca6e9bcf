package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samuelfneumann/helpinghands/environment/envconfig"
	"github.com/samuelfneumann/helpinghands/environment/tasks"
	"github.com/samuelfneumann/helpinghands/experiment"
	"github.com/samuelfneumann/helpinghands/experiment/tracker"
	"github.com/samuelfneumann/helpinghands/experiment/trackers"
	"github.com/samuelfneumann/helpinghands/logging"
	ts "github.com/samuelfneumann/helpinghands/timestep"
	"github.com/samuelfneumann/helpinghands/utils/progressbar"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run collects planner demonstrations of a task and saves them with
// the episode returns, lengths, and successes
func run(args []string) error {
	fs := flag.NewFlagSet("helpinghands", flag.ContinueOnError)
	task := fs.String("task", "block_stacking", "task to run, one of: "+
		strings.Join(tasks.Names(), ", "))
	planner := fs.String("planner", "", "planner to act with, defaults to "+
		"the planner of the task")
	configPath := fs.String("config", "", "HCL environment configuration")
	episodes := fs.Int("episodes", 10, "number of episodes")
	steps := fs.Int("steps", 0, "maximum number of actions, 0 is no limit")
	outDir := fs.String("out", "", "output directory, overrides the "+
		"configuration")
	render := fs.Bool("render", false, "save observation images")
	successOnly := fs.Bool("success-only", true, "save demonstrations of "+
		"solved episodes only")
	level := fs.String("log-level", "info", "debug, info, warn, or error")
	format := fs.String("log-format", "text", "text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logLevel, err := logging.ParseLevel(*level)
	if err != nil {
		return err
	}
	logger, err := logging.NewSlogLogger(logLevel, *format)
	if err != nil {
		return err
	}

	config := envconfig.Default()
	if *configPath != "" {
		if config, err = envconfig.Load(*configPath); err != nil {
			return err
		}
	}
	if *outDir != "" {
		config.OutDir = *outDir
	}
	config.Render = config.Render || *render

	out := func(name string) string {
		return filepath.Join(config.OutDir, *task+"_"+name+".bin")
	}
	success := trackers.NewSuccess(out("success"))
	t := []tracker.Tracker{
		trackers.NewReturn(out("return")),
		trackers.NewEpisodeLength(out("length")),
		success,
		trackers.NewDemonstrations(out("demonstrations"), *successOnly),
	}

	c := experiment.Config{
		Task:        *task,
		Planner:     *planner,
		MaxSteps:    *steps,
		MaxEpisodes: *episodes,
		EnvConf:     config,
	}
	exp, env, err := c.CreateExp(logger, t...)
	if err != nil {
		return err
	}
	defer env.Close()

	logger.Info("running experiment", "task", *task, "episodes", *episodes,
		"seed", config.Seed)

	var bar *progressbar.ProgressBar
	if *episodes > 0 {
		bar = progressbar.New(os.Stdout, 40, *episodes)
		bar.Display()
	}
	for done := false; !done; {
		if done, err = exp.RunEpisode(); err != nil {
			return err
		}
		if bar != nil {
			step := env.CurrentTimeStep()
			bar.Increment(step.Last() && step.EndType == ts.TerminalStateReached)
			bar.Display()
		}
	}
	if bar != nil {
		bar.Close()
	}

	if err := exp.Save(); err != nil {
		return err
	}
	logger.Info("saved experiment data", "dir", config.OutDir,
		"episodes", success.Episodes(), "success_rate", success.Rate())
	return nil
}
