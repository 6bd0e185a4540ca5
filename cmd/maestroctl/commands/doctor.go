package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/maestrohq/maestroctl/internal/app/doctor"
	"github.com/maestrohq/maestroctl/internal/model"
	storageio "github.com/maestrohq/maestroctl/internal/storage/io"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Run preflight checks (profile, history database, orchestrator).")
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// A broken profile is reported by its check, the rest use the defaults.
	settings, err := c.rootCmd.Settings(ctx)
	if err != nil {
		logger.Warningf("Ignoring profile: %s", err)
		profilePath := c.rootCmd.ProfilePath
		c.rootCmd.ProfilePath = ""
		settings, err = c.rootCmd.Settings(ctx)
		c.rootCmd.ProfilePath = profilePath
		if err != nil {
			return err
		}
	}

	orch, err := c.rootCmd.NewOrchestrator(settings)
	if err != nil {
		return fmt.Errorf("could not create orchestrator client: %w", err)
	}

	profilePath := ""
	if c.rootCmd.ProfilePath != "" {
		profilePath, err = fsPath(c.rootCmd.ProfilePath)
		if err != nil {
			return err
		}
	}

	svc, err := doctor.NewService(doctor.ServiceConfig{
		Orchestrator:      orch,
		ProfileRepository: storageio.NewProfileYAMLRepository(os.DirFS("/")),
		ProfilePath:       profilePath,
		SchemaVersion: func(ctx context.Context) (uint, error) {
			repo, err := c.rootCmd.NewRepository(ctx)
			if err != nil {
				return 0, err
			}
			defer repo.Close()
			return repo.SchemaVersion(ctx)
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	results := svc.Run(ctx)
	if err := c.rootCmd.NewPrinter(c.format).PrintChecks(results); err != nil {
		return fmt.Errorf("could not print checks: %w", err)
	}

	if summary := model.SummarizeChecks(results); summary.Errors > 0 {
		return fmt.Errorf("preflight checks failed with %d error(s)", summary.Errors)
	}

	return nil
}
