package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/internal/config"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/internal/paths"
)

// noStore marks commands that run without opening the data store.
const noStore = "guineapal/no-store"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// cli is one invocation: parsed flags, loaded settings and the opened app.
type cli struct {
	root     *cobra.Command
	flags    rootFlags
	settings config.Settings
	log      logger.Logger
	app      *app
	now      func() time.Time
}

func newCLI() *cli {
	c := &cli{now: time.Now, log: logger.Nop()}
	c.root = newRootCmd(c)
	return c
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "guineapal",
		Short: "Keep track of your guinea pigs' health, care and family",
		Long: `guineapal stores pet profiles, health and care records, family links,
achievements and a local community feed on this machine.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[noStore] != "" {
				return nil
			}
			return c.open(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&c.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.guineapal)")
	root.PersistentFlags().BoolVar(&c.flags.jsonMode, "json", false, "output as JSON")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(c))
	root.AddCommand(newPetCmd(c))
	root.AddCommand(newRecordCmds(c)...)
	root.AddCommand(newCareCmd(c))
	root.AddCommand(newDietCmd(c))
	root.AddCommand(newFeedingCmd(c))
	root.AddCommand(newFamilyCmd(c))
	root.AddCommand(newBondingCmd(c))
	root.AddCommand(newChecklistCmd(c))
	root.AddCommand(newAchievementsCmd(c))
	root.AddCommand(newAuthCmd(c))
	root.AddCommand(newFeedCmd(c, "forum", "Community forum posts"))
	root.AddCommand(newFeedCmd(c, "gram", "Guinea-gram photo feed"))
	root.AddCommand(newExportCmd(c))
	root.AddCommand(newImportCmd(c))
	root.AddCommand(newReconcileCmd(c))
	return root
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > GUINEAPAL_CONFIG_DIR env > platform default.
func (c *cli) resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(c.flags.configDir)
}

// load reads config.yaml and resolves the data directory into settings.
func (c *cli) load(cmd *cobra.Command) error {
	configDir, err := c.resolveConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	settings, err := config.Load(configDir)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(c.flags.dataDir, settings.Store.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	settings.Store.DataDir = dataDir

	c.settings = settings
	c.log = settings.Logger(cmd.ErrOrStderr())
	return nil
}

func (c *cli) open(cmd *cobra.Command) error {
	if err := c.load(cmd); err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), c.settings.Store, c.log, c.now)
	if err != nil {
		return err
	}
	c.app = a
	c.log.Debug("opened store", logger.Fields{
		"backend":  c.settings.Store.Backend,
		"data_dir": c.settings.Store.DataDir,
	})
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// execute runs the command tree with args and always releases the store.
func (c *cli) execute(args []string) error {
	c.root.SetArgs(args)
	err := c.root.Execute()
	return errors.Join(err, c.close())
}

// positional wraps an argument validator so its errors count as usage
// errors.
func positional(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
