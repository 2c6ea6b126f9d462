package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/scopegen"
	"github.com/deepnoodle-ai/scopegen/codegen"
	"github.com/deepnoodle-ai/scopegen/parser"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	v      *viper.Viper
	log    zerolog.Logger
	stdin  io.Reader
	stderr io.Writer
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		log:    zerolog.Nop(),
		stdin:  os.Stdin,
		stderr: os.Stderr,
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scopegen",
		Short: "Lower structured function bodies to LLVM IR",
		Long: `scopegen reads functions described in YAML and lowers them to LLVM IR,
emitting the cleanup, landing pad and jump code their scopes require.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetErr(a.stderr)

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.scopegen.yaml)")
	pf.Bool("no-color", false, "disable colored output")
	pf.String("log-level", "warn", "log level: debug, info, warn or error")
	pf.String("personality", codegen.DefaultPersonality, "personality function of landing pads")
	pf.String("throw-func", codegen.DefaultThrowFunc, "function called by throw statements")
	pf.String("resume-func", codegen.DefaultResumeFunc, "function that resumes unwinding")
	pf.String("typeinfo-prefix", codegen.DefaultTypeInfoPrefix, "prefix of exception type descriptors")
	pf.Int("max-depth", parser.DefaultMaxDepth, "maximum nesting depth of statement blocks")
	a.v.BindPFlags(pf)
	a.v.BindEnv("no-color", "SCOPEGEN_NO_COLOR", "NO_COLOR")

	cmd.AddCommand(
		a.buildCmd(),
		a.checkCmd(),
		a.disCmd(),
		a.astCmd(),
		a.versionCmd(),
	)
	return cmd
}

// setup reads the config file and the environment, and configures color
// and logging.
func (a *app) setup(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("scopegen")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if cfgFile := a.v.GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return err
		}
	} else if home, err := homedir.Dir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".scopegen")
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
		}
	}

	if a.v.GetBool("no-color") || !isTerminal(a.stderr) {
		color.NoColor = true
	}

	level, err := zerolog.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return err
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{
		Out:     cmd.ErrOrStderr(),
		NoColor: color.NoColor,
	}).Level(level).With().Timestamp().Logger()
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debug().Str("file", used).Msg("config loaded")
	}
	return nil
}

// options returns the compile options selected by flags, environment and
// config file.
func (a *app) options(filename string) []scopegen.Option {
	opts := []scopegen.Option{
		scopegen.WithLogger(a.log),
		scopegen.WithPersonality(a.v.GetString("personality")),
		scopegen.WithThrowFunc(a.v.GetString("throw-func")),
		scopegen.WithResumeFunc(a.v.GetString("resume-func")),
		scopegen.WithTypeInfoPrefix(a.v.GetString("typeinfo-prefix")),
		scopegen.WithMaxDepth(a.v.GetInt("max-depth")),
	}
	if filename != "" {
		opts = append(opts, scopegen.WithFilename(filename))
	}
	return opts
}
